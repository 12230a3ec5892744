package keys

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	kp, err := Generate()
	require.NoError(t, err)

	image := []byte("unsigned transaction image")
	sig := kp.Sign(image)

	require.True(t, Verify(kp.Address, image, sig))
}

func TestVerifyRejectsMutatedImage(t *testing.T) {
	kp, err := Generate()
	require.NoError(t, err)

	image := []byte("unsigned transaction image")
	sig := kp.Sign(image)

	mutated := append([]byte(nil), image...)
	mutated[0] ^= 0xFF

	require.False(t, Verify(kp.Address, mutated, sig))
}

func TestVerifyRejectsBadAddress(t *testing.T) {
	require.False(t, Verify(Address("not-hex"), []byte("x"), []byte("sig")))
	require.False(t, Verify(Address(""), []byte("x"), []byte("sig")))
}
