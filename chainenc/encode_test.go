package chainenc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBufferDeterministic(t *testing.T) {
	build := func() []byte {
		var b Buffer
		b.Int(-7)
		b.Uint(42)
		b.Bytes([]byte("hello"))
		b.Seq(2)
		b.Int(1)
		b.Int(2)
		return b.Bytes()
	}

	require.Equal(t, build(), build())
}

func TestBufferDistinguishesValues(t *testing.T) {
	var a, b Buffer
	a.Bytes([]byte("ab"))
	b.Bytes([]byte("a"))
	b.Bytes([]byte("b"))

	require.NotEqual(t, a.Bytes(), b.Bytes())
}

func TestHashAndComplete(t *testing.T) {
	h := Hash([]byte("block image"))
	require.True(t, Complete(h, 0))

	target := Target(512)
	require.Equal(t, "1", target.String())
}
