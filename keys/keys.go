// Package keys implements the key and signature service described in
// §4.B: Ed25519 keypair generation and detached-signature sign/verify over
// the canonical transaction image. It is built directly on stdlib
// crypto/ed25519, the same way the retrieval pack's own Fantasim/hdpay
// reference repo handles ed25519 elsewhere in this corpus — no wrapper
// library earns its keep here.
package keys

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// Address is the 64-character hex representation of an Ed25519 public
// key, used both as the node's own identity and as transaction output
// recipients. It is opaque to every package except this one.
type Address string

// PublicKey recovers the raw Ed25519 public key bytes an Address encodes.
// It returns an error rather than panicking, since an Address may
// originate from the network.
func (a Address) PublicKey() (ed25519.PublicKey, error) {
	raw, err := hex.DecodeString(string(a))
	if err != nil {
		return nil, fmt.Errorf("keys: address %q is not valid hex: %w", a, err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("keys: address %q decodes to %d bytes, want %d", a, len(raw), ed25519.PublicKeySize)
	}
	return ed25519.PublicKey(raw), nil
}

// KeyPair holds a node's signing identity for its lifetime.
type KeyPair struct {
	Secret  ed25519.PrivateKey
	Address Address
}

// Generate creates a fresh Ed25519 keypair from 32 bytes of secure random
// seed material, per §4.B.
func Generate() (KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return KeyPair{}, fmt.Errorf("keys: generate keypair: %w", err)
	}
	return KeyPair{
		Secret:  priv,
		Address: Address(hex.EncodeToString(pub)),
	}, nil
}

// Sign attaches a detached Ed25519 signature over image (the canonical
// encoding of a transaction with its signature field removed) and returns
// the raw signature bytes.
func (k KeyPair) Sign(image []byte) []byte {
	return ed25519.Sign(k.Secret, image)
}

// Verify checks a detached signature over image under the public key
// encoded by from. It never panics: any parse, format or signature
// mismatch simply yields false, per §4.B.
func Verify(from Address, image []byte, signature []byte) bool {
	pub, err := from.PublicKey()
	if err != nil {
		return false
	}
	if len(signature) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(pub, image, signature)
}
