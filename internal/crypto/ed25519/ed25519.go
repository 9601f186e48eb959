// Package ed25519 wraps crypto/ed25519 with ZIP-215 compliant verification
// and domain-separated signing contexts.
package ed25519

import (
	"bytes"
	"crypto/ed25519"
	"io"

	"github.com/hdevalence/ed25519consensus"
)

type (
	PublicKey  = ed25519.PublicKey
	PrivateKey = ed25519.PrivateKey
)

const (
	PublicKeySize  = ed25519.PublicKeySize
	PrivateKeySize = ed25519.PrivateKeySize
	SignatureSize  = ed25519.SignatureSize
	SeedSize       = ed25519.SeedSize
)

func GenerateKey(rand io.Reader) (PublicKey, PrivateKey, error) {
	return ed25519.GenerateKey(rand)
}

func NewKeyFromSeed(seed []byte) PrivateKey {
	return ed25519.NewKeyFromSeed(seed)
}

func Sign(privateKey PrivateKey, message []byte) []byte {
	return ed25519.Sign(privateKey, message)
}

// Verify uses ed25519consensus so every node accepts the same set of signatures.
func Verify(publicKey PublicKey, message, sig []byte) bool {
	if len(publicKey) != PublicKeySize || len(sig) != SignatureSize {
		return false
	}
	return ed25519consensus.Verify(publicKey, message, sig)
}

// SignContext signs context || message.
func SignContext(privateKey PrivateKey, context string, message []byte) []byte {
	return Sign(privateKey, WithContext(context, message))
}

// WithContext returns context || message, the bytes SignContext signs.
func WithContext(context string, message []byte) []byte {
	out := make([]byte, 0, len(context)+len(message))
	out = append(out, context...)
	return append(out, message...)
}

var zeroPublicKey = make([]byte, PublicKeySize)

// IsEmpty checks if the given public key is empty or all zeros.
func IsEmpty(pk PublicKey) bool {
	return len(pk) == 0 || bytes.Equal(pk, zeroPublicKey)
}
