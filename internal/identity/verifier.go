package identity

import "github.com/eigerco/relief/internal/crypto/ed25519"

// Verifier checks that signature is a valid signature by signer over message.
type Verifier interface {
	Verify(signer AccountID, message, signature []byte) bool
}

// VerifierFunc adapts a plain function to the Verifier interface.
type VerifierFunc func(signer AccountID, message, signature []byte) bool

func (f VerifierFunc) Verify(signer AccountID, message, signature []byte) bool {
	return f(signer, message, signature)
}

// Ed25519Verifier verifies ZIP-215 Ed25519 signatures with the account id as the public key.
type Ed25519Verifier struct{}

func (Ed25519Verifier) Verify(signer AccountID, message, signature []byte) bool {
	if ed25519.IsEmpty(signer[:]) {
		return false
	}
	return ed25519.Verify(signer[:], message, signature)
}
