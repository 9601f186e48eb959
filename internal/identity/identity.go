// Package identity defines account identifiers and the signature checking
// capability used for attestations.
package identity

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/eigerco/relief/internal/crypto"
	"github.com/eigerco/relief/internal/crypto/ed25519"
)

var ErrInvalidAccount = errors.New("invalid account id")

// AccountID is the 32-byte Ed25519 public key of an account.
type AccountID [crypto.Ed25519PublicSize]byte

// FromPublicKey converts an Ed25519 public key to an AccountID.
func FromPublicKey(pk ed25519.PublicKey) (AccountID, error) {
	var id AccountID
	if len(pk) != ed25519.PublicKeySize {
		return id, fmt.Errorf("%w: public key has %d bytes", ErrInvalidAccount, len(pk))
	}
	copy(id[:], pk)
	return id, nil
}

// ParseAccountID decodes a hex string, with or without a 0x prefix.
func ParseAccountID(s string) (AccountID, error) {
	var id AccountID
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return id, fmt.Errorf("%w: %w", ErrInvalidAccount, err)
	}
	if len(b) != len(id) {
		return id, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidAccount, len(id), len(b))
	}
	copy(id[:], b)
	return id, nil
}

func (a AccountID) PublicKey() ed25519.PublicKey {
	pk := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(pk, a[:])
	return pk
}

// IsZero reports whether a is the all-zero value, which never names an account.
func (a AccountID) IsZero() bool {
	return a == AccountID{}
}

func (a AccountID) String() string {
	return hex.EncodeToString(a[:])
}

// Short returns the first 8 hex characters, for logs.
func (a AccountID) Short() string {
	return a.String()[:8]
}

func (a AccountID) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *AccountID) UnmarshalText(text []byte) error {
	id, err := ParseAccountID(string(text))
	if err != nil {
		return err
	}
	*a = id
	return nil
}
