package identity

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/eigerco/relief/internal/crypto/ed25519"
)

var ErrInvalidKeyFile = errors.New("invalid key file")

// Keypair is an account's signing key.
type Keypair struct {
	private ed25519.PrivateKey
	account AccountID
}

func GenerateKeypair() (*Keypair, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return newKeypair(priv), nil
}

func KeypairFromSeed(seed []byte) (*Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("%w: seed has %d bytes", ErrInvalidKeyFile, len(seed))
	}
	return newKeypair(ed25519.NewKeyFromSeed(seed)), nil
}

func newKeypair(priv ed25519.PrivateKey) *Keypair {
	kp := &Keypair{private: priv}
	copy(kp.account[:], priv.Public().(ed25519.PublicKey))
	return kp
}

func (k *Keypair) Account() AccountID { return k.account }

func (k *Keypair) PrivateKey() ed25519.PrivateKey { return k.private }

func (k *Keypair) Sign(message []byte) []byte {
	return ed25519.Sign(k.private, message)
}

// SignContext signs message under a domain-separation context.
func (k *Keypair) SignContext(context string, message []byte) []byte {
	return ed25519.SignContext(k.private, context, message)
}

type keyFile struct {
	Account AccountID `json:"account"`
	Seed    string    `json:"seed"`
}

// Save writes the key seed as hex JSON, readable only by the owner.
func (k *Keypair) Save(path string) error {
	data, err := json.MarshalIndent(keyFile{
		Account: k.account,
		Seed:    hex.EncodeToString(k.private.Seed()),
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// LoadKeypair reads a key file written by Save.
func LoadKeypair(path string) (*Keypair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var kf keyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKeyFile, err)
	}
	seed, err := hex.DecodeString(kf.Seed)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKeyFile, err)
	}
	kp, err := KeypairFromSeed(seed)
	if err != nil {
		return nil, err
	}
	if !kf.Account.IsZero() && kf.Account != kp.account {
		return nil, fmt.Errorf("%w: account does not match seed", ErrInvalidKeyFile)
	}
	return kp, nil
}
