package crypto

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

type Hash [HashSize]byte

// HashData returns the 256-bit blake2b digest of data.
func HashData(data []byte) Hash {
	return blake2b.Sum256(data)
}

// HashChain folds each part into the running digest: h = H(h || part).
// It starts from the zero hash.
func HashChain(parts ...[]byte) Hash {
	var h Hash
	buf := make([]byte, 0, HashSize+64)
	for _, p := range parts {
		buf = append(buf[:0], h[:]...)
		buf = append(buf, p...)
		h = HashData(buf)
	}
	return h
}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

func (h Hash) IsZero() bool {
	return h == Hash{}
}
