package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashData(t *testing.T) {
	h := HashData([]byte("relief"))
	assert.False(t, h.IsZero())
	assert.Len(t, h.String(), 2*HashSize)
	assert.Equal(t, h, HashData([]byte("relief")))
	assert.NotEqual(t, h, HashData([]byte("relieF")))
}

func TestHashChain(t *testing.T) {
	assert.True(t, HashChain().IsZero())

	ab := HashChain([]byte("a"), []byte("b"))
	assert.NotEqual(t, ab, HashChain([]byte("b"), []byte("a")))

	first := HashChain([]byte("a"))
	manual := HashData(append(first[:], 'b'))
	assert.Equal(t, manual, ab)
}
