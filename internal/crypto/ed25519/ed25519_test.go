package ed25519

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignVerifyContext(t *testing.T) {
	pub, priv, err := GenerateKey(rand.Reader)
	require.NoError(t, err)

	sig := SignContext(priv, "relief_test", []byte("payload"))
	assert.True(t, Verify(pub, WithContext("relief_test", []byte("payload")), sig))
	assert.True(t, Verify(pub, []byte("relief_testpayload"), sig))
	assert.False(t, Verify(pub, WithContext("relief_other", []byte("payload")), sig))
	assert.False(t, Verify(pub, WithContext("relief_test", []byte("payloaD")), sig))
	assert.False(t, Verify(pub, []byte("payload"), sig[:10]))
	assert.False(t, Verify(pub[:5], []byte("payload"), sig))
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, IsEmpty(nil))
	assert.True(t, IsEmpty(make(PublicKey, PublicKeySize)))

	seed := make([]byte, SeedSize)
	seed[0] = 1
	priv := NewKeyFromSeed(seed)
	assert.False(t, IsEmpty(priv.Public().(PublicKey)))
}
