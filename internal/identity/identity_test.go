package identity

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAccountID(t *testing.T) {
	kp, err := GenerateKeypair()
	require.NoError(t, err)

	id := kp.Account()
	parsed, err := ParseAccountID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	parsed, err = ParseAccountID("0x" + id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseAccountID("abcd")
	assert.ErrorIs(t, err, ErrInvalidAccount)

	_, err = ParseAccountID(strings.Repeat("zz", 32))
	assert.ErrorIs(t, err, ErrInvalidAccount)
}

func TestFromPublicKey(t *testing.T) {
	kp, err := GenerateKeypair()
	require.NoError(t, err)

	id, err := FromPublicKey(kp.Account().PublicKey())
	require.NoError(t, err)
	assert.Equal(t, kp.Account(), id)
	assert.False(t, id.IsZero())
	assert.True(t, AccountID{}.IsZero())

	_, err = FromPublicKey([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrInvalidAccount)
}

func TestEd25519Verifier(t *testing.T) {
	kp, err := GenerateKeypair()
	require.NoError(t, err)
	other, err := GenerateKeypair()
	require.NoError(t, err)

	msg := []byte("delivered water")
	sig := kp.Sign(msg)

	v := Ed25519Verifier{}
	assert.True(t, v.Verify(kp.Account(), msg, sig))
	assert.False(t, v.Verify(other.Account(), msg, sig))
	assert.False(t, v.Verify(kp.Account(), []byte("delivered food"), sig))
	assert.False(t, v.Verify(AccountID{}, msg, sig))

	ctxSig := kp.SignContext("relief_test", msg)
	assert.True(t, v.Verify(kp.Account(), append([]byte("relief_test"), msg...), ctxSig))
	assert.False(t, v.Verify(kp.Account(), msg, ctxSig))
}

func TestVerifierFunc(t *testing.T) {
	var called bool
	v := VerifierFunc(func(AccountID, []byte, []byte) bool {
		called = true
		return true
	})
	assert.True(t, v.Verify(AccountID{1}, nil, nil))
	assert.True(t, called)
}

func TestKeypairSaveLoad(t *testing.T) {
	kp, err := GenerateKeypair()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "node.key")
	require.NoError(t, kp.Save(path))

	loaded, err := LoadKeypair(path)
	require.NoError(t, err)
	assert.Equal(t, kp.Account(), loaded.Account())
	assert.Equal(t, kp.PrivateKey(), loaded.PrivateKey())

	_, err = LoadKeypair(filepath.Join(t.TempDir(), "missing.key"))
	assert.Error(t, err)
}

func TestAccountIDText(t *testing.T) {
	id := AccountID{0xab, 31: 0x01}
	text, err := id.MarshalText()
	require.NoError(t, err)

	var decoded AccountID
	require.NoError(t, decoded.UnmarshalText(text))
	assert.Equal(t, id, decoded)
	assert.Equal(t, "ab000000", id.Short())
}
