package testutils

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eigerco/relief/internal/clock"
	"github.com/eigerco/relief/internal/crypto"
	"github.com/eigerco/relief/internal/identity"
	"github.com/eigerco/relief/internal/store"
	"github.com/eigerco/relief/pkg/db"
	"github.com/eigerco/relief/pkg/db/pebble"
)

func RandomHash(t *testing.T) crypto.Hash {
	var hash crypto.Hash
	_, err := rand.Read(hash[:])
	require.NoError(t, err)
	return hash
}

// RandomAccount returns a random non-zero account id with no known key.
func RandomAccount(t *testing.T) identity.AccountID {
	var id identity.AccountID
	_, err := rand.Read(id[:])
	require.NoError(t, err)
	id[0] |= 1
	return id
}

func RandomKeypair(t *testing.T) *identity.Keypair {
	kp, err := identity.GenerateKeypair()
	require.NoError(t, err)
	return kp
}

// NewStore opens an in-memory store that is closed when the test ends.
func NewStore(t *testing.T) db.KVStore {
	t.Helper()
	kv, err := pebble.NewKVStore()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, kv.Close(), "failed to close db")
	})
	return kv
}

// Commit runs fn in a transaction at now and commits it when fn succeeds.
// On failure nothing is written and fn's error is returned.
func Commit(t *testing.T, kv db.KVStore, now clock.Timestamp, fn func(txn *store.Txn) error) error {
	t.Helper()
	txn := store.Begin(kv, now)
	defer txn.Discard()
	if err := fn(txn); err != nil {
		return err
	}
	_, err := txn.Commit()
	require.NoError(t, err)
	return nil
}

// BreakIteration wraps r so that every iterator it opens stops after n
// entries and then reports err, the way a storage failure mid-scan does.
func BreakIteration(r db.Reader, n int, err error) db.Reader {
	return brokenReader{Reader: r, n: n, err: err}
}

type brokenReader struct {
	db.Reader
	n   int
	err error
}

func (b brokenReader) NewIterator(start, end []byte) (db.Iterator, error) {
	iter, err := b.Reader.NewIterator(start, end)
	if err != nil {
		return nil, err
	}
	return &brokenIterator{Iterator: iter, left: b.n, err: b.err}, nil
}

type brokenIterator struct {
	db.Iterator
	left int
	err  error
}

func (it *brokenIterator) Next() bool {
	if it.left == 0 {
		return false
	}
	it.left--
	return it.Iterator.Next()
}

func (it *brokenIterator) Error() error {
	if it.left == 0 {
		return it.err
	}
	return it.Iterator.Error()
}
