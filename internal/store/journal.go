package store

import (
	"errors"
	"math"

	"github.com/eigerco/relief/internal/crypto"
	"github.com/eigerco/relief/internal/events"
	"github.com/eigerco/relief/pkg/db"
	"github.com/eigerco/relief/pkg/serialization/codec/canon"
)

var errLimitReached = errors.New("limit reached")

// Events returns up to limit journal entries with Seq >= from, in commit
// order. A limit of 0 means no limit.
func Events(r db.Reader, from uint64, limit int) ([]events.Event, error) {
	if from == 0 {
		from = 1
	}
	var out []events.Event
	err := Scan(r, IDKey(PrefixEvent, from), IDKey(PrefixEvent, math.MaxUint64), func(_ []byte, e events.Event) error {
		out = append(out, e)
		if limit > 0 && len(out) >= limit {
			return errLimitReached
		}
		return nil
	})
	if err != nil && !errors.Is(err, errLimitReached) {
		return nil, err
	}
	return out, nil
}

// JournalDigest folds every journal entry into a blake2b hash chain,
// h = H(h || entry). Two stores with the same history have the same digest.
func JournalDigest(r db.Reader) (crypto.Hash, uint64, error) {
	var (
		h     crypto.Hash
		count uint64
	)
	err := Scan(r, IDKey(PrefixEvent, 1), IDKey(PrefixEvent, math.MaxUint64), func(_ []byte, e events.Event) error {
		b, err := canon.Marshal(e)
		if err != nil {
			return err
		}
		h = crypto.HashData(append(h[:], b...))
		count++
		return nil
	})
	return h, count, err
}
