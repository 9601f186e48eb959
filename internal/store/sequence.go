package store

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/eigerco/relief/internal/safemath"
	"github.com/eigerco/relief/pkg/db"
	"github.com/eigerco/relief/pkg/db/pebble"
)

// Sequence names. Every id space starts at 1.
const (
	SeqEvent       = "event"
	SeqReport      = "report"
	SeqCrisis      = "crisis"
	SeqVoucher     = "voucher"
	SeqFactToken   = "fact_token"
	SeqImpactToken = "impact_token"
	SeqProof       = "proof"
)

func sequenceKey(name string) []byte {
	return makeKey(PrefixSequence, []byte(name))
}

// CurrentID returns the last id handed out by the named sequence, or 0.
func CurrentID(r db.Reader, name string) (uint64, error) {
	b, err := r.Get(sequenceKey(name))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("read sequence %s: %w", name, err)
	}
	if len(b) != 8 {
		return 0, fmt.Errorf("read sequence %s: corrupt value of %d bytes", name, len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}

// NextID increments the named sequence inside b and returns the new value.
func NextID(b db.ReadWriter, name string) (uint64, error) {
	cur, err := CurrentID(b, name)
	if err != nil {
		return 0, err
	}
	next, ok := safemath.Add64(cur, 1)
	if !ok {
		return 0, fmt.Errorf("sequence %s: %w", name, safemath.ErrOverflow)
	}
	if err := b.Put(sequenceKey(name), binary.BigEndian.AppendUint64(nil, next)); err != nil {
		return 0, fmt.Errorf("write sequence %s: %w", name, err)
	}
	return next, nil
}
