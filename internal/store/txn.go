package store

import (
	"fmt"

	"github.com/eigerco/relief/internal/clock"
	"github.com/eigerco/relief/internal/events"
	"github.com/eigerco/relief/pkg/db"
)

// Txn is one atomic unit of work. Reads see the transaction's own pending
// writes. Nothing reaches the store until Commit; Discard drops everything.
type Txn struct {
	db.IndexedBatch
	now     clock.Timestamp
	pending []events.Event
}

var _ db.ReadWriter = (*Txn)(nil)

// Begin opens a transaction pinned to the given time.
func Begin(kv db.KVStore, now clock.Timestamp) *Txn {
	return &Txn{IndexedBatch: kv.NewIndexedBatch(), now: now}
}

// Now is the time every mutation in the transaction is stamped with.
func (t *Txn) Now() clock.Timestamp {
	return t.now
}

// Emit stages an event for the journal. The event is published only if the
// transaction commits.
func (t *Txn) Emit(e events.Event) {
	if e.At == 0 {
		e.At = t.now
	}
	t.pending = append(t.pending, e)
}

// Pending returns the events staged so far.
func (t *Txn) Pending() []events.Event {
	return t.pending
}

// Commit assigns journal sequence numbers to the staged events, writes them
// together with every other pending write and returns the committed events.
func (t *Txn) Commit() ([]events.Event, error) {
	committed := make([]events.Event, 0, len(t.pending))
	for _, e := range t.pending {
		seq, err := NextID(t.IndexedBatch, SeqEvent)
		if err != nil {
			return nil, err
		}
		e.Seq = seq
		if err := Put(t.IndexedBatch, IDKey(PrefixEvent, seq), e); err != nil {
			return nil, err
		}
		committed = append(committed, e)
	}
	if err := t.IndexedBatch.Commit(); err != nil {
		return nil, fmt.Errorf(ErrFailedBatchCommit, err)
	}
	return committed, nil
}

// Discard drops every pending write. It is safe to call after Commit.
func (t *Txn) Discard() {
	_ = t.IndexedBatch.Close()
	t.pending = nil
}
