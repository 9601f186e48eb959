package ledger

import "github.com/eigerco/relief/internal/crypto"

// JournalSummary identifies a journal by its length and hash chain.
type JournalSummary struct {
	Digest crypto.Hash
	Length uint64
}
