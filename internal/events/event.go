// Package events defines the records appended to the journal for every
// committed mutation.
package events

import (
	"sync"

	"github.com/eigerco/relief/internal/clock"
	"github.com/eigerco/relief/internal/common"
	"github.com/eigerco/relief/internal/identity"
)

// Kind names what happened.
type Kind string

const (
	ReportSubmitted   Kind = "report.submitted"
	StakeRecorded     Kind = "stake.recorded"
	ReportFinalized   Kind = "report.finalized"
	StakeSettled      Kind = "stake.settled"
	VoucherIssued     Kind = "voucher.issued"
	VoucherRedeemed   Kind = "voucher.redeemed"
	FactTokenMinted   Kind = "fact_token.minted"
	CrisisCreated     Kind = "crisis.created"
	CrisisVerified    Kind = "crisis.verified"
	DonationReceived  Kind = "donation.received"
	FundsWithdrawn    Kind = "funds.withdrawn"
	CrisisClosed      Kind = "crisis.closed"
	ProofRecorded     Kind = "proof.recorded"
	ImpactTokenMinted Kind = "impact_token.minted"
)

// Event is one journal entry. EntityID is the id of the entity the kind refers
// to. Amount and Outcome are set only for kinds that carry them.
type Event struct {
	Seq      uint64
	Kind     Kind
	EntityID uint64
	Actor    identity.AccountID
	Amount   *common.Amount
	Outcome  *bool
	At       clock.Timestamp
}

// WithAmount returns a copy of e carrying amount.
func (e Event) WithAmount(amount common.Amount) Event {
	e.Amount = &amount
	return e
}

// WithOutcome returns a copy of e carrying a boolean outcome.
func (e Event) WithOutcome(outcome bool) Event {
	e.Outcome = &outcome
	return e
}

// Sink receives events after they are committed, in commit order.
// Publish must not call back into the ledger.
type Sink interface {
	Publish(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

func (f SinkFunc) Publish(e Event) { f(e) }

// Recorder keeps every published event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Kinds returns the kinds of the recorded events in order.
func (r *Recorder) Kinds() []Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Kind, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}
	return out
}
