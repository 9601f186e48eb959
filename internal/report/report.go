// Package report owns the lifecycle of crisis reports: submission, staking
// while open, and the single transition to finalized.
package report

import (
	"fmt"
	"strings"

	"github.com/eigerco/relief/internal/clock"
	"github.com/eigerco/relief/internal/common"
	"github.com/eigerco/relief/internal/events"
	"github.com/eigerco/relief/internal/identity"
	"github.com/eigerco/relief/internal/safemath"
	"github.com/eigerco/relief/internal/store"
	"github.com/eigerco/relief/pkg/db"
)

type State uint8

const (
	Open State = iota
	Finalized
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case Finalized:
		return "finalized"
	default:
		return "unknown"
	}
}

type Report struct {
	ID          uint64
	Submitter   identity.AccountID
	ContentRef  string
	StakeTotal  common.Amount
	StakerCount uint32
	State       State
	// Valid is meaningful only once State is Finalized.
	Valid       bool
	CreatedAt   clock.Timestamp
	FinalizedAt clock.Timestamp
}

// Verdict is the admin-facing label: pending, verified or invalid.
func (r Report) Verdict() string {
	switch {
	case r.State == Open:
		return "pending"
	case r.Valid:
		return "verified"
	default:
		return "invalid"
	}
}

type Registry struct{}

func NewRegistry() *Registry {
	return &Registry{}
}

// Submit records a new open report and returns its id. Identical content
// references are accepted as independent reports.
func (r *Registry) Submit(txn *store.Txn, submitter identity.AccountID, contentRef string) (uint64, error) {
	if submitter.IsZero() {
		return 0, fmt.Errorf("submit report: %w", common.ErrInvalidIdentity)
	}
	if strings.TrimSpace(contentRef) == "" {
		return 0, fmt.Errorf("submit report: %w", common.ErrEmptyContentRef)
	}

	id, err := store.NextID(txn, store.SeqReport)
	if err != nil {
		return 0, err
	}
	rep := Report{
		ID:         id,
		Submitter:  submitter,
		ContentRef: contentRef,
		State:      Open,
		CreatedAt:  txn.Now(),
	}
	if err := store.Put(txn, store.IDKey(store.PrefixReport, id), rep); err != nil {
		return 0, err
	}

	txn.Emit(events.Event{Kind: events.ReportSubmitted, EntityID: id, Actor: submitter})
	return id, nil
}

func (r *Registry) Get(rd db.Reader, id uint64) (Report, error) {
	rep, found, err := store.Get[Report](rd, store.IDKey(store.PrefixReport, id))
	if err != nil {
		return Report{}, err
	}
	if !found {
		return Report{}, fmt.Errorf("report %d: %w", id, common.ErrUnknownReport)
	}
	return rep, nil
}

func (r *Registry) StakeTotal(rd db.Reader, id uint64) (common.Amount, error) {
	rep, err := r.Get(rd, id)
	if err != nil {
		return 0, err
	}
	return rep.StakeTotal, nil
}

func (r *Registry) State(rd db.Reader, id uint64) (State, error) {
	rep, err := r.Get(rd, id)
	if err != nil {
		return 0, err
	}
	return rep.State, nil
}

// AddStake adds amount to an open report's total and returns the index the
// new stake record takes within the report.
func (r *Registry) AddStake(txn *store.Txn, id uint64, amount common.Amount) (uint32, error) {
	rep, err := r.Get(txn, id)
	if err != nil {
		return 0, err
	}
	if rep.State != Open {
		return 0, fmt.Errorf("report %d: %w", id, common.ErrReportClosed)
	}

	total, err := rep.StakeTotal.Add(amount)
	if err != nil {
		return 0, fmt.Errorf("report %d stake total: %w", id, err)
	}
	count, ok := safemath.Add32(rep.StakerCount, 1)
	if !ok {
		return 0, common.Wrap(common.ErrInvalidAmount, fmt.Sprintf("report %d staker count", id), safemath.ErrOverflow)
	}

	index := rep.StakerCount
	rep.StakeTotal = total
	rep.StakerCount = count
	if err := store.Put(txn, store.IDKey(store.PrefixReport, id), rep); err != nil {
		return 0, err
	}
	return index, nil
}

// MarkFinalized moves an open report to Finalized with the given outcome.
func (r *Registry) MarkFinalized(txn *store.Txn, id uint64, valid bool, actor identity.AccountID) (Report, error) {
	rep, err := r.Get(txn, id)
	if err != nil {
		return Report{}, err
	}
	if rep.State == Finalized {
		return Report{}, fmt.Errorf("report %d: %w", id, common.ErrAlreadyFinalized)
	}

	rep.State = Finalized
	rep.Valid = valid
	rep.FinalizedAt = txn.Now()
	if err := store.Put(txn, store.IDKey(store.PrefixReport, id), rep); err != nil {
		return Report{}, err
	}

	txn.Emit(events.Event{Kind: events.ReportFinalized, EntityID: id, Actor: actor}.WithOutcome(valid))
	return rep, nil
}
