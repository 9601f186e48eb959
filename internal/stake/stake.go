// Package stake records bonded attestations against reports and settles them
// once the report is finalized.
package stake

import (
	"fmt"

	"github.com/eigerco/relief/internal/clock"
	"github.com/eigerco/relief/internal/common"
	"github.com/eigerco/relief/internal/events"
	"github.com/eigerco/relief/internal/identity"
	"github.com/eigerco/relief/internal/report"
	"github.com/eigerco/relief/internal/store"
	"github.com/eigerco/relief/pkg/db"
)

// ID identifies a stake by its report and its position within the report.
type ID struct {
	ReportID uint64
	Index    uint32
}

func (id ID) String() string {
	return fmt.Sprintf("%d/%d", id.ReportID, id.Index)
}

type Stake struct {
	ReportID  uint64
	Index     uint32
	Staker    identity.AccountID
	Amount    common.Amount
	Settled   bool
	Rewarded  bool
	At        clock.Timestamp
	SettledAt clock.Timestamp
}

func (s Stake) ID() ID {
	return ID{ReportID: s.ReportID, Index: s.Index}
}

type SettlementResult struct {
	Stake    ID
	Staker   identity.AccountID
	Amount   common.Amount
	Rewarded bool
}

// Breakdown aggregates the stakes of one staker on one report.
type Breakdown struct {
	Staker identity.AccountID
	Total  common.Amount
	Count  uint32
}

// settlement marks a report whose stakes were settled.
type settlement struct {
	ReportID uint64
	Valid    bool
	Count    uint32
	At       clock.Timestamp
}

// Policy decides whether a settled stake earns a reward.
type Policy interface {
	Rewarded(s Stake, outcomeValid bool) bool
}

// NoSlash returns every bond and never rewards or penalizes.
type NoSlash struct{}

func (NoSlash) Rewarded(Stake, bool) bool { return false }

type Ledger struct {
	reports  *report.Registry
	minStake common.Amount
	policy   Policy
}

// NewLedger builds a stake ledger. A minStake of zero is treated as one unit.
func NewLedger(reports *report.Registry, minStake common.Amount, policy Policy) *Ledger {
	if minStake == 0 {
		minStake = 1
	}
	if policy == nil {
		policy = NoSlash{}
	}
	return &Ledger{reports: reports, minStake: minStake, policy: policy}
}

func (l *Ledger) MinStake() common.Amount {
	return l.minStake
}

// Stake bonds amount from staker to an open report. Every call creates a new
// stake record, also for repeat stakers.
func (l *Ledger) Stake(txn *store.Txn, reportID uint64, staker identity.AccountID, amount common.Amount) (ID, error) {
	if amount == 0 || amount < l.minStake {
		return ID{}, fmt.Errorf("stake %s on report %d: %w", amount, reportID, common.ErrInvalidAmount)
	}
	if staker.IsZero() {
		return ID{}, fmt.Errorf("stake on report %d: %w", reportID, common.ErrInvalidIdentity)
	}

	index, err := l.reports.AddStake(txn, reportID, amount)
	if err != nil {
		return ID{}, err
	}

	s := Stake{
		ReportID: reportID,
		Index:    index,
		Staker:   staker,
		Amount:   amount,
		At:       txn.Now(),
	}
	if err := store.Put(txn, store.ChildKey(store.PrefixStake, reportID, index), s); err != nil {
		return ID{}, err
	}

	txn.Emit(events.Event{Kind: events.StakeRecorded, EntityID: reportID, Actor: staker}.WithAmount(amount))
	return s.ID(), nil
}

// Settle settles every stake of a finalized report exactly once.
func (l *Ledger) Settle(txn *store.Txn, reportID uint64, outcomeValid bool) ([]SettlementResult, error) {
	rep, err := l.reports.Get(txn, reportID)
	if err != nil {
		return nil, err
	}
	if rep.State != report.Finalized {
		return nil, fmt.Errorf("settle report %d: %w", reportID, common.ErrReportOpen)
	}
	markerKey := store.IDKey(store.PrefixSettlement, reportID)
	settled, err := store.Has(txn, markerKey)
	if err != nil {
		return nil, err
	}
	if settled {
		return nil, fmt.Errorf("settle report %d: %w", reportID, common.ErrAlreadySettled)
	}

	stakes, err := l.collect(txn, reportID)
	if err != nil {
		return nil, err
	}

	results := make([]SettlementResult, 0, len(stakes))
	for _, s := range stakes {
		if s.Settled {
			continue
		}
		s.Settled = true
		s.Rewarded = l.policy.Rewarded(s, outcomeValid)
		s.SettledAt = txn.Now()
		if err := store.Put(txn, store.ChildKey(store.PrefixStake, reportID, s.Index), s); err != nil {
			return nil, err
		}
		results = append(results, SettlementResult{
			Stake:    s.ID(),
			Staker:   s.Staker,
			Amount:   s.Amount,
			Rewarded: s.Rewarded,
		})
		txn.Emit(events.Event{Kind: events.StakeSettled, EntityID: reportID, Actor: s.Staker}.
			WithAmount(s.Amount).WithOutcome(s.Rewarded))
	}

	marker := settlement{ReportID: reportID, Valid: outcomeValid, Count: uint32(len(results)), At: txn.Now()}
	if err := store.Put(txn, markerKey, marker); err != nil {
		return nil, err
	}
	return results, nil
}

// Stakes returns every stake on a report in the order they were made.
func (l *Ledger) Stakes(rd db.Reader, reportID uint64) ([]Stake, error) {
	if _, err := l.reports.Get(rd, reportID); err != nil {
		return nil, err
	}
	return l.collect(rd, reportID)
}

// Breakdown aggregates stakes per staker, in order of each staker's first stake.
func (l *Ledger) Breakdown(rd db.Reader, reportID uint64) ([]Breakdown, error) {
	stakes, err := l.Stakes(rd, reportID)
	if err != nil {
		return nil, err
	}

	var out []Breakdown
	pos := make(map[identity.AccountID]int)
	for _, s := range stakes {
		i, ok := pos[s.Staker]
		if !ok {
			i = len(out)
			pos[s.Staker] = i
			out = append(out, Breakdown{Staker: s.Staker})
		}
		total, err := out[i].Total.Add(s.Amount)
		if err != nil {
			return nil, err
		}
		out[i].Total = total
		out[i].Count++
	}
	return out, nil
}

func (l *Ledger) collect(rd db.Reader, reportID uint64) ([]Stake, error) {
	start, end := store.ParentRange(store.PrefixStake, reportID)
	stakes, err := store.Collect[Stake](rd, start, end)
	if err != nil {
		return nil, fmt.Errorf("stakes of report %d: %w", reportID, err)
	}
	return stakes, nil
}
