// Package escrow holds donations for crisis campaigns until the organizer
// pulls them out. Deadlines are checked when an operation touches a crisis;
// nothing closes a crisis in the background.
package escrow

import (
	"github.com/eigerco/relief/internal/clock"
	"github.com/eigerco/relief/internal/common"
	"github.com/eigerco/relief/internal/identity"
)

type State uint8

const (
	Active State = iota
	Closed
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

type Crisis struct {
	ID            uint64
	Organizer     identity.AccountID
	Title         string
	Description   string
	Location      string
	ContentRef    string
	TargetAmount  common.Amount
	RaisedAmount  common.Amount
	Withdrawn     common.Amount
	DonationCount uint32
	Deadline      clock.Timestamp
	CreatedAt     clock.Timestamp
	Verified      bool
	State         State
	ClosedAt      clock.Timestamp
}

// StateAt is the effective state at now. A crisis whose deadline has passed
// is closed even if that has not been persisted yet.
func (c Crisis) StateAt(now clock.Timestamp) State {
	if c.State == Closed || now >= c.Deadline {
		return Closed
	}
	return Active
}

// Available is what the organizer can still withdraw.
func (c Crisis) Available() common.Amount {
	if c.Withdrawn >= c.RaisedAmount {
		return 0
	}
	return c.RaisedAmount - c.Withdrawn
}

// Progress is raised/target as a percentage, capped at 100.
func (c Crisis) Progress() uint8 {
	if c.TargetAmount == 0 || c.RaisedAmount >= c.TargetAmount {
		return 100
	}
	var p common.Amount
	if c.RaisedAmount <= common.Amount(^uint64(0)/100) {
		p = c.RaisedAmount * 100 / c.TargetAmount
	} else {
		p = c.RaisedAmount / (c.TargetAmount / 100)
	}
	// below target is never reported as complete
	return uint8(min(p, 99))
}

// TimeRemaining is the number of seconds until the deadline, zero once closed.
func (c Crisis) TimeRemaining(now clock.Timestamp) uint64 {
	if c.StateAt(now) == Closed {
		return 0
	}
	return now.Until(c.Deadline)
}

type Donation struct {
	CrisisID  uint64
	Index     uint32
	Donor     identity.AccountID
	Amount    common.Amount
	Message   string
	Anonymous bool
	At        clock.Timestamp
}

// DonationView is the public form of a donation. Donor is nil for anonymous
// donations.
type DonationView struct {
	CrisisID  uint64
	Index     uint32
	Donor     *identity.AccountID
	Amount    common.Amount
	Message   string
	Anonymous bool
	At        clock.Timestamp
}

// View hides the donor of an anonymous donation.
func (d Donation) View() DonationView {
	v := DonationView{
		CrisisID:  d.CrisisID,
		Index:     d.Index,
		Amount:    d.Amount,
		Message:   d.Message,
		Anonymous: d.Anonymous,
		At:        d.At,
	}
	if !d.Anonymous {
		donor := d.Donor
		v.Donor = &donor
	}
	return v
}

// NewCrisis holds the arguments of CreateCrisis.
type NewCrisis struct {
	Organizer       identity.AccountID
	Title           string
	Description     string
	Location        string
	ContentRef      string
	TargetAmount    common.Amount
	DurationSeconds int64
}
