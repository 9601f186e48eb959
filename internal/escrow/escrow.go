package escrow

import (
	"fmt"

	"github.com/eigerco/relief/internal/clock"
	"github.com/eigerco/relief/internal/common"
	"github.com/eigerco/relief/internal/events"
	"github.com/eigerco/relief/internal/identity"
	"github.com/eigerco/relief/internal/safemath"
	"github.com/eigerco/relief/internal/store"
	"github.com/eigerco/relief/pkg/db"
)

// Authorizer checks that a caller holds the verification role.
type Authorizer interface {
	Authorize(caller identity.AccountID) error
}

type Policy struct {
	// RequireVerified rejects donations to crises the authority has not verified.
	RequireVerified bool
}

type Escrow struct {
	auth   Authorizer
	policy Policy
}

func New(auth Authorizer, policy Policy) *Escrow {
	return &Escrow{auth: auth, policy: policy}
}

func (e *Escrow) CreateCrisis(txn *store.Txn, nc NewCrisis) (uint64, error) {
	if nc.Organizer.IsZero() {
		return 0, fmt.Errorf("create crisis: %w", common.ErrInvalidIdentity)
	}
	if nc.TargetAmount == 0 {
		return 0, fmt.Errorf("create crisis: %w", common.ErrInvalidTarget)
	}
	if nc.DurationSeconds <= 0 {
		return 0, fmt.Errorf("create crisis: duration %d: %w", nc.DurationSeconds, common.ErrInvalidDuration)
	}
	deadline, err := txn.Now().AddSeconds(uint64(nc.DurationSeconds))
	if err != nil {
		return 0, common.Wrap(common.ErrInvalidDuration, "create crisis: deadline", err)
	}

	id, err := store.NextID(txn, store.SeqCrisis)
	if err != nil {
		return 0, err
	}
	c := Crisis{
		ID:           id,
		Organizer:    nc.Organizer,
		Title:        nc.Title,
		Description:  nc.Description,
		Location:     nc.Location,
		ContentRef:   nc.ContentRef,
		TargetAmount: nc.TargetAmount,
		Deadline:     deadline,
		CreatedAt:    txn.Now(),
		State:        Active,
	}
	if err := e.put(txn, c); err != nil {
		return 0, err
	}

	txn.Emit(events.Event{Kind: events.CrisisCreated, EntityID: id, Actor: nc.Organizer}.WithAmount(nc.TargetAmount))
	return id, nil
}

// SetVerified sets the verification flag. Only the authority may call it.
func (e *Escrow) SetVerified(txn *store.Txn, caller identity.AccountID, id uint64, verified bool) error {
	if err := e.auth.Authorize(caller); err != nil {
		return fmt.Errorf("verify crisis %d: %w", id, err)
	}
	c, err := e.Get(txn, id)
	if err != nil {
		return err
	}
	if c.StateAt(txn.Now()) == Closed {
		return fmt.Errorf("verify crisis %d: %w", id, common.ErrCrisisClosed)
	}

	c.Verified = verified
	if err := e.put(txn, c); err != nil {
		return err
	}

	txn.Emit(events.Event{Kind: events.CrisisVerified, EntityID: id, Actor: caller}.WithOutcome(verified))
	return nil
}

// Donate records a donation. The donor of an anonymous donation is kept but
// left out of events and public views.
func (e *Escrow) Donate(txn *store.Txn, id uint64, donor identity.AccountID, amount common.Amount, message string, anonymous bool) (uint32, error) {
	if amount == 0 {
		return 0, fmt.Errorf("donate to crisis %d: %w", id, common.ErrInvalidAmount)
	}
	if donor.IsZero() {
		return 0, fmt.Errorf("donate to crisis %d: %w", id, common.ErrInvalidIdentity)
	}
	c, err := e.Get(txn, id)
	if err != nil {
		return 0, err
	}
	if c.StateAt(txn.Now()) == Closed {
		return 0, fmt.Errorf("donate to crisis %d: %w", id, common.ErrCrisisClosed)
	}
	if e.policy.RequireVerified && !c.Verified {
		return 0, fmt.Errorf("donate to crisis %d: %w", id, common.ErrCrisisNotVerified)
	}

	raised, err := c.RaisedAmount.Add(amount)
	if err != nil {
		return 0, fmt.Errorf("donate to crisis %d: %w", id, err)
	}
	count, ok := safemath.Add32(c.DonationCount, 1)
	if !ok {
		return 0, common.Wrap(common.ErrInvalidAmount, fmt.Sprintf("crisis %d donation count", id), safemath.ErrOverflow)
	}

	d := Donation{
		CrisisID:  id,
		Index:     c.DonationCount,
		Donor:     donor,
		Amount:    amount,
		Message:   message,
		Anonymous: anonymous,
		At:        txn.Now(),
	}
	c.RaisedAmount = raised
	c.DonationCount = count
	if err := e.put(txn, c); err != nil {
		return 0, err
	}
	if err := store.Put(txn, store.ChildKey(store.PrefixDonation, id, d.Index), d); err != nil {
		return 0, err
	}

	actor := donor
	if anonymous {
		actor = identity.AccountID{}
	}
	txn.Emit(events.Event{Kind: events.DonationReceived, EntityID: id, Actor: actor}.WithAmount(amount))
	return d.Index, nil
}

// Withdraw pays amount out to the organizer. It is allowed after the crisis
// closes. A crisis found past its deadline is persisted as closed.
func (e *Escrow) Withdraw(txn *store.Txn, id uint64, caller identity.AccountID, amount common.Amount) error {
	c, err := e.Get(txn, id)
	if err != nil {
		return err
	}
	if caller != c.Organizer {
		return fmt.Errorf("withdraw from crisis %d: %w", id, common.ErrUnauthorized)
	}
	if amount == 0 {
		return fmt.Errorf("withdraw from crisis %d: %w", id, common.ErrInvalidAmount)
	}
	if amount > c.Available() {
		return fmt.Errorf("withdraw %s from crisis %d with %s available: %w", amount, id, c.Available(), common.ErrInsufficientFunds)
	}

	c.Withdrawn += amount
	if c.State == Active && c.StateAt(txn.Now()) == Closed {
		e.markClosed(txn, &c, c.Deadline, identity.AccountID{})
	}
	if err := e.put(txn, c); err != nil {
		return err
	}

	txn.Emit(events.Event{Kind: events.FundsWithdrawn, EntityID: id, Actor: caller}.WithAmount(amount))
	return nil
}

// Close ends a crisis early. Only the organizer may close it.
func (e *Escrow) Close(txn *store.Txn, id uint64, caller identity.AccountID) error {
	c, err := e.Get(txn, id)
	if err != nil {
		return err
	}
	if caller != c.Organizer {
		return fmt.Errorf("close crisis %d: %w", id, common.ErrUnauthorized)
	}
	if c.StateAt(txn.Now()) == Closed {
		return fmt.Errorf("close crisis %d: %w", id, common.ErrCrisisClosed)
	}

	e.markClosed(txn, &c, txn.Now(), caller)
	return e.put(txn, c)
}

func (e *Escrow) markClosed(txn *store.Txn, c *Crisis, at clock.Timestamp, actor identity.AccountID) {
	c.State = Closed
	c.ClosedAt = at
	txn.Emit(events.Event{Kind: events.CrisisClosed, EntityID: c.ID, Actor: actor})
}

func (e *Escrow) Get(rd db.Reader, id uint64) (Crisis, error) {
	c, found, err := store.Get[Crisis](rd, store.IDKey(store.PrefixCrisis, id))
	if err != nil {
		return Crisis{}, err
	}
	if !found {
		return Crisis{}, fmt.Errorf("crisis %d: %w", id, common.ErrUnknownCrisis)
	}
	return c, nil
}

func (e *Escrow) Available(rd db.Reader, id uint64) (common.Amount, error) {
	c, err := e.Get(rd, id)
	if err != nil {
		return 0, err
	}
	return c.Available(), nil
}

// Donations returns the public view of a crisis' donations in the order received.
func (e *Escrow) Donations(rd db.Reader, id uint64) ([]DonationView, error) {
	if _, err := e.Get(rd, id); err != nil {
		return nil, err
	}
	start, end := store.ParentRange(store.PrefixDonation, id)
	var out []DonationView
	err := store.Scan(rd, start, end, func(_ []byte, d Donation) error {
		out = append(out, d.View())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("donations of crisis %d: %w", id, err)
	}
	return out, nil
}

// Active lists the crises still accepting donations at now.
func (e *Escrow) Active(rd db.Reader, now clock.Timestamp) ([]Crisis, error) {
	start, end := store.PrefixRange([]byte{store.PrefixCrisis})
	var out []Crisis
	err := store.Scan(rd, start, end, func(_ []byte, c Crisis) error {
		if c.StateAt(now) == Active {
			out = append(out, c)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("active crises: %w", err)
	}
	return out, nil
}

func (e *Escrow) put(txn *store.Txn, c Crisis) error {
	return store.Put(txn, store.IDKey(store.PrefixCrisis, c.ID), c)
}
