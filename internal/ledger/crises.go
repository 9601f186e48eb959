package ledger

import (
	"github.com/eigerco/relief/internal/common"
	"github.com/eigerco/relief/internal/escrow"
	"github.com/eigerco/relief/internal/identity"
	"github.com/eigerco/relief/internal/store"
	"github.com/eigerco/relief/pkg/db"
	"github.com/eigerco/relief/pkg/log"
)

func (l *Ledger) CreateCrisis(nc escrow.NewCrisis) (uint64, error) {
	var id uint64
	err := l.apply("create crisis", func(txn *store.Txn) (err error) {
		id, err = l.escrow.CreateCrisis(txn, nc)
		return err
	})
	if err != nil {
		return 0, err
	}
	log.Ledger.Info().Uint64("crisis", id).Stringer("target", nc.TargetAmount).Msg("crisis created")
	return id, nil
}

func (l *Ledger) SetVerified(caller identity.AccountID, crisisID uint64, verified bool) error {
	return l.apply("verify crisis", func(txn *store.Txn) error {
		return l.escrow.SetVerified(txn, caller, crisisID, verified)
	})
}

func (l *Ledger) Donate(crisisID uint64, donor identity.AccountID, amount common.Amount, message string, anonymous bool) error {
	return l.apply("donate", func(txn *store.Txn) error {
		_, err := l.escrow.Donate(txn, crisisID, donor, amount, message, anonymous)
		return err
	})
}

func (l *Ledger) Withdraw(crisisID uint64, caller identity.AccountID, amount common.Amount) error {
	err := l.apply("withdraw", func(txn *store.Txn) error {
		return l.escrow.Withdraw(txn, crisisID, caller, amount)
	})
	if err != nil {
		return err
	}
	log.Ledger.Info().Uint64("crisis", crisisID).Stringer("amount", amount).Msg("funds withdrawn")
	return nil
}

func (l *Ledger) CloseCrisis(crisisID uint64, caller identity.AccountID) error {
	return l.apply("close crisis", func(txn *store.Txn) error {
		return l.escrow.Close(txn, crisisID, caller)
	})
}

// Crisis returns the stored crisis. Use Crisis.StateAt with Now for the
// effective state.
func (l *Ledger) Crisis(id uint64) (escrow.Crisis, error) {
	return read(l, func(rd db.Reader) (escrow.Crisis, error) {
		return l.escrow.Get(rd, id)
	})
}

func (l *Ledger) Donations(crisisID uint64) ([]escrow.DonationView, error) {
	return read(l, func(rd db.Reader) ([]escrow.DonationView, error) {
		return l.escrow.Donations(rd, crisisID)
	})
}

func (l *Ledger) ActiveCrises() ([]escrow.Crisis, error) {
	now := l.clock.Now()
	return read(l, func(rd db.Reader) ([]escrow.Crisis, error) {
		return l.escrow.Active(rd, now)
	})
}

func (l *Ledger) Available(crisisID uint64) (common.Amount, error) {
	return read(l, func(rd db.Reader) (common.Amount, error) {
		return l.escrow.Available(rd, crisisID)
	})
}
