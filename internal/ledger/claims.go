package ledger

import (
	"github.com/eigerco/relief/internal/claims"
	"github.com/eigerco/relief/internal/crypto"
	"github.com/eigerco/relief/internal/identity"
	"github.com/eigerco/relief/internal/store"
	"github.com/eigerco/relief/pkg/db"
)

// IssueVoucher mints a voucher that is not tied to a report.
func (l *Ledger) IssueVoucher(holder identity.AccountID) (uint64, error) {
	var id uint64
	err := l.apply("issue voucher", func(txn *store.Txn) (err error) {
		id, err = l.claims.IssueVoucher(txn, holder, 0)
		return err
	})
	return id, err
}

func (l *Ledger) Redeem(voucherID uint64, caller identity.AccountID) error {
	return l.apply("redeem", func(txn *store.Txn) error {
		return l.claims.Redeem(txn, voucherID, caller)
	})
}

// RecordProof verifies and records a proof of help with the ledger's
// verifier and returns the impact token minted for it.
func (l *Ledger) RecordProof(proof claims.ProofOfHelp) (uint64, error) {
	var id uint64
	err := l.apply("record proof", func(txn *store.Txn) (err error) {
		id, err = l.claims.RecordProof(txn, proof, l.verifier)
		return err
	})
	return id, err
}

func (l *Ledger) Voucher(id uint64) (claims.Voucher, error) {
	return read(l, func(rd db.Reader) (claims.Voucher, error) {
		return l.claims.Voucher(rd, id)
	})
}

func (l *Ledger) Proof(key crypto.Hash) (claims.ProofOfHelp, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.claims.Proof(l.kv, key)
}

func (l *Ledger) Holdings(account identity.AccountID) (claims.Holdings, error) {
	return read(l, func(rd db.Reader) (claims.Holdings, error) {
		return l.claims.Holdings(rd, account)
	})
}
