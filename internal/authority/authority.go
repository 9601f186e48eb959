// Package authority is the single trusted decision point that finalizes
// reports and gates crisis verification. The role is fixed when the ledger is
// built; there is no rotation and no appeal.
package authority

import (
	"fmt"

	"github.com/eigerco/relief/internal/claims"
	"github.com/eigerco/relief/internal/common"
	"github.com/eigerco/relief/internal/identity"
	"github.com/eigerco/relief/internal/report"
	"github.com/eigerco/relief/internal/stake"
	"github.com/eigerco/relief/internal/store"
)

type Authority struct {
	account identity.AccountID
	reports *report.Registry
	stakes  *stake.Ledger
	claims  *claims.Registry
}

func New(account identity.AccountID, reports *report.Registry, stakes *stake.Ledger, tokens *claims.Registry) (*Authority, error) {
	if account.IsZero() {
		return nil, fmt.Errorf("authority account: %w", common.ErrInvalidIdentity)
	}
	return &Authority{account: account, reports: reports, stakes: stakes, claims: tokens}, nil
}

func (a *Authority) Account() identity.AccountID {
	return a.account
}

func (a *Authority) IsAuthority(caller identity.AccountID) bool {
	return caller == a.account
}

// Authorize fails with ErrUnauthorized unless caller holds the authority role.
func (a *Authority) Authorize(caller identity.AccountID) error {
	if !a.IsAuthority(caller) {
		return fmt.Errorf("caller %s: %w", caller.Short(), common.ErrUnauthorized)
	}
	return nil
}

// Outcome is everything a successful finalization produced.
type Outcome struct {
	Report      report.Report
	Settlements []stake.SettlementResult
	// VoucherID and FactTokenID are zero when the report was found invalid.
	VoucherID   uint64
	FactTokenID uint64
}

// Finalize records the authority's verdict on a report, settles its stakes
// and, when valid, rewards the submitter with a voucher and a fact token.
func (a *Authority) Finalize(txn *store.Txn, caller identity.AccountID, reportID uint64, valid bool) (Outcome, error) {
	if err := a.Authorize(caller); err != nil {
		return Outcome{}, fmt.Errorf("finalize report %d: %w", reportID, err)
	}

	rep, err := a.reports.MarkFinalized(txn, reportID, valid, caller)
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{Report: rep}

	out.Settlements, err = a.stakes.Settle(txn, reportID, valid)
	if err != nil {
		return Outcome{}, err
	}
	if !valid {
		return out, nil
	}

	out.VoucherID, err = a.claims.IssueVoucher(txn, rep.Submitter, reportID)
	if err != nil {
		return Outcome{}, err
	}
	out.FactTokenID, err = a.claims.MintFactToken(txn, rep.Submitter, reportID)
	if err != nil {
		return Outcome{}, err
	}
	return out, nil
}
