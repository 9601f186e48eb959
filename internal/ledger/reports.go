package ledger

import (
	"github.com/eigerco/relief/internal/authority"
	"github.com/eigerco/relief/internal/common"
	"github.com/eigerco/relief/internal/identity"
	"github.com/eigerco/relief/internal/report"
	"github.com/eigerco/relief/internal/stake"
	"github.com/eigerco/relief/internal/store"
	"github.com/eigerco/relief/pkg/db"
	"github.com/eigerco/relief/pkg/log"
)

func (l *Ledger) SubmitReport(submitter identity.AccountID, contentRef string) (uint64, error) {
	var id uint64
	err := l.apply("submit report", func(txn *store.Txn) (err error) {
		id, err = l.reports.Submit(txn, submitter, contentRef)
		return err
	})
	if err != nil {
		return 0, err
	}
	log.Ledger.Info().Uint64("report", id).Str("submitter", submitter.Short()).Msg("report submitted")
	return id, nil
}

func (l *Ledger) Stake(reportID uint64, staker identity.AccountID, amount common.Amount) (stake.ID, error) {
	var id stake.ID
	err := l.apply("stake", func(txn *store.Txn) (err error) {
		id, err = l.stakes.Stake(txn, reportID, staker, amount)
		return err
	})
	return id, err
}

// Finalize is the authority's one-time verdict on a report.
func (l *Ledger) Finalize(caller identity.AccountID, reportID uint64, valid bool) (authority.Outcome, error) {
	var out authority.Outcome
	err := l.apply("finalize", func(txn *store.Txn) (err error) {
		out, err = l.authority.Finalize(txn, caller, reportID, valid)
		return err
	})
	if err != nil {
		return authority.Outcome{}, err
	}
	log.Ledger.Info().
		Uint64("report", reportID).
		Bool("valid", valid).
		Int("settled", len(out.Settlements)).
		Uint64("voucher", out.VoucherID).
		Msg("report finalized")
	return out, nil
}

func (l *Ledger) Report(id uint64) (report.Report, error) {
	return read(l, func(rd db.Reader) (report.Report, error) {
		return l.reports.Get(rd, id)
	})
}

func (l *Ledger) StakeTotal(id uint64) (common.Amount, error) {
	return read(l, func(rd db.Reader) (common.Amount, error) {
		return l.reports.StakeTotal(rd, id)
	})
}

func (l *Ledger) ReportState(id uint64) (report.State, error) {
	return read(l, func(rd db.Reader) (report.State, error) {
		return l.reports.State(rd, id)
	})
}

func (l *Ledger) Reports(filter report.Filter) ([]report.Report, error) {
	return read(l, func(rd db.Reader) ([]report.Report, error) {
		return l.reports.List(rd, filter)
	})
}

func (l *Ledger) ReportStats() (report.Stats, error) {
	return read(l, l.reports.Stats)
}

func (l *Ledger) Stakes(reportID uint64) ([]stake.Stake, error) {
	return read(l, func(rd db.Reader) ([]stake.Stake, error) {
		return l.stakes.Stakes(rd, reportID)
	})
}

func (l *Ledger) Breakdown(reportID uint64) ([]stake.Breakdown, error) {
	return read(l, func(rd db.Reader) ([]stake.Breakdown, error) {
		return l.stakes.Breakdown(rd, reportID)
	})
}
