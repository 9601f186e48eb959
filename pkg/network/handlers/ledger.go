package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/eigerco/relief/internal/claims"
	"github.com/eigerco/relief/internal/common"
	"github.com/eigerco/relief/internal/escrow"
	"github.com/eigerco/relief/internal/events"
	"github.com/eigerco/relief/internal/identity"
	"github.com/eigerco/relief/internal/ledger"
	"github.com/eigerco/relief/internal/report"
	"github.com/eigerco/relief/internal/stake"
	"github.com/eigerco/relief/pkg/network/protocol"
)

// LedgerService exposes ledger operations to remote callers. The caller of
// every operation is the peer behind the connection.
type LedgerService struct {
	ledger  *ledger.Ledger
	timeout time.Duration
}

func NewLedgerService(l *ledger.Ledger, timeout time.Duration) *LedgerService {
	return &LedgerService{ledger: l, timeout: timeout}
}

func register[Req, Resp any](reg *protocol.Registry, kind protocol.StreamKind, timeout time.Duration, fn func(context.Context, identity.AccountID, Req) (Resp, error)) {
	reg.RegisterHandler(kind, Unary(kind, timeout, fn))
}

// Register installs a handler for every ledger stream kind.
func (s *LedgerService) Register(reg *protocol.Registry) {
	l, t := s.ledger, s.timeout

	register(reg, protocol.StreamKindSubmitReport, t, func(_ context.Context, caller identity.AccountID, req SubmitReportRequest) (ID, error) {
		id, err := l.SubmitReport(caller, req.ContentRef)
		return ID{id}, err
	})
	register(reg, protocol.StreamKindStake, t, func(_ context.Context, caller identity.AccountID, req StakeRequest) (stake.ID, error) {
		return l.Stake(req.ReportID, caller, req.Amount)
	})
	register(reg, protocol.StreamKindFinalize, t, func(_ context.Context, caller identity.AccountID, req FinalizeRequest) (FinalizeResponse, error) {
		out, err := l.Finalize(caller, req.ReportID, req.Valid)
		if err != nil {
			return FinalizeResponse{}, err
		}
		return FinalizeResponse{
			Report:      out.Report,
			Settled:     uint32(len(out.Settlements)),
			VoucherID:   out.VoucherID,
			FactTokenID: out.FactTokenID,
		}, nil
	})
	register(reg, protocol.StreamKindGetReport, t, func(_ context.Context, _ identity.AccountID, req ID) (report.Report, error) {
		return l.Report(req.ID)
	})
	register(reg, protocol.StreamKindListReports, t, func(_ context.Context, _ identity.AccountID, req ListReportsRequest) ([]report.Report, error) {
		return l.Reports(req.Filter)
	})
	register(reg, protocol.StreamKindReportStats, t, func(_ context.Context, _ identity.AccountID, _ Empty) (report.Stats, error) {
		return l.ReportStats()
	})
	register(reg, protocol.StreamKindStakes, t, func(_ context.Context, _ identity.AccountID, req ID) ([]stake.Stake, error) {
		return l.Stakes(req.ID)
	})
	register(reg, protocol.StreamKindBreakdown, t, func(_ context.Context, _ identity.AccountID, req ID) ([]stake.Breakdown, error) {
		return l.Breakdown(req.ID)
	})

	register(reg, protocol.StreamKindCreateCrisis, t, func(_ context.Context, caller identity.AccountID, req CreateCrisisRequest) (ID, error) {
		id, err := l.CreateCrisis(escrow.NewCrisis{
			Organizer:       caller,
			Title:           req.Title,
			Description:     req.Description,
			Location:        req.Location,
			ContentRef:      req.ContentRef,
			TargetAmount:    req.TargetAmount,
			DurationSeconds: req.DurationSeconds,
		})
		return ID{id}, err
	})
	register(reg, protocol.StreamKindSetVerified, t, func(_ context.Context, caller identity.AccountID, req SetVerifiedRequest) (Empty, error) {
		return Empty{}, l.SetVerified(caller, req.CrisisID, req.Verified)
	})
	register(reg, protocol.StreamKindDonate, t, func(_ context.Context, caller identity.AccountID, req DonateRequest) (Empty, error) {
		return Empty{}, l.Donate(req.CrisisID, caller, req.Amount, req.Message, req.Anonymous)
	})
	register(reg, protocol.StreamKindWithdraw, t, func(_ context.Context, caller identity.AccountID, req WithdrawRequest) (Empty, error) {
		return Empty{}, l.Withdraw(req.CrisisID, caller, req.Amount)
	})
	register(reg, protocol.StreamKindCloseCrisis, t, func(_ context.Context, caller identity.AccountID, req ID) (Empty, error) {
		return Empty{}, l.CloseCrisis(req.ID, caller)
	})
	register(reg, protocol.StreamKindGetCrisis, t, func(_ context.Context, _ identity.AccountID, req ID) (escrow.Crisis, error) {
		return l.Crisis(req.ID)
	})
	register(reg, protocol.StreamKindDonations, t, func(_ context.Context, _ identity.AccountID, req ID) ([]escrow.DonationView, error) {
		return l.Donations(req.ID)
	})
	register(reg, protocol.StreamKindActiveCrises, t, func(_ context.Context, _ identity.AccountID, _ Empty) ([]escrow.Crisis, error) {
		return l.ActiveCrises()
	})

	register(reg, protocol.StreamKindIssueVoucher, t, func(_ context.Context, caller identity.AccountID, req IssueVoucherRequest) (ID, error) {
		if caller != l.Authority() {
			return ID{}, fmt.Errorf("issue voucher: %w", common.ErrUnauthorized)
		}
		id, err := l.IssueVoucher(req.Holder)
		return ID{id}, err
	})
	register(reg, protocol.StreamKindRedeem, t, func(_ context.Context, caller identity.AccountID, req ID) (Empty, error) {
		return Empty{}, l.Redeem(req.ID, caller)
	})
	register(reg, protocol.StreamKindGetVoucher, t, func(_ context.Context, _ identity.AccountID, req ID) (claims.Voucher, error) {
		return l.Voucher(req.ID)
	})
	register(reg, protocol.StreamKindRecordProof, t, func(_ context.Context, _ identity.AccountID, req claims.ProofOfHelp) (ID, error) {
		id, err := l.RecordProof(req)
		return ID{id}, err
	})
	register(reg, protocol.StreamKindHoldings, t, func(_ context.Context, caller identity.AccountID, req HoldingsRequest) (claims.Holdings, error) {
		account := req.Account
		if account.IsZero() {
			account = caller
		}
		return l.Holdings(account)
	})

	register(reg, protocol.StreamKindEvents, t, func(_ context.Context, _ identity.AccountID, req EventsRequest) ([]events.Event, error) {
		return l.Events(req.From, int(req.Limit))
	})
	register(reg, protocol.StreamKindJournalDigest, t, func(_ context.Context, _ identity.AccountID, _ Empty) (ledger.JournalSummary, error) {
		return l.JournalDigest()
	})
}
