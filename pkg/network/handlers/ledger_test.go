package handlers_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/relief/internal/claims"
	"github.com/eigerco/relief/internal/common"
	"github.com/eigerco/relief/internal/escrow"
	"github.com/eigerco/relief/internal/events"
	"github.com/eigerco/relief/internal/identity"
	"github.com/eigerco/relief/internal/ledger"
	"github.com/eigerco/relief/internal/report"
	"github.com/eigerco/relief/internal/stake"
	"github.com/eigerco/relief/internal/testutils"
	"github.com/eigerco/relief/pkg/network/handlers"
	"github.com/eigerco/relief/pkg/network/mocks"
	"github.com/eigerco/relief/pkg/network/protocol"
	"github.com/eigerco/relief/pkg/serialization/codec/canon"
)

type service struct {
	registry  *protocol.Registry
	authority identity.AccountID
}

func newService(t *testing.T) service {
	authority := testutils.RandomAccount(t)
	l, err := ledger.New(testutils.NewStore(t), ledger.Config{Authority: authority})
	require.NoError(t, err)

	reg := protocol.NewRegistry()
	handlers.NewLedgerService(l, time.Second).Register(reg)
	return service{registry: reg, authority: authority}
}

// invoke runs one request through the registered handler the way a remote
// peer would.
func invoke[Req, Resp any](t *testing.T, s service, kind protocol.StreamKind, caller identity.AccountID, req Req) (Resp, error) {
	t.Helper()
	var result Resp

	h, err := s.registry.GetHandler(kind)
	require.NoError(t, err)
	stream := mocks.NewBufferStream(frame(t, req))
	require.NoError(t, h.HandleStream(context.Background(), stream, caller))

	resp := readResponse(t, stream)
	if err := common.FromCode(resp.Code, resp.Message); err != nil {
		return result, err
	}
	require.NoError(t, canon.Unmarshal(resp.Body, &result))
	return result, nil
}

func TestEveryStreamKindIsServed(t *testing.T) {
	s := newService(t)
	for kind := protocol.StreamKindSubmitReport; kind <= protocol.StreamKindJournalDigest; kind++ {
		_, err := s.registry.GetHandler(kind)
		assert.NoError(t, err, kind.String())
	}
}

func TestReportFlowOverHandlers(t *testing.T) {
	s := newService(t)
	submitter, staker := testutils.RandomAccount(t), testutils.RandomAccount(t)

	id, err := invoke[handlers.SubmitReportRequest, handlers.ID](t, s, protocol.StreamKindSubmitReport, submitter, handlers.SubmitReportRequest{ContentRef: "cid:abc"})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id.ID)

	stakeID, err := invoke[handlers.StakeRequest, stake.ID](t, s, protocol.StreamKindStake, staker, handlers.StakeRequest{ReportID: id.ID, Amount: 10})
	require.NoError(t, err)
	assert.Equal(t, stake.ID{ReportID: 1, Index: 0}, stakeID)

	_, err = invoke[handlers.FinalizeRequest, handlers.FinalizeResponse](t, s, protocol.StreamKindFinalize, staker, handlers.FinalizeRequest{ReportID: id.ID, Valid: true})
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	out, err := invoke[handlers.FinalizeRequest, handlers.FinalizeResponse](t, s, protocol.StreamKindFinalize, s.authority, handlers.FinalizeRequest{ReportID: id.ID, Valid: true})
	require.NoError(t, err)
	assert.Equal(t, uint32(1), out.Settled)
	assert.Equal(t, uint64(1), out.VoucherID)
	assert.Equal(t, report.Finalized, out.Report.State)

	rep, err := invoke[handlers.ID, report.Report](t, s, protocol.StreamKindGetReport, staker, handlers.ID{ID: 1})
	require.NoError(t, err)
	assert.Equal(t, submitter, rep.Submitter)
	assert.Equal(t, common.Amount(10), rep.StakeTotal)

	list, err := invoke[handlers.ListReportsRequest, []report.Report](t, s, protocol.StreamKindListReports, staker, handlers.ListReportsRequest{Filter: report.Verified})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	stakes, err := invoke[handlers.ID, []stake.Stake](t, s, protocol.StreamKindStakes, staker, handlers.ID{ID: 1})
	require.NoError(t, err)
	require.Len(t, stakes, 1)
	assert.True(t, stakes[0].Settled)

	holdings, err := invoke[handlers.HoldingsRequest, claims.Holdings](t, s, protocol.StreamKindHoldings, submitter, handlers.HoldingsRequest{})
	require.NoError(t, err)
	assert.Len(t, holdings.Vouchers, 1)

	_, err = invoke[handlers.ID, handlers.Empty](t, s, protocol.StreamKindRedeem, staker, handlers.ID{ID: 1})
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	_, err = invoke[handlers.ID, handlers.Empty](t, s, protocol.StreamKindRedeem, submitter, handlers.ID{ID: 1})
	require.NoError(t, err)

	_, err = invoke[handlers.ID, report.Report](t, s, protocol.StreamKindGetReport, staker, handlers.ID{ID: 42})
	assert.ErrorIs(t, err, common.ErrUnknownEntity)
}

func TestCrisisFlowOverHandlers(t *testing.T) {
	s := newService(t)
	organizer, donor := testutils.RandomAccount(t), testutils.RandomAccount(t)

	id, err := invoke[handlers.CreateCrisisRequest, handlers.ID](t, s, protocol.StreamKindCreateCrisis, organizer, handlers.CreateCrisisRequest{
		Title:           "Flood",
		TargetAmount:    100,
		DurationSeconds: 3600,
	})
	require.NoError(t, err)

	_, err = invoke[handlers.SetVerifiedRequest, handlers.Empty](t, s, protocol.StreamKindSetVerified, organizer, handlers.SetVerifiedRequest{CrisisID: id.ID, Verified: true})
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	_, err = invoke[handlers.SetVerifiedRequest, handlers.Empty](t, s, protocol.StreamKindSetVerified, s.authority, handlers.SetVerifiedRequest{CrisisID: id.ID, Verified: true})
	require.NoError(t, err)

	_, err = invoke[handlers.DonateRequest, handlers.Empty](t, s, protocol.StreamKindDonate, donor, handlers.DonateRequest{CrisisID: id.ID, Amount: 60, Anonymous: true})
	require.NoError(t, err)

	donations, err := invoke[handlers.ID, []escrow.DonationView](t, s, protocol.StreamKindDonations, donor, handlers.ID{ID: id.ID})
	require.NoError(t, err)
	require.Len(t, donations, 1)
	assert.Nil(t, donations[0].Donor)

	_, err = invoke[handlers.WithdrawRequest, handlers.Empty](t, s, protocol.StreamKindWithdraw, donor, handlers.WithdrawRequest{CrisisID: id.ID, Amount: 10})
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	_, err = invoke[handlers.WithdrawRequest, handlers.Empty](t, s, protocol.StreamKindWithdraw, organizer, handlers.WithdrawRequest{CrisisID: id.ID, Amount: 61})
	assert.ErrorIs(t, err, common.ErrInsufficientFunds)
	_, err = invoke[handlers.WithdrawRequest, handlers.Empty](t, s, protocol.StreamKindWithdraw, organizer, handlers.WithdrawRequest{CrisisID: id.ID, Amount: 60})
	require.NoError(t, err)

	crisis, err := invoke[handlers.ID, escrow.Crisis](t, s, protocol.StreamKindGetCrisis, donor, handlers.ID{ID: id.ID})
	require.NoError(t, err)
	assert.Equal(t, common.Amount(60), crisis.Withdrawn)
	assert.True(t, crisis.Verified)

	_, err = invoke[handlers.ID, handlers.Empty](t, s, protocol.StreamKindCloseCrisis, organizer, handlers.ID{ID: id.ID})
	require.NoError(t, err)
	active, err := invoke[handlers.Empty, []escrow.Crisis](t, s, protocol.StreamKindActiveCrises, donor, handlers.Empty{})
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestClaimsOverHandlers(t *testing.T) {
	s := newService(t)
	holder := testutils.RandomAccount(t)

	_, err := invoke[handlers.IssueVoucherRequest, handlers.ID](t, s, protocol.StreamKindIssueVoucher, holder, handlers.IssueVoucherRequest{Holder: holder})
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	id, err := invoke[handlers.IssueVoucherRequest, handlers.ID](t, s, protocol.StreamKindIssueVoucher, s.authority, handlers.IssueVoucherRequest{Holder: holder})
	require.NoError(t, err)

	v, err := invoke[handlers.ID, claims.Voucher](t, s, protocol.StreamKindGetVoucher, holder, id)
	require.NoError(t, err)
	assert.Equal(t, holder, v.Holder)

	kp := testutils.RandomKeypair(t)
	proof := claims.ProofOfHelp{Submitter: kp.Account(), Beneficiary: holder, HelpType: "shelter", ContentRef: "cid:p", Value: 5}
	require.NoError(t, proof.Sign(kp))

	token, err := invoke[claims.ProofOfHelp, handlers.ID](t, s, protocol.StreamKindRecordProof, holder, proof)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), token.ID)
	_, err = invoke[claims.ProofOfHelp, handlers.ID](t, s, protocol.StreamKindRecordProof, holder, proof)
	assert.ErrorIs(t, err, common.ErrDuplicateProof)

	holdings, err := invoke[handlers.HoldingsRequest, claims.Holdings](t, s, protocol.StreamKindHoldings, holder, handlers.HoldingsRequest{Account: kp.Account()})
	require.NoError(t, err)
	assert.Len(t, holdings.ImpactTokens, 1)

	journal, err := invoke[handlers.EventsRequest, []events.Event](t, s, protocol.StreamKindEvents, holder, handlers.EventsRequest{From: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []events.Kind{events.VoucherIssued, events.ProofRecorded, events.ImpactTokenMinted}, kinds(journal))

	summary, err := invoke[handlers.Empty, ledger.JournalSummary](t, s, protocol.StreamKindJournalDigest, holder, handlers.Empty{})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), summary.Length)
}

func kinds(evs []events.Event) []events.Kind {
	out := make([]events.Kind, len(evs))
	for i, e := range evs {
		out[i] = e.Kind
	}
	return out
}
