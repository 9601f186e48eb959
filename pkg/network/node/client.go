package node

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
	"github.com/eigerco/relief/pkg/network/handlers"
	"github.com/eigerco/relief/pkg/network/protocol"
	"github.com/eigerco/relief/pkg/network/transport"
)

type ClientConfig struct {
	Network        string
	Keypair        *identity.Keypair
	CertValidity   time.Duration
	RequestTimeout time.Duration
	// Expect, when set, is the account the node must present.
	Expect identity.AccountID
}

// Client calls a remote node. Every call acts as the client's keypair.
type Client struct {
	transport *transport.Transport
	conn      *protocol.ProtocolConn
	timeout   time.Duration
}

func Dial(ctx context.Context, addr string, cfg ClientConfig) (*Client, error) {
	nc := Config{Network: cfg.Network, CertValidity: cfg.CertValidity, RequestTimeout: cfg.RequestTimeout}
	nc.setDefaults()

	tr, manager, err := endpoint(context.Background(), cfg.Keypair, nc.Network, nc.CertValidity, "")
	if err != nil {
		return nil, err
	}
	conn, err := tr.Connect(ctx, addr)
	if err != nil {
		_ = tr.Stop()
		return nil, err
	}
	if !cfg.Expect.IsZero() && conn.Peer() != cfg.Expect {
		_ = tr.Stop()
		return nil, fmt.Errorf("node presented %s, expected %s", conn.Peer().Short(), cfg.Expect.Short())
	}
	pc, ok := manager.Conn(conn.Peer())
	if !ok {
		_ = tr.Stop()
		return nil, transport.ErrConnFailed
	}
	return &Client{transport: tr, conn: pc, timeout: nc.RequestTimeout}, nil
}

// Node is the account of the node the client is connected to.
func (c *Client) Node() identity.AccountID {
	return c.conn.TConn.Peer()
}

func (c *Client) Close() error {
	return c.transport.Stop()
}

func call[Req, Resp any](ctx context.Context, c *Client, kind protocol.StreamKind, req Req) (Resp, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	stream, err := c.conn.OpenStream(ctx, kind)
	if err != nil {
		var zero Resp
		return zero, fmt.Errorf("%s: %w", kind, err)
	}
	return handlers.Call[Req, Resp](ctx, stream, req)
}

func (c *Client) SubmitReport(ctx context.Context, contentRef string) (uint64, error) {
	id, err := call[handlers.SubmitReportRequest, handlers.ID](ctx, c, protocol.StreamKindSubmitReport, handlers.SubmitReportRequest{ContentRef: contentRef})
	return id.ID, err
}

func (c *Client) Stake(ctx context.Context, reportID uint64, amount common.Amount) (stake.ID, error) {
	return call[handlers.StakeRequest, stake.ID](ctx, c, protocol.StreamKindStake, handlers.StakeRequest{ReportID: reportID, Amount: amount})
}

func (c *Client) Finalize(ctx context.Context, reportID uint64, valid bool) (handlers.FinalizeResponse, error) {
	return call[handlers.FinalizeRequest, handlers.FinalizeResponse](ctx, c, protocol.StreamKindFinalize, handlers.FinalizeRequest{ReportID: reportID, Valid: valid})
}

func (c *Client) Report(ctx context.Context, id uint64) (report.Report, error) {
	return call[handlers.ID, report.Report](ctx, c, protocol.StreamKindGetReport, handlers.ID{ID: id})
}

func (c *Client) Reports(ctx context.Context, filter report.Filter) ([]report.Report, error) {
	return call[handlers.ListReportsRequest, []report.Report](ctx, c, protocol.StreamKindListReports, handlers.ListReportsRequest{Filter: filter})
}

func (c *Client) ReportStats(ctx context.Context) (report.Stats, error) {
	return call[handlers.Empty, report.Stats](ctx, c, protocol.StreamKindReportStats, handlers.Empty{})
}

func (c *Client) Stakes(ctx context.Context, reportID uint64) ([]stake.Stake, error) {
	return call[handlers.ID, []stake.Stake](ctx, c, protocol.StreamKindStakes, handlers.ID{ID: reportID})
}

func (c *Client) Breakdown(ctx context.Context, reportID uint64) ([]stake.Breakdown, error) {
	return call[handlers.ID, []stake.Breakdown](ctx, c, protocol.StreamKindBreakdown, handlers.ID{ID: reportID})
}

func (c *Client) CreateCrisis(ctx context.Context, req handlers.CreateCrisisRequest) (uint64, error) {
	id, err := call[handlers.CreateCrisisRequest, handlers.ID](ctx, c, protocol.StreamKindCreateCrisis, req)
	return id.ID, err
}

func (c *Client) SetVerified(ctx context.Context, crisisID uint64, verified bool) error {
	_, err := call[handlers.SetVerifiedRequest, handlers.Empty](ctx, c, protocol.StreamKindSetVerified, handlers.SetVerifiedRequest{CrisisID: crisisID, Verified: verified})
	return err
}

func (c *Client) Donate(ctx context.Context, req handlers.DonateRequest) error {
	_, err := call[handlers.DonateRequest, handlers.Empty](ctx, c, protocol.StreamKindDonate, req)
	return err
}

func (c *Client) Withdraw(ctx context.Context, crisisID uint64, amount common.Amount) error {
	_, err := call[handlers.WithdrawRequest, handlers.Empty](ctx, c, protocol.StreamKindWithdraw, handlers.WithdrawRequest{CrisisID: crisisID, Amount: amount})
	return err
}

func (c *Client) CloseCrisis(ctx context.Context, crisisID uint64) error {
	_, err := call[handlers.ID, handlers.Empty](ctx, c, protocol.StreamKindCloseCrisis, handlers.ID{ID: crisisID})
	return err
}

func (c *Client) Crisis(ctx context.Context, id uint64) (escrow.Crisis, error) {
	return call[handlers.ID, escrow.Crisis](ctx, c, protocol.StreamKindGetCrisis, handlers.ID{ID: id})
}

func (c *Client) Donations(ctx context.Context, crisisID uint64) ([]escrow.DonationView, error) {
	return call[handlers.ID, []escrow.DonationView](ctx, c, protocol.StreamKindDonations, handlers.ID{ID: crisisID})
}

func (c *Client) ActiveCrises(ctx context.Context) ([]escrow.Crisis, error) {
	return call[handlers.Empty, []escrow.Crisis](ctx, c, protocol.StreamKindActiveCrises, handlers.Empty{})
}

// IssueVoucher is only accepted from the authority.
func (c *Client) IssueVoucher(ctx context.Context, holder identity.AccountID) (uint64, error) {
	id, err := call[handlers.IssueVoucherRequest, handlers.ID](ctx, c, protocol.StreamKindIssueVoucher, handlers.IssueVoucherRequest{Holder: holder})
	return id.ID, err
}

func (c *Client) Redeem(ctx context.Context, voucherID uint64) error {
	_, err := call[handlers.ID, handlers.Empty](ctx, c, protocol.StreamKindRedeem, handlers.ID{ID: voucherID})
	return err
}

func (c *Client) Voucher(ctx context.Context, id uint64) (claims.Voucher, error) {
	return call[handlers.ID, claims.Voucher](ctx, c, protocol.StreamKindGetVoucher, handlers.ID{ID: id})
}

// RecordProof submits a signed proof and returns the impact token id.
func (c *Client) RecordProof(ctx context.Context, proof claims.ProofOfHelp) (uint64, error) {
	id, err := call[claims.ProofOfHelp, handlers.ID](ctx, c, protocol.StreamKindRecordProof, proof)
	return id.ID, err
}

// Holdings of account; the zero account means the client's own.
func (c *Client) Holdings(ctx context.Context, account identity.AccountID) (claims.Holdings, error) {
	return call[handlers.HoldingsRequest, claims.Holdings](ctx, c, protocol.StreamKindHoldings, handlers.HoldingsRequest{Account: account})
}

func (c *Client) Events(ctx context.Context, from uint64, limit uint32) ([]events.Event, error) {
	return call[handlers.EventsRequest, []events.Event](ctx, c, protocol.StreamKindEvents, handlers.EventsRequest{From: from, Limit: limit})
}

func (c *Client) JournalDigest(ctx context.Context) (ledger.JournalSummary, error) {
	return call[handlers.Empty, ledger.JournalSummary](ctx, c, protocol.StreamKindJournalDigest, handlers.Empty{})
}
