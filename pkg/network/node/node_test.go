package node_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/relief/internal/claims"
	"github.com/eigerco/relief/internal/common"
	"github.com/eigerco/relief/internal/identity"
	"github.com/eigerco/relief/internal/ledger"
	"github.com/eigerco/relief/internal/report"
	"github.com/eigerco/relief/internal/testutils"
	"github.com/eigerco/relief/pkg/network/handlers"
	"github.com/eigerco/relief/pkg/network/node"
)

type cluster struct {
	node      *node.Node
	addr      string
	authority *identity.Keypair
}

func startNode(t *testing.T) cluster {
	t.Helper()
	nodeKey := testutils.RandomKeypair(t)
	authority := testutils.RandomKeypair(t)

	l, err := ledger.New(testutils.NewStore(t), ledger.Config{Authority: authority.Account()})
	require.NoError(t, err)

	n, err := node.New(context.Background(), node.Config{
		ListenAddr: "127.0.0.1:0",
		Network:    "test",
		Keypair:    nodeKey,
	}, l)
	require.NoError(t, err)
	require.NoError(t, n.Start())
	t.Cleanup(func() { assert.NoError(t, n.Stop()) })

	return cluster{node: n, addr: n.Addr().String(), authority: authority}
}

func dial(t *testing.T, c cluster, kp *identity.Keypair) *node.Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := node.Dial(ctx, c.addr, node.ClientConfig{Network: "test", Keypair: kp, Expect: c.node.Account()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestReportLifecycleOverQUIC(t *testing.T) {
	c := startNode(t)
	ctx := context.Background()

	submitterKey := testutils.RandomKeypair(t)
	submitter := dial(t, c, submitterKey)
	staker := dial(t, c, testutils.RandomKeypair(t))
	authority := dial(t, c, c.authority)
	assert.Equal(t, c.node.Account(), submitter.Node())

	id, err := submitter.SubmitReport(ctx, "cid:abc")
	require.NoError(t, err)

	_, err = staker.Stake(ctx, id, 10)
	require.NoError(t, err)
	_, err = submitter.Stake(ctx, id, 5)
	require.NoError(t, err)

	_, err = staker.Finalize(ctx, id, true)
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	out, err := authority.Finalize(ctx, id, true)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), out.Settled)
	assert.Equal(t, common.Amount(15), out.Report.StakeTotal)

	rep, err := staker.Report(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, submitterKey.Account(), rep.Submitter)
	assert.Equal(t, report.Finalized, rep.State)

	holdings, err := submitter.Holdings(ctx, identity.AccountID{})
	require.NoError(t, err)
	require.Len(t, holdings.Vouchers, 1)
	assert.Len(t, holdings.FactTokens, 1)

	require.NoError(t, submitter.Redeem(ctx, holdings.Vouchers[0].ID))
	assert.ErrorIs(t, submitter.Redeem(ctx, holdings.Vouchers[0].ID), common.ErrAlreadyRedeemed)

	_, err = staker.Report(ctx, 99)
	assert.ErrorIs(t, err, common.ErrUnknownReport)

	summary, err := staker.JournalDigest(ctx)
	require.NoError(t, err)
	evs, err := staker.Events(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, summary.Length, uint64(len(evs)))
}

func TestCrisisAndProofOverQUIC(t *testing.T) {
	c := startNode(t)
	ctx := context.Background()

	organizer := dial(t, c, testutils.RandomKeypair(t))
	donorKey := testutils.RandomKeypair(t)
	donor := dial(t, c, donorKey)

	id, err := organizer.CreateCrisis(ctx, handlers.CreateCrisisRequest{Title: "Storm", TargetAmount: 100, DurationSeconds: 3600})
	require.NoError(t, err)

	require.NoError(t, donor.Donate(ctx, handlers.DonateRequest{CrisisID: id, Amount: 40}))
	require.NoError(t, donor.Donate(ctx, handlers.DonateRequest{CrisisID: id, Amount: 70, Anonymous: true}))

	crisis, err := donor.Crisis(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, common.Amount(110), crisis.RaisedAmount)

	require.NoError(t, organizer.Withdraw(ctx, id, 110))
	assert.ErrorIs(t, organizer.Withdraw(ctx, id, 1), common.ErrInsufficientFunds)

	proof := claims.ProofOfHelp{Submitter: donorKey.Account(), HelpType: "food", ContentRef: "cid:meal", Value: 3}
	require.NoError(t, proof.Sign(donorKey))
	tampered := proof
	tampered.ContentRef = "cid:other"

	_, err = organizer.RecordProof(ctx, tampered)
	assert.ErrorIs(t, err, common.ErrInvalidSignature)
	_, err = organizer.RecordProof(ctx, proof)
	require.NoError(t, err)
	_, err = organizer.RecordProof(ctx, proof)
	assert.ErrorIs(t, err, common.ErrDuplicateProof)
}

func TestDialRejectsUnexpectedNode(t *testing.T) {
	c := startNode(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := node.Dial(ctx, c.addr, node.ClientConfig{
		Network: "test",
		Keypair: testutils.RandomKeypair(t),
		Expect:  testutils.RandomAccount(t),
	})
	assert.ErrorContains(t, err, "expected")
}

func TestDialRejectsOtherNetwork(t *testing.T) {
	c := startNode(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := node.Dial(ctx, c.addr, node.ClientConfig{Network: "elsewhere", Keypair: testutils.RandomKeypair(t)})
	assert.Error(t, err)
}
