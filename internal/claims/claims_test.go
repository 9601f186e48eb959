package claims_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/relief/internal/claims"
	"github.com/eigerco/relief/internal/clock"
	"github.com/eigerco/relief/internal/common"
	"github.com/eigerco/relief/internal/events"
	"github.com/eigerco/relief/internal/identity"
	"github.com/eigerco/relief/internal/store"
	"github.com/eigerco/relief/internal/testutils"
	"github.com/eigerco/relief/pkg/db"
)

const now = clock.Timestamp(1_700_000_000)

func issue(t *testing.T, kv db.KVStore, r *claims.Registry, holder identity.AccountID) (uint64, error) {
	var id uint64
	err := testutils.Commit(t, kv, now, func(txn *store.Txn) (err error) {
		id, err = r.IssueVoucher(txn, holder, 0)
		return err
	})
	return id, err
}

func redeem(t *testing.T, kv db.KVStore, r *claims.Registry, id uint64, caller identity.AccountID) error {
	return testutils.Commit(t, kv, now+5, func(txn *store.Txn) error {
		return r.Redeem(txn, id, caller)
	})
}

func TestIssueVoucher(t *testing.T) {
	kv := testutils.NewStore(t)
	r := claims.NewRegistry()
	holder := testutils.RandomAccount(t)

	id, err := issue(t, kv, r, holder)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	v, err := r.Voucher(kv, id)
	require.NoError(t, err)
	assert.Equal(t, claims.Voucher{ID: 1, Holder: holder, IssuedAt: now}, v)

	_, err = issue(t, kv, r, identity.AccountID{})
	assert.ErrorIs(t, err, common.ErrInvalidIdentity)

	_, err = r.Voucher(kv, 2)
	assert.ErrorIs(t, err, common.ErrUnknownVoucher)
}

func TestRedeemOnce(t *testing.T) {
	kv := testutils.NewStore(t)
	r := claims.NewRegistry()
	holder, other := testutils.RandomAccount(t), testutils.RandomAccount(t)
	id, err := issue(t, kv, r, holder)
	require.NoError(t, err)

	assert.ErrorIs(t, redeem(t, kv, r, id, other), common.ErrUnauthorized)
	require.NoError(t, redeem(t, kv, r, id, holder))
	assert.ErrorIs(t, redeem(t, kv, r, id, holder), common.ErrAlreadyRedeemed)
	assert.ErrorIs(t, redeem(t, kv, r, id, other), common.ErrAlreadyRedeemed)
	assert.ErrorIs(t, redeem(t, kv, r, 9, holder), common.ErrUnknownVoucher)

	v, err := r.Voucher(kv, id)
	require.NoError(t, err)
	assert.True(t, v.Redeemed)
	assert.Equal(t, now+5, v.RedeemedAt)
}

func signedProof(t *testing.T, kp *identity.Keypair, beneficiary identity.AccountID) claims.ProofOfHelp {
	p := claims.ProofOfHelp{
		Submitter:   kp.Account(),
		Beneficiary: beneficiary,
		HelpType:    "water",
		Description: "delivered 40 litres",
		Location:    "north shelter",
		ContentRef:  "cid:photo",
		Value:       250,
	}
	require.NoError(t, p.Sign(kp))
	return p
}

func record(t *testing.T, kv db.KVStore, r *claims.Registry, p claims.ProofOfHelp) (uint64, []events.Event, error) {
	var (
		id      uint64
		emitted []events.Event
	)
	err := testutils.Commit(t, kv, now, func(txn *store.Txn) (err error) {
		id, err = r.RecordProof(txn, p, identity.Ed25519Verifier{})
		emitted = txn.Pending()
		return err
	})
	return id, emitted, err
}

func TestRecordProof(t *testing.T) {
	kv := testutils.NewStore(t)
	r := claims.NewRegistry()
	kp := testutils.RandomKeypair(t)
	p := signedProof(t, kp, testutils.RandomAccount(t))

	tokenID, emitted, err := record(t, kv, r, p)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), tokenID)
	require.Len(t, emitted, 2)
	assert.Equal(t, events.ProofRecorded, emitted[0].Kind)
	assert.Equal(t, events.ImpactTokenMinted, emitted[1].Kind)
	assert.Equal(t, tokenID, emitted[1].EntityID)

	key, err := p.Key()
	require.NoError(t, err)
	stored, found, err := r.Proof(kv, key)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, stored.Recorded)
	assert.Equal(t, p.Signature, stored.Signature)
	assert.Equal(t, uint64(1), stored.ID)
	assert.Equal(t, stored.ID, emitted[0].EntityID)

	_, _, err = record(t, kv, r, p)
	assert.ErrorIs(t, err, common.ErrDuplicateProof)

	// a different content ref is a different proof
	again := p
	again.ContentRef = "cid:photo-2"
	require.NoError(t, again.Sign(kp))
	_, emitted, err = record(t, kv, r, again)
	require.NoError(t, err)
	againKey, err := again.Key()
	require.NoError(t, err)
	stored, _, err = r.Proof(kv, againKey)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), stored.ID)
	assert.Equal(t, stored.ID, emitted[0].EntityID)

	h, err := r.Holdings(kv, kp.Account())
	require.NoError(t, err)
	require.Len(t, h.ImpactTokens, 2)
	assert.Equal(t, key, h.ImpactTokens[0].ProofKey)
}

func TestRecordProofTampered(t *testing.T) {
	kv := testutils.NewStore(t)
	r := claims.NewRegistry()
	kp := testutils.RandomKeypair(t)
	p := signedProof(t, kp, testutils.RandomAccount(t))

	tests := []struct {
		name   string
		tamper func(p *claims.ProofOfHelp)
	}{
		{"value", func(p *claims.ProofOfHelp) { p.Value++ }},
		{"help type", func(p *claims.ProofOfHelp) { p.HelpType = "food" }},
		{"description", func(p *claims.ProofOfHelp) { p.Description += "!" }},
		{"location", func(p *claims.ProofOfHelp) { p.Location = "south shelter" }},
		{"content ref", func(p *claims.ProofOfHelp) { p.ContentRef = "cid:other" }},
		{"beneficiary", func(p *claims.ProofOfHelp) { p.Beneficiary = testutils.RandomAccount(t) }},
		{"submitter", func(p *claims.ProofOfHelp) { p.Submitter = testutils.RandomAccount(t) }},
		{"signature", func(p *claims.ProofOfHelp) { p.Signature = append([]byte{}, p.Signature[1:]...) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tampered := p
			tampered.Signature = append([]byte{}, p.Signature...)
			tc.tamper(&tampered)
			_, _, err := record(t, kv, r, tampered)
			assert.ErrorIs(t, err, common.ErrInvalidSignature)
		})
	}

	// the untouched proof is still accepted
	_, _, err := record(t, kv, r, p)
	assert.NoError(t, err)
}

func TestSigningPayloadLayout(t *testing.T) {
	p := claims.ProofOfHelp{HelpType: "a", Value: 1}
	payload, err := p.SigningPayload()
	require.NoError(t, err)

	want := []byte(claims.SigningContextProofOfHelp)
	want = append(want, make([]byte, 64)...)    // submitter, beneficiary
	want = append(want, 1, 'a', 0, 0, 0)        // help type, description, location, content ref
	want = append(want, 1, 0, 0, 0, 0, 0, 0, 0) // value
	assert.Equal(t, want, payload)

	// signature and recording state are not signed
	p.Signature = []byte{1, 2, 3}
	p.Recorded = true
	again, err := p.SigningPayload()
	require.NoError(t, err)
	assert.Equal(t, payload, again)

	// Sign covers exactly the payload
	kp := testutils.RandomKeypair(t)
	p.Submitter = kp.Account()
	require.NoError(t, p.Sign(kp))
	payload, err = p.SigningPayload()
	require.NoError(t, err)
	assert.True(t, identity.Ed25519Verifier{}.Verify(kp.Account(), payload, p.Signature))
}

func TestHoldings(t *testing.T) {
	kv := testutils.NewStore(t)
	r := claims.NewRegistry()
	holder, other := testutils.RandomAccount(t), testutils.RandomAccount(t)

	err := testutils.Commit(t, kv, now, func(txn *store.Txn) error {
		if _, err := r.IssueVoucher(txn, holder, 3); err != nil {
			return err
		}
		if _, err := r.IssueVoucher(txn, other, 4); err != nil {
			return err
		}
		if _, err := r.MintFactToken(txn, holder, 3); err != nil {
			return err
		}
		_, err := r.IssueVoucher(txn, holder, 0)
		return err
	})
	require.NoError(t, err)

	h, err := r.Holdings(kv, holder)
	require.NoError(t, err)
	require.Len(t, h.Vouchers, 2)
	assert.Equal(t, uint64(1), h.Vouchers[0].ID)
	assert.Equal(t, uint64(3), h.Vouchers[1].ID)
	assert.Equal(t, []claims.FactToken{{ID: 1, Holder: holder, ReportID: 3, IssuedAt: now}}, h.FactTokens)
	assert.Empty(t, h.ImpactTokens)

	empty, err := r.Holdings(kv, testutils.RandomAccount(t))
	require.NoError(t, err)
	assert.Empty(t, empty.Vouchers)

	err = testutils.Commit(t, kv, now, func(txn *store.Txn) error {
		_, err := r.MintFactToken(txn, identity.AccountID{}, 1)
		return err
	})
	assert.ErrorIs(t, err, common.ErrInvalidIdentity)
}

func TestHoldingsReportsIterationFailure(t *testing.T) {
	kv := testutils.NewStore(t)
	r := claims.NewRegistry()
	holder := testutils.RandomAccount(t)

	err := testutils.Commit(t, kv, now, func(txn *store.Txn) error {
		for range 3 {
			if _, err := r.IssueVoucher(txn, holder, 0); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	errDisk := errors.New("disk read failed")
	_, err = r.Holdings(testutils.BreakIteration(kv, 1, errDisk), holder)
	assert.ErrorIs(t, err, errDisk)
}
