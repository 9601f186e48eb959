package authority_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/relief/internal/authority"
	"github.com/eigerco/relief/internal/claims"
	"github.com/eigerco/relief/internal/clock"
	"github.com/eigerco/relief/internal/common"
	"github.com/eigerco/relief/internal/identity"
	"github.com/eigerco/relief/internal/report"
	"github.com/eigerco/relief/internal/stake"
	"github.com/eigerco/relief/internal/store"
	"github.com/eigerco/relief/internal/testutils"
)

const now = clock.Timestamp(1_700_000_000)

func TestNewRejectsZeroAccount(t *testing.T) {
	reports := report.NewRegistry()
	_, err := authority.New(identity.AccountID{}, reports, stake.NewLedger(reports, 0, nil), claims.NewRegistry())
	assert.ErrorIs(t, err, common.ErrInvalidIdentity)
}

func TestFinalize(t *testing.T) {
	tests := []struct {
		name          string
		valid         bool
		wantVoucher   bool
		wantFactToken bool
	}{
		{name: "valid", valid: true, wantVoucher: true, wantFactToken: true},
		{name: "invalid", valid: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			kv := testutils.NewStore(t)
			reports := report.NewRegistry()
			stakes := stake.NewLedger(reports, 0, nil)
			tokens := claims.NewRegistry()
			authAccount := testutils.RandomAccount(t)
			auth, err := authority.New(authAccount, reports, stakes, tokens)
			require.NoError(t, err)
			assert.True(t, auth.IsAuthority(authAccount))

			submitter := testutils.RandomAccount(t)
			var reportID uint64
			require.NoError(t, testutils.Commit(t, kv, now, func(txn *store.Txn) (err error) {
				reportID, err = reports.Submit(txn, submitter, "cid:abc")
				if err != nil {
					return err
				}
				if _, err = stakes.Stake(txn, reportID, testutils.RandomAccount(t), 10); err != nil {
					return err
				}
				_, err = stakes.Stake(txn, reportID, testutils.RandomAccount(t), 5)
				return err
			}))

			err = testutils.Commit(t, kv, now, func(txn *store.Txn) error {
				_, err := auth.Finalize(txn, submitter, reportID, tc.valid)
				return err
			})
			assert.ErrorIs(t, err, common.ErrUnauthorized)

			var out authority.Outcome
			require.NoError(t, testutils.Commit(t, kv, now, func(txn *store.Txn) (err error) {
				out, err = auth.Finalize(txn, authAccount, reportID, tc.valid)
				return err
			}))

			assert.Equal(t, report.Finalized, out.Report.State)
			assert.Equal(t, tc.valid, out.Report.Valid)
			assert.Len(t, out.Settlements, 2)
			assert.Equal(t, tc.wantVoucher, out.VoucherID != 0)
			assert.Equal(t, tc.wantFactToken, out.FactTokenID != 0)

			stakesAfter, err := stakes.Stakes(kv, reportID)
			require.NoError(t, err)
			for _, s := range stakesAfter {
				assert.True(t, s.Settled)
			}

			h, err := tokens.Holdings(kv, submitter)
			require.NoError(t, err)
			if tc.valid {
				require.Len(t, h.Vouchers, 1)
				assert.False(t, h.Vouchers[0].Redeemed)
				assert.Equal(t, reportID, h.Vouchers[0].ReportID)
				assert.Len(t, h.FactTokens, 1)
			} else {
				assert.Empty(t, h.Vouchers)
				assert.Empty(t, h.FactTokens)
			}

			err = testutils.Commit(t, kv, now, func(txn *store.Txn) error {
				_, err := auth.Finalize(txn, authAccount, reportID, !tc.valid)
				return err
			})
			assert.ErrorIs(t, err, common.ErrAlreadyFinalized)

			err = testutils.Commit(t, kv, now, func(txn *store.Txn) error {
				_, err := auth.Finalize(txn, authAccount, 404, true)
				return err
			})
			assert.ErrorIs(t, err, common.ErrUnknownReport)
		})
	}
}
