// Package claims issues single-use aid vouchers, soulbound fact tokens and
// impact tokens, and records signed proof-of-help attestations.
package claims

import (
	"encoding/binary"
	"fmt"

	"github.com/eigerco/relief/internal/clock"
	"github.com/eigerco/relief/internal/common"
	"github.com/eigerco/relief/internal/crypto"
	"github.com/eigerco/relief/internal/events"
	"github.com/eigerco/relief/internal/identity"
	"github.com/eigerco/relief/internal/store"
	"github.com/eigerco/relief/pkg/db"
)

type Voucher struct {
	ID         uint64
	Holder     identity.AccountID
	ReportID   uint64
	Redeemed   bool
	IssuedAt   clock.Timestamp
	RedeemedAt clock.Timestamp
}

// FactToken is a non-transferable record that the holder reported a crisis
// later verified as valid.
type FactToken struct {
	ID       uint64
	Holder   identity.AccountID
	ReportID uint64
	IssuedAt clock.Timestamp
}

// ImpactToken is minted to the submitter of every recorded proof of help.
type ImpactToken struct {
	ID       uint64
	Holder   identity.AccountID
	ProofKey crypto.Hash
	IssuedAt clock.Timestamp
}

// Holdings lists everything an account has been issued.
type Holdings struct {
	Vouchers     []Voucher
	FactTokens   []FactToken
	ImpactTokens []ImpactToken
}

// holding kinds in the per-account index
const (
	holdingVoucher byte = iota + 1
	holdingFactToken
	holdingImpactToken
)

type Registry struct{}

func NewRegistry() *Registry {
	return &Registry{}
}

// IssueVoucher mints an unredeemed voucher to holder. reportID is zero for
// vouchers not tied to a report.
func (r *Registry) IssueVoucher(txn *store.Txn, holder identity.AccountID, reportID uint64) (uint64, error) {
	if holder.IsZero() {
		return 0, fmt.Errorf("issue voucher: %w", common.ErrInvalidIdentity)
	}
	id, err := store.NextID(txn, store.SeqVoucher)
	if err != nil {
		return 0, err
	}
	v := Voucher{ID: id, Holder: holder, ReportID: reportID, IssuedAt: txn.Now()}
	if err := store.Put(txn, store.IDKey(store.PrefixVoucher, id), v); err != nil {
		return 0, err
	}
	if err := putHolding(txn, holder, holdingVoucher, id); err != nil {
		return 0, err
	}

	txn.Emit(events.Event{Kind: events.VoucherIssued, EntityID: id, Actor: holder})
	return id, nil
}

// Redeem marks the voucher redeemed. Only the holder may redeem, and only once;
// every attempt after the first redemption fails with ErrAlreadyRedeemed.
func (r *Registry) Redeem(txn *store.Txn, id uint64, caller identity.AccountID) error {
	v, err := r.Voucher(txn, id)
	if err != nil {
		return err
	}
	if v.Redeemed {
		return fmt.Errorf("redeem voucher %d: %w", id, common.ErrAlreadyRedeemed)
	}
	if v.Holder != caller {
		return fmt.Errorf("redeem voucher %d: %w", id, common.ErrUnauthorized)
	}

	v.Redeemed = true
	v.RedeemedAt = txn.Now()
	if err := store.Put(txn, store.IDKey(store.PrefixVoucher, id), v); err != nil {
		return err
	}

	txn.Emit(events.Event{Kind: events.VoucherRedeemed, EntityID: id, Actor: caller})
	return nil
}

func (r *Registry) Voucher(rd db.Reader, id uint64) (Voucher, error) {
	v, found, err := store.Get[Voucher](rd, store.IDKey(store.PrefixVoucher, id))
	if err != nil {
		return Voucher{}, err
	}
	if !found {
		return Voucher{}, fmt.Errorf("voucher %d: %w", id, common.ErrUnknownVoucher)
	}
	return v, nil
}

// MintFactToken issues a soulbound fact token for a verified report.
func (r *Registry) MintFactToken(txn *store.Txn, holder identity.AccountID, reportID uint64) (uint64, error) {
	if holder.IsZero() {
		return 0, fmt.Errorf("mint fact token: %w", common.ErrInvalidIdentity)
	}
	id, err := store.NextID(txn, store.SeqFactToken)
	if err != nil {
		return 0, err
	}
	tok := FactToken{ID: id, Holder: holder, ReportID: reportID, IssuedAt: txn.Now()}
	if err := store.Put(txn, store.IDKey(store.PrefixFactToken, id), tok); err != nil {
		return 0, err
	}
	if err := putHolding(txn, holder, holdingFactToken, id); err != nil {
		return 0, err
	}

	txn.Emit(events.Event{Kind: events.FactTokenMinted, EntityID: id, Actor: holder})
	return id, nil
}

func (r *Registry) mintImpactToken(txn *store.Txn, holder identity.AccountID, proofKey crypto.Hash) (uint64, error) {
	id, err := store.NextID(txn, store.SeqImpactToken)
	if err != nil {
		return 0, err
	}
	tok := ImpactToken{ID: id, Holder: holder, ProofKey: proofKey, IssuedAt: txn.Now()}
	if err := store.Put(txn, store.IDKey(store.PrefixImpactToken, id), tok); err != nil {
		return 0, err
	}
	if err := putHolding(txn, holder, holdingImpactToken, id); err != nil {
		return 0, err
	}
	return id, nil
}

// Holdings returns the vouchers and tokens issued to account, in issue order.
func (r *Registry) Holdings(rd db.Reader, account identity.AccountID) (Holdings, error) {
	var h Holdings
	ids, err := holdingIDs(rd, account, holdingVoucher)
	if err != nil {
		return h, err
	}
	for _, id := range ids {
		v, err := r.Voucher(rd, id)
		if err != nil {
			return h, err
		}
		h.Vouchers = append(h.Vouchers, v)
	}

	ids, err = holdingIDs(rd, account, holdingFactToken)
	if err != nil {
		return h, err
	}
	for _, id := range ids {
		tok, found, err := store.Get[FactToken](rd, store.IDKey(store.PrefixFactToken, id))
		if err != nil {
			return h, err
		}
		if found {
			h.FactTokens = append(h.FactTokens, tok)
		}
	}

	ids, err = holdingIDs(rd, account, holdingImpactToken)
	if err != nil {
		return h, err
	}
	for _, id := range ids {
		tok, found, err := store.Get[ImpactToken](rd, store.IDKey(store.PrefixImpactToken, id))
		if err != nil {
			return h, err
		}
		if found {
			h.ImpactTokens = append(h.ImpactTokens, tok)
		}
	}
	return h, nil
}

// holdingKey is holding prefix || account || kind || id.
func holdingKey(account identity.AccountID, kind byte, id uint64) []byte {
	key := holdingPrefix(account, kind)
	return binary.BigEndian.AppendUint64(key, id)
}

func holdingPrefix(account identity.AccountID, kind byte) []byte {
	key := make([]byte, 0, 1+len(account)+1+8)
	key = append(key, store.PrefixHolding)
	key = append(key, account[:]...)
	return append(key, kind)
}

func putHolding(txn *store.Txn, account identity.AccountID, kind byte, id uint64) error {
	if err := txn.Put(holdingKey(account, kind, id), nil); err != nil {
		return fmt.Errorf("put holding: %w", err)
	}
	return nil
}

func holdingIDs(rd db.Reader, account identity.AccountID, kind byte) ([]uint64, error) {
	start, end := store.PrefixRange(holdingPrefix(account, kind))
	iter, err := rd.NewIterator(start, end)
	if err != nil {
		return nil, fmt.Errorf("create iterator: %w", err)
	}
	defer iter.Close() //nolint:errcheck

	var ids []uint64
	for iter.Next() {
		key := iter.Key()
		ids = append(ids, binary.BigEndian.Uint64(key[len(key)-8:]))
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("list holdings: %w", err)
	}
	return ids, nil
}
