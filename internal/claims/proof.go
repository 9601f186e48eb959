package claims

import (
	"fmt"

	"github.com/eigerco/relief/internal/clock"
	"github.com/eigerco/relief/internal/common"
	"github.com/eigerco/relief/internal/crypto"
	"github.com/eigerco/relief/internal/crypto/ed25519"
	"github.com/eigerco/relief/internal/events"
	"github.com/eigerco/relief/internal/identity"
	"github.com/eigerco/relief/internal/store"
	"github.com/eigerco/relief/pkg/db"
	"github.com/eigerco/relief/pkg/serialization/codec/canon"
)

// SigningContextProofOfHelp prefixes every proof-of-help signing payload.
const SigningContextProofOfHelp = "relief_proof_of_help"

type ProofOfHelp struct {
	Submitter   identity.AccountID
	Beneficiary identity.AccountID
	HelpType    string
	Description string
	Location    string
	ContentRef  string
	Value       common.Amount
	Signature   []byte
	// ID is assigned when the proof is recorded and is the entity id of its
	// proof.recorded event.
	ID          uint64
	Recorded    bool
	RecordedAt  clock.Timestamp
}

// signedFields is the order the signature covers.
type signedFields struct {
	Submitter   identity.AccountID
	Beneficiary identity.AccountID
	HelpType    string
	Description string
	Location    string
	ContentRef  string
	Value       common.Amount
}

// ContextSigner signs a message under a domain-separation context.
type ContextSigner interface {
	SignContext(context string, message []byte) []byte
}

func (p ProofOfHelp) signedBytes() ([]byte, error) {
	return canon.Marshal(signedFields{
		Submitter:   p.Submitter,
		Beneficiary: p.Beneficiary,
		HelpType:    p.HelpType,
		Description: p.Description,
		Location:    p.Location,
		ContentRef:  p.ContentRef,
		Value:       p.Value,
	})
}

// SigningPayload is the exact byte string the submitter signs.
func (p ProofOfHelp) SigningPayload() ([]byte, error) {
	b, err := p.signedBytes()
	if err != nil {
		return nil, err
	}
	return ed25519.WithContext(SigningContextProofOfHelp, b), nil
}

// Key identifies a proof for replay protection: (submitter, beneficiary, contentRef).
func (p ProofOfHelp) Key() (crypto.Hash, error) {
	b, err := canon.Marshal(struct {
		Submitter   identity.AccountID
		Beneficiary identity.AccountID
		ContentRef  string
	}{p.Submitter, p.Beneficiary, p.ContentRef})
	if err != nil {
		return crypto.Hash{}, err
	}
	return crypto.HashData(b), nil
}

// Sign fills in the signature using signer.
func (p *ProofOfHelp) Sign(signer ContextSigner) error {
	b, err := p.signedBytes()
	if err != nil {
		return err
	}
	p.Signature = signer.SignContext(SigningContextProofOfHelp, b)
	return nil
}

// RecordProof verifies the proof's signature, records it once per key and
// mints an impact token to the submitter. It returns the impact token id.
func (r *Registry) RecordProof(txn *store.Txn, proof ProofOfHelp, verifier identity.Verifier) (uint64, error) {
	payload, err := proof.SigningPayload()
	if err != nil {
		return 0, fmt.Errorf("encode proof: %w", err)
	}
	if !verifier.Verify(proof.Submitter, payload, proof.Signature) {
		return 0, fmt.Errorf("record proof: %w", common.ErrInvalidSignature)
	}

	key, err := proof.Key()
	if err != nil {
		return 0, fmt.Errorf("proof key: %w", err)
	}
	exists, err := store.Has(txn, store.HashKey(store.PrefixProof, key[:]))
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, fmt.Errorf("record proof %s: %w", key, common.ErrDuplicateProof)
	}

	proof.ID, err = store.NextID(txn, store.SeqProof)
	if err != nil {
		return 0, err
	}
	proof.Recorded = true
	proof.RecordedAt = txn.Now()
	if err := store.Put(txn, store.HashKey(store.PrefixProof, key[:]), proof); err != nil {
		return 0, err
	}

	tokenID, err := r.mintImpactToken(txn, proof.Submitter, key)
	if err != nil {
		return 0, err
	}
	txn.Emit(events.Event{Kind: events.ProofRecorded, EntityID: proof.ID, Actor: proof.Submitter}.WithAmount(proof.Value))
	txn.Emit(events.Event{Kind: events.ImpactTokenMinted, EntityID: tokenID, Actor: proof.Submitter})
	return tokenID, nil
}

// Proof returns the recorded proof with the given key.
func (r *Registry) Proof(rd db.Reader, key crypto.Hash) (ProofOfHelp, bool, error) {
	return store.Get[ProofOfHelp](rd, store.HashKey(store.PrefixProof, key[:]))
}
