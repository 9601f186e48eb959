// Package ledger is the transactional core. Every mutating call is
// serialized, runs as one atomic store transaction and, once committed,
// publishes its journal events in commit order.
package ledger

import (
	"fmt"
	"sync"

	"github.com/eigerco/relief/internal/authority"
	"github.com/eigerco/relief/internal/claims"
	"github.com/eigerco/relief/internal/clock"
	"github.com/eigerco/relief/internal/common"
	"github.com/eigerco/relief/internal/escrow"
	"github.com/eigerco/relief/internal/events"
	"github.com/eigerco/relief/internal/identity"
	"github.com/eigerco/relief/internal/report"
	"github.com/eigerco/relief/internal/stake"
	"github.com/eigerco/relief/internal/store"
	"github.com/eigerco/relief/pkg/db"
	"github.com/eigerco/relief/pkg/log"
)

type Config struct {
	// Authority finalizes reports and verifies crises.
	Authority       identity.AccountID
	RequireVerified bool
	// MinStake is the smallest accepted stake; zero means one unit.
	MinStake common.Amount
}

type Option func(*Ledger)

func WithClock(c clock.Clock) Option {
	return func(l *Ledger) { l.clock = c }
}

func WithVerifier(v identity.Verifier) Option {
	return func(l *Ledger) { l.verifier = v }
}

// WithSink registers a sink for committed events.
func WithSink(s events.Sink) Option {
	return func(l *Ledger) { l.sinks = append(l.sinks, s) }
}

func WithStakePolicy(p stake.Policy) Option {
	return func(l *Ledger) { l.stakePolicy = p }
}

type Ledger struct {
	mu sync.RWMutex
	kv db.KVStore

	clock       clock.Clock
	verifier    identity.Verifier
	sinks       []events.Sink
	stakePolicy stake.Policy

	reports   *report.Registry
	stakes    *stake.Ledger
	authority *authority.Authority
	escrow    *escrow.Escrow
	claims    *claims.Registry
}

func New(kv db.KVStore, cfg Config, opts ...Option) (*Ledger, error) {
	l := &Ledger{
		kv:       kv,
		clock:    clock.SystemClock{},
		verifier: identity.Ed25519Verifier{},
	}
	for _, opt := range opts {
		opt(l)
	}

	l.reports = report.NewRegistry()
	l.stakes = stake.NewLedger(l.reports, cfg.MinStake, l.stakePolicy)
	l.claims = claims.NewRegistry()
	auth, err := authority.New(cfg.Authority, l.reports, l.stakes, l.claims)
	if err != nil {
		return nil, err
	}
	l.authority = auth
	l.escrow = escrow.New(auth, escrow.Policy{RequireVerified: cfg.RequireVerified})

	log.Ledger.Info().
		Str("authority", cfg.Authority.String()).
		Bool("requireVerified", cfg.RequireVerified).
		Stringer("minStake", l.stakes.MinStake()).
		Msg("ledger ready")
	return l, nil
}

// Authority returns the account that holds the authority role.
func (l *Ledger) Authority() identity.AccountID {
	return l.authority.Account()
}

func (l *Ledger) Now() clock.Timestamp {
	return l.clock.Now()
}

// apply runs fn as one transaction. Either every write fn makes is committed
// together with its events, or nothing is.
func (l *Ledger) apply(op string, fn func(txn *store.Txn) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	txn := store.Begin(l.kv, l.clock.Now())
	defer txn.Discard()

	if err := fn(txn); err != nil {
		log.Ledger.Debug().Err(err).Str("op", op).Msg("operation rejected")
		return err
	}
	committed, err := txn.Commit()
	if err != nil {
		log.Ledger.Error().Err(err).Str("op", op).Msg("commit failed")
		return fmt.Errorf("%s: %w", op, err)
	}

	for _, e := range committed {
		log.Ledger.Debug().
			Uint64("seq", e.Seq).
			Str("kind", string(e.Kind)).
			Uint64("entity", e.EntityID).
			Msg("event")
		for _, s := range l.sinks {
			s.Publish(e)
		}
	}
	return nil
}

// read runs fn against a consistent view of committed state.
func read[T any](l *Ledger, fn func(rd db.Reader) (T, error)) (T, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return fn(l.kv)
}

// Events replays up to limit journal entries starting at sequence number from.
func (l *Ledger) Events(from uint64, limit int) ([]events.Event, error) {
	return read(l, func(rd db.Reader) ([]events.Event, error) {
		return store.Events(rd, from, limit)
	})
}

// JournalDigest is a blake2b hash chain over the whole journal and its length.
func (l *Ledger) JournalDigest() (JournalSummary, error) {
	return read(l, func(rd db.Reader) (JournalSummary, error) {
		h, n, err := store.JournalDigest(rd)
		return JournalSummary{Digest: h, Length: n}, err
	})
}
