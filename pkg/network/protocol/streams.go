package protocol

import (
	"context"
	"fmt"
	"sync"

	"github.com/quic-go/quic-go"

	"github.com/eigerco/relief/internal/identity"
)

// StreamKind is the first byte written on every stream. Each kind carries
// exactly one request and one response.
type StreamKind byte

const (
	StreamKindSubmitReport  StreamKind = 128
	StreamKindStake         StreamKind = 129
	StreamKindFinalize      StreamKind = 130
	StreamKindGetReport     StreamKind = 131
	StreamKindListReports   StreamKind = 132
	StreamKindReportStats   StreamKind = 133
	StreamKindStakes        StreamKind = 134
	StreamKindBreakdown     StreamKind = 135
	StreamKindCreateCrisis  StreamKind = 136
	StreamKindSetVerified   StreamKind = 137
	StreamKindDonate        StreamKind = 138
	StreamKindWithdraw      StreamKind = 139
	StreamKindCloseCrisis   StreamKind = 140
	StreamKindGetCrisis     StreamKind = 141
	StreamKindDonations     StreamKind = 142
	StreamKindActiveCrises  StreamKind = 143
	StreamKindIssueVoucher  StreamKind = 144
	StreamKindRedeem        StreamKind = 145
	StreamKindGetVoucher    StreamKind = 146
	StreamKindRecordProof   StreamKind = 147
	StreamKindHoldings      StreamKind = 148
	StreamKindEvents        StreamKind = 149
	StreamKindJournalDigest StreamKind = 150
)

var streamKindNames = map[StreamKind]string{
	StreamKindSubmitReport:  "submit-report",
	StreamKindStake:         "stake",
	StreamKindFinalize:      "finalize",
	StreamKindGetReport:     "get-report",
	StreamKindListReports:   "list-reports",
	StreamKindReportStats:   "report-stats",
	StreamKindStakes:        "stakes",
	StreamKindBreakdown:     "breakdown",
	StreamKindCreateCrisis:  "create-crisis",
	StreamKindSetVerified:   "set-verified",
	StreamKindDonate:        "donate",
	StreamKindWithdraw:      "withdraw",
	StreamKindCloseCrisis:   "close-crisis",
	StreamKindGetCrisis:     "get-crisis",
	StreamKindDonations:     "donations",
	StreamKindActiveCrises:  "active-crises",
	StreamKindIssueVoucher:  "issue-voucher",
	StreamKindRedeem:        "redeem",
	StreamKindGetVoucher:    "get-voucher",
	StreamKindRecordProof:   "record-proof",
	StreamKindHoldings:      "holdings",
	StreamKindEvents:        "events",
	StreamKindJournalDigest: "journal-digest",
}

func (k StreamKind) String() string {
	if name, ok := streamKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", byte(k))
}

// StreamHandler processes one stream. peer is the authenticated caller.
type StreamHandler interface {
	HandleStream(ctx context.Context, stream quic.Stream, peer identity.AccountID) error
}

type StreamHandlerFunc func(ctx context.Context, stream quic.Stream, peer identity.AccountID) error

func (f StreamHandlerFunc) HandleStream(ctx context.Context, stream quic.Stream, peer identity.AccountID) error {
	return f(ctx, stream, peer)
}

// Registry manages stream handlers for the supported stream kinds
type Registry struct {
	mu       sync.RWMutex
	handlers map[StreamKind]StreamHandler
}

func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[StreamKind]StreamHandler),
	}
}

// ValidateKind checks if a given byte is a known stream kind
func (r *Registry) ValidateKind(kindByte byte) error {
	if _, ok := streamKindNames[StreamKind(kindByte)]; !ok {
		return fmt.Errorf("invalid stream kind: %d", kindByte)
	}
	return nil
}

// RegisterHandler associates a stream handler with a specific stream kind.
func (r *Registry) RegisterHandler(kind StreamKind, handler StreamHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[kind] = handler
}

// GetHandler returns an error if no handler is registered for the kind.
func (r *Registry) GetHandler(kind StreamKind) (StreamHandler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handler, ok := r.handlers[kind]
	if !ok {
		return nil, fmt.Errorf("no handler for kind %s", kind)
	}
	return handler, nil
}
