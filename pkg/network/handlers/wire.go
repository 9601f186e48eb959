package handlers

import (
	"github.com/eigerco/relief/internal/common"
	"github.com/eigerco/relief/internal/identity"
	"github.com/eigerco/relief/internal/report"
)

// ID names one report, crisis or voucher, and is also the result of
// operations that create one.
type ID struct {
	ID uint64
}

type SubmitReportRequest struct {
	ContentRef string
}

type StakeRequest struct {
	ReportID uint64
	Amount   common.Amount
}

type FinalizeRequest struct {
	ReportID uint64
	Valid    bool
}

type FinalizeResponse struct {
	Report      report.Report
	Settled     uint32
	VoucherID   uint64
	FactTokenID uint64
}

type ListReportsRequest struct {
	Filter report.Filter
}

// CreateCrisisRequest creates a crisis organized by the caller.
type CreateCrisisRequest struct {
	Title           string
	Description     string
	Location        string
	ContentRef      string
	TargetAmount    common.Amount
	DurationSeconds int64
}

type SetVerifiedRequest struct {
	CrisisID uint64
	Verified bool
}

type DonateRequest struct {
	CrisisID  uint64
	Amount    common.Amount
	Message   string
	Anonymous bool
}

type WithdrawRequest struct {
	CrisisID uint64
	Amount   common.Amount
}

type IssueVoucherRequest struct {
	Holder identity.AccountID
}

// HoldingsRequest asks for the holdings of Account, or of the caller when
// Account is zero.
type HoldingsRequest struct {
	Account identity.AccountID
}

type EventsRequest struct {
	From  uint64
	Limit uint32
}
