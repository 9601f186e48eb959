package common

import (
	"errors"
	"fmt"
)

// Code is the stable numeric identifier of an error kind. Codes travel on the
// wire, so existing values never change.
type Code uint8

const (
	CodeOK Code = iota
	CodeInternal
	CodeUnknownEntity
	CodeUnknownReport
	CodeUnknownCrisis
	CodeUnknownVoucher
	CodeUnauthorized
	CodeInvalidAmount
	CodeInvalidTarget
	CodeInvalidDuration
	CodeAlreadyFinalized
	CodeAlreadyRedeemed
	CodeDuplicateProof
	CodeReportClosed
	CodeCrisisClosed
	CodeInsufficientFunds
	CodeInvalidSignature
	CodeEmptyContentRef
	CodeCrisisNotVerified
	CodeInvalidIdentity
	CodeReportOpen
	CodeAlreadySettled
	CodeBadRequest
)

func (c Code) unknownEntity() bool {
	switch c {
	case CodeUnknownEntity, CodeUnknownReport, CodeUnknownCrisis, CodeUnknownVoucher:
		return true
	}
	return false
}

// Error is a domain error identified by its code.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches by code. Every unknown-id error also matches ErrUnknownEntity.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Code == t.Code {
		return true
	}
	return t.Code == CodeUnknownEntity && e.Code.unknownEntity()
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap returns an error with the code of kind and cause as its underlying error.
func Wrap(kind *Error, message string, cause error) *Error {
	return &Error{Code: kind.Code, Message: message, Cause: cause}
}

var (
	ErrUnknownEntity     = New(CodeUnknownEntity, "unknown entity")
	ErrUnknownReport     = New(CodeUnknownReport, "unknown report")
	ErrUnknownCrisis     = New(CodeUnknownCrisis, "unknown crisis")
	ErrUnknownVoucher    = New(CodeUnknownVoucher, "unknown voucher")
	ErrUnauthorized      = New(CodeUnauthorized, "unauthorized")
	ErrInvalidAmount     = New(CodeInvalidAmount, "invalid amount")
	ErrInvalidTarget     = New(CodeInvalidTarget, "invalid target amount")
	ErrInvalidDuration   = New(CodeInvalidDuration, "invalid duration")
	ErrAlreadyFinalized  = New(CodeAlreadyFinalized, "report already finalized")
	ErrAlreadyRedeemed   = New(CodeAlreadyRedeemed, "voucher already redeemed")
	ErrDuplicateProof    = New(CodeDuplicateProof, "proof of help already recorded")
	ErrReportClosed      = New(CodeReportClosed, "report is closed for staking")
	ErrCrisisClosed      = New(CodeCrisisClosed, "crisis is closed")
	ErrInsufficientFunds = New(CodeInsufficientFunds, "insufficient funds")
	ErrInvalidSignature  = New(CodeInvalidSignature, "invalid signature")
	ErrEmptyContentRef   = New(CodeEmptyContentRef, "empty content reference")
	ErrCrisisNotVerified = New(CodeCrisisNotVerified, "crisis is not verified")
	ErrInvalidIdentity   = New(CodeInvalidIdentity, "invalid identity")
	ErrReportOpen        = New(CodeReportOpen, "report is not finalized")
	ErrAlreadySettled    = New(CodeAlreadySettled, "stakes already settled")
	ErrBadRequest        = New(CodeBadRequest, "bad request")
)

var byCode = map[Code]*Error{}

func init() {
	for _, e := range []*Error{
		ErrUnknownEntity, ErrUnknownReport, ErrUnknownCrisis, ErrUnknownVoucher,
		ErrUnauthorized, ErrInvalidAmount, ErrInvalidTarget, ErrInvalidDuration,
		ErrAlreadyFinalized, ErrAlreadyRedeemed, ErrDuplicateProof, ErrReportClosed,
		ErrCrisisClosed, ErrInsufficientFunds, ErrInvalidSignature, ErrEmptyContentRef,
		ErrCrisisNotVerified, ErrInvalidIdentity, ErrReportOpen, ErrAlreadySettled,
		ErrBadRequest,
	} {
		byCode[e.Code] = e
	}
}

// CodeOf returns the code carried by err, CodeOK for nil and CodeInternal for
// errors outside the domain.
func CodeOf(err error) Code {
	if err == nil {
		return CodeOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// FromCode rebuilds a domain error received from a remote peer.
func FromCode(code Code, message string) error {
	if code == CodeOK {
		return nil
	}
	kind, ok := byCode[code]
	if !ok {
		return New(CodeInternal, message)
	}
	if message == "" {
		message = kind.Message
	}
	return New(kind.Code, message)
}
