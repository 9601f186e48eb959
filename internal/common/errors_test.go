package common

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorIs(t *testing.T) {
	err := fmt.Errorf("stake on report 4: %w", ErrReportClosed)
	assert.ErrorIs(t, err, ErrReportClosed)
	assert.NotErrorIs(t, err, ErrCrisisClosed)

	for _, unknown := range []error{ErrUnknownReport, ErrUnknownCrisis, ErrUnknownVoucher} {
		wrapped := fmt.Errorf("lookup: %w", unknown)
		assert.ErrorIs(t, wrapped, ErrUnknownEntity)
		assert.ErrorIs(t, wrapped, unknown)
	}
	assert.NotErrorIs(t, ErrUnknownEntity, ErrUnknownReport)
	assert.NotErrorIs(t, ErrUnknownReport, ErrUnknownCrisis)
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("disk on fire")
	err := Wrap(ErrInvalidAmount, "amount overflow", cause)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "amount overflow: disk on fire", err.Error())
}

func TestCodeRoundTrip(t *testing.T) {
	assert.Equal(t, CodeOK, CodeOf(nil))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))

	err := fmt.Errorf("withdraw: %w", ErrInsufficientFunds)
	code := CodeOf(err)
	assert.Equal(t, CodeInsufficientFunds, code)

	remote := FromCode(code, err.Error())
	assert.ErrorIs(t, remote, ErrInsufficientFunds)
	assert.Equal(t, err.Error(), remote.Error())

	assert.NoError(t, FromCode(CodeOK, ""))
	assert.Equal(t, CodeInternal, CodeOf(FromCode(Code(250), "boom")))
	assert.Equal(t, ErrUnauthorized.Message, FromCode(CodeUnauthorized, "").Error())
}

func TestAmountAdd(t *testing.T) {
	s, err := Amount(10).Add(5)
	require.NoError(t, err)
	assert.Equal(t, Amount(15), s)
	assert.Equal(t, "15", s.String())

	_, err = Amount(math.MaxUint64).Add(1)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}
