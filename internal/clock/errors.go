package clock

import "errors"

var (
	// ErrBeforeUnixEpoch is returned when converting a time.Time earlier than
	// 1970-01-01 00:00:00 UTC.
	ErrBeforeUnixEpoch = errors.New("time is before the unix epoch")

	// ErrAfterMaxTimestamp is returned when a timestamp computation leaves the
	// range that time.Unix can represent.
	ErrAfterMaxTimestamp = errors.New("timestamp exceeds maximum representable time")
)
