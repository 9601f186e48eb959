package canon

import "errors"

var (
	ErrInvalidPointer    = errors.New("invalid pointer")
	ErrDecodingBool      = errors.New("error decoding boolean")
	ErrNegativeInt       = errors.New("negative value for compact integer")
	ErrLengthTooLarge    = errors.New("length prefix exceeds limit")
	ErrNaturalOverflow   = errors.New("natural does not fit the target type")
	errFirstByteNineByte = errors.New("expected first byte to be 255 for 9-byte serialization")

	ErrUnsupportedType     = "unsupported type: %v"
	ErrReadingBytes        = "error reading bytes: %w"
	ErrEncodingStructField = "encoding struct field '%s': %w"
	ErrDecodingStructField = "decoding struct field '%s': %w"
)
