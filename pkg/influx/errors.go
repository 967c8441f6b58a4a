package influx

import "errors"

// Errors returned by the package. Most of them are wrapped with additional
// context; use errors.Is to check for them.
var (
	ErrInvalidName          = errors.New("missing or empty measurement name")
	ErrEmptyFieldSet        = errors.New("measurements must contain at least one value")
	ErrUnsupportedPrecision = errors.New("unsupported time precision")
	ErrTimestampOutOfRange  = errors.New("timestamp out of range")
	ErrInvalidCharacter     = errors.New("invalid character")
	ErrInvalidValue         = errors.New("invalid value")

	// ErrPrecisionRejected is not fatal: the measurement is left unchanged
	// and can still be used.
	ErrPrecisionRejected = errors.New("time precision can only be set to seconds, milliseconds or microseconds")

	ErrInvalidValueType = errors.New("invalid value type")
	ErrInvalidAuthMode  = errors.New("invalid authentication mode")
	ErrWriteFailed      = errors.New("write failed")
)
