package felt

import "errors"

var (
	// ErrInvalidHex indicates the string is not "0x" followed by at least one hex digit.
	ErrInvalidHex = errors.New("felt: invalid hex encoding")

	// ErrOutOfRange indicates the value is not strictly less than the field modulus.
	ErrOutOfRange = errors.New("felt: value not below field modulus")

	// ErrInvalidLength indicates a canonical byte encoding is not exactly 32 bytes.
	ErrInvalidLength = errors.New("felt: canonical encoding must be 32 bytes")
)
