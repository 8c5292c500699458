package scalar

import "errors"

var (
	// ErrMalformedScalar indicates an untrusted numeric wire value could not be decoded.
	ErrMalformedScalar = errors.New("scalar: malformed scalar")

	// ErrShortStringTooLong indicates the text exceeds MaxShortStringLen bytes.
	ErrShortStringTooLong = errors.New("scalar: short string too long")

	// ErrNotASCII indicates the text contains bytes outside 7-bit ASCII.
	ErrNotASCII = errors.New("scalar: short string must be ASCII")
)
