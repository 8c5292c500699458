package contenthash

import "errors"

var (
	// ErrUnknownDigest indicates the named digest algorithm is not supported.
	ErrUnknownDigest = errors.New("contenthash: unknown digest algorithm")

	// ErrDigestSize indicates the digest does not produce 256-bit output.
	ErrDigestSize = errors.New("contenthash: digest must produce 32 bytes")

	// ErrReadFailed indicates the input stream could not be read to completion.
	ErrReadFailed = errors.New("contenthash: read failed")
)
