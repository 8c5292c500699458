package starknet

import (
	"context"
	"fmt"

	"github.com/bitfsorg/libfileproof-go/felt"
	"github.com/bitfsorg/libfileproof-go/scalar"
)

// Caller performs a read-only contract call. *Client satisfies it.
type Caller interface {
	Call(ctx context.Context, function string, calldata ...felt.Element) (CallResult, error)
}

// Compile-time interface check.
var _ Caller = (*Client)(nil)

// verifyFileFields is the number of felts returned by verify_file.
const verifyFileFields = 5

// FileInfo is the on-chain record returned by verify_file.
type FileInfo struct {
	Author    felt.Element `json:"author"`
	Filename  string       `json:"filename"`
	FileType  string       `json:"file_type"`
	FileSize  uint64       `json:"file_size"`
	Timestamp uint64       `json:"timestamp"`
}

// Contract provides typed reads of the file registry contract.
type Contract struct {
	caller Caller
}

// NewContract wraps caller.
func NewContract(caller Caller) *Contract {
	return &Contract{caller: caller}
}

// call runs function and converts non-success outcomes into errors.
func (c *Contract) call(ctx context.Context, function string, calldata ...felt.Element) ([]felt.Element, error) {
	res, err := c.caller.Call(ctx, function, calldata...)
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		return nil, fmt.Errorf("%s: %w", function, res.Err())
	}
	return res.Values, nil
}

// IsFileRegistered reports whether the contract holds contentHash.
func (c *Contract) IsFileRegistered(ctx context.Context, contentHash felt.Element) (bool, error) {
	values, err := c.call(ctx, FnIsFileRegistered, contentHash)
	if err != nil {
		return false, err
	}
	if len(values) != 1 {
		return false, fmt.Errorf("%w: %s returned %d values", ErrInvalidResponse, FnIsFileRegistered, len(values))
	}
	return values[0].Equal(felt.One), nil
}

// VerifyFile fetches the on-chain record for contentHash.
func (c *Contract) VerifyFile(ctx context.Context, contentHash felt.Element) (*FileInfo, error) {
	values, err := c.call(ctx, FnVerifyFile, contentHash)
	if err != nil {
		return nil, err
	}
	if len(values) < verifyFileFields {
		return nil, fmt.Errorf("%w: %s returned %d values, want %d",
			ErrInvalidResponse, FnVerifyFile, len(values), verifyFileFields)
	}

	size, ok := values[3].Uint64()
	if !ok {
		return nil, fmt.Errorf("%w: file size %s exceeds 64 bits", ErrInvalidResponse, values[3])
	}
	ts, ok := values[4].Uint64()
	if !ok {
		return nil, fmt.Errorf("%w: timestamp %s exceeds 64 bits", ErrInvalidResponse, values[4])
	}
	return &FileInfo{
		Author:    values[0],
		Filename:  scalar.FeltToShortString(values[1]),
		FileType:  scalar.FeltToShortString(values[2]),
		FileSize:  size,
		Timestamp: ts,
	}, nil
}

// GetAuthorFiles lists the content hashes registered by author. The contract
// returns a Cairo array: a length felt followed by the items.
func (c *Contract) GetAuthorFiles(ctx context.Context, author felt.Element) ([]felt.Element, error) {
	values, err := c.call(ctx, FnGetAuthorFiles, author)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: %s returned no length prefix", ErrInvalidResponse, FnGetAuthorFiles)
	}
	n, ok := values[0].Uint64()
	if !ok || n != uint64(len(values)-1) {
		return nil, fmt.Errorf("%w: %s length prefix %s does not match %d items",
			ErrInvalidResponse, FnGetAuthorFiles, values[0], len(values)-1)
	}
	return values[1:], nil
}
