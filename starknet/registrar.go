package starknet

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/crypto/sha3"

	"github.com/bitfsorg/libfileproof-go/felt"
	"github.com/bitfsorg/libfileproof-go/scalar"
)

// RegisterRequest describes a file to be registered on chain.
type RegisterRequest struct {
	ContentHash felt.Element
	Filename    string
	FileType    string
	FileSize    uint64
}

// Registrar submits register_file write calls. It returns an opaque handle
// identifying the submission.
type Registrar interface {
	RegisterFile(ctx context.Context, req RegisterRequest) (string, error)
}

// RegistrarFunc adapts a function to the Registrar interface.
type RegistrarFunc func(ctx context.Context, req RegisterRequest) (string, error)

// RegisterFile calls f.
func (f RegistrarFunc) RegisterFile(ctx context.Context, req RegisterRequest) (string, error) {
	return f(ctx, req)
}

// PackLabel packs free text into a short-string felt. Text longer than
// scalar.MaxShortStringLen bytes is truncated and bytes outside printable
// ASCII become '?', so any filename can be encoded.
func PackLabel(s string) felt.Element {
	if len(s) > scalar.MaxShortStringLen {
		s = s[:scalar.MaxShortStringLen]
	}
	b := []byte(s)
	for i, c := range b {
		if c < 0x20 || c > 0x7e {
			b[i] = '?'
		}
	}
	e, err := scalar.EncodeShortString(string(b))
	if err != nil {
		// Unreachable: b is printable ASCII within the length limit.
		return felt.Zero
	}
	return e
}

// RegisterCalldata builds the register_file arguments:
// [content_hash, filename, file_type, file_size].
func RegisterCalldata(req RegisterRequest) []felt.Element {
	return []felt.Element{
		req.ContentHash,
		PackLabel(req.Filename),
		PackLabel(req.FileType),
		felt.FromUint64(req.FileSize),
	}
}

// StubRegistrar stands in for a signing, submitting write path. It validates
// the register_file selector, builds the calldata and derives a handle from it
// without contacting any node. The handle is not a transaction hash.
type StubRegistrar struct {
	selectors *SelectorTable
	now       func() time.Time
}

// StubOption configures a StubRegistrar.
type StubOption func(*StubRegistrar)

// WithStubSelectors replaces DefaultSelectors.
func WithStubSelectors(t *SelectorTable) StubOption {
	return func(s *StubRegistrar) { s.selectors = t }
}

// WithStubClock sets the time source mixed into handles.
func WithStubClock(now func() time.Time) StubOption {
	return func(s *StubRegistrar) { s.now = now }
}

// NewStubRegistrar creates a StubRegistrar.
func NewStubRegistrar(opts ...StubOption) *StubRegistrar {
	s := &StubRegistrar{selectors: DefaultSelectors, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Compile-time interface check.
var _ Registrar = (*StubRegistrar)(nil)

// RegisterFile returns "0x" + 64 hex digits. A cancelled context is reported
// as a transport failure.
func (s *StubRegistrar) RegisterFile(ctx context.Context, req RegisterRequest) (string, error) {
	selector, ok := s.selectors.Lookup(FnRegisterFile)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFunction, FnRegisterFile)
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrTransport, err)
	}

	d := sha3.NewLegacyKeccak256()
	sb := selector.Bytes()
	d.Write(sb[:])
	for _, e := range RegisterCalldata(req) {
		b := e.Bytes()
		d.Write(b[:])
	}
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(s.now().UnixNano()))
	d.Write(ts[:])

	return felt.HexPrefix + hex.EncodeToString(d.Sum(nil)), nil
}

// DryRunRegistrar simulates register_file through a read-only starknet_call
// before issuing a handle. A contract revert or an unreachable node fails the
// registration; a successful simulation yields the handle of the wrapped
// StubRegistrar.
type DryRunRegistrar struct {
	caller Caller
	stub   *StubRegistrar
}

// NewDryRunRegistrar creates a DryRunRegistrar.
func NewDryRunRegistrar(caller Caller, stub *StubRegistrar) *DryRunRegistrar {
	if stub == nil {
		stub = NewStubRegistrar()
	}
	return &DryRunRegistrar{caller: caller, stub: stub}
}

// Compile-time interface check.
var _ Registrar = (*DryRunRegistrar)(nil)

// RegisterFile simulates the write and returns a stub handle on success.
func (r *DryRunRegistrar) RegisterFile(ctx context.Context, req RegisterRequest) (string, error) {
	res, err := r.caller.Call(ctx, FnRegisterFile, RegisterCalldata(req)...)
	if err != nil {
		return "", err
	}
	if !res.OK() {
		return "", fmt.Errorf("%s: %w", FnRegisterFile, res.Err())
	}
	return r.stub.RegisterFile(ctx, req)
}
