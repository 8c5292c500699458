package starknet

import (
	"context"

	"github.com/bitfsorg/libfileproof-go/felt"
)

// MockCaller is a test double for Caller.
// CallFn must be set before Call is used.
type MockCaller struct {
	CallFn func(ctx context.Context, function string, calldata ...felt.Element) (CallResult, error)
}

func (m *MockCaller) Call(ctx context.Context, function string, calldata ...felt.Element) (CallResult, error) {
	return m.CallFn(ctx, function, calldata...)
}

// MockRegistrar is a test double for Registrar.
// RegisterFileFn must be set before RegisterFile is used.
type MockRegistrar struct {
	RegisterFileFn func(ctx context.Context, req RegisterRequest) (string, error)
}

func (m *MockRegistrar) RegisterFile(ctx context.Context, req RegisterRequest) (string, error) {
	return m.RegisterFileFn(ctx, req)
}
