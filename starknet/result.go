package starknet

import (
	"errors"
	"fmt"

	"github.com/bitfsorg/libfileproof-go/felt"
)

// CodeMalformedResponse is the synthetic RPC error code reported when the node
// answered but the body was not a usable JSON-RPC envelope.
const CodeMalformedResponse = -32700

// ResultKind discriminates a CallResult.
type ResultKind int

const (
	// KindSuccess carries the decoded result felts.
	KindSuccess ResultKind = iota
	// KindRPCError carries the node's error code and message.
	KindRPCError
	// KindTransportFailure carries the transport-level cause.
	KindTransportFailure
)

func (k ResultKind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindRPCError:
		return "rpc_error"
	case KindTransportFailure:
		return "transport_failure"
	default:
		return fmt.Sprintf("ResultKind(%d)", int(k))
	}
}

// RPCError is the error object of a JSON-RPC response.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("starknet: rpc error %d: %s", e.Code, e.Message)
}

// CallResult is the outcome of one contract call. Exactly one of Values,
// RPCErr or TransportErr is meaningful, selected by Kind.
type CallResult struct {
	Kind         ResultKind
	Values       []felt.Element
	RPCErr       *RPCError
	TransportErr error
}

// Success builds a KindSuccess result.
func Success(values []felt.Element) CallResult {
	return CallResult{Kind: KindSuccess, Values: values}
}

// RPCFailure builds a KindRPCError result.
func RPCFailure(code int, message string) CallResult {
	return CallResult{Kind: KindRPCError, RPCErr: &RPCError{Code: code, Message: message}}
}

// TransportFailure builds a KindTransportFailure result. The cause is wrapped
// with ErrTransport unless it already is one.
func TransportFailure(cause error) CallResult {
	if !errors.Is(cause, ErrTransport) {
		cause = fmt.Errorf("%w: %w", ErrTransport, cause)
	}
	return CallResult{Kind: KindTransportFailure, TransportErr: cause}
}

func malformed(format string, args ...any) CallResult {
	return RPCFailure(CodeMalformedResponse, "malformed response: "+fmt.Sprintf(format, args...))
}

// OK reports whether the call succeeded.
func (r CallResult) OK() bool {
	return r.Kind == KindSuccess
}

// Err returns nil for a success, the *RPCError for an RPC failure and the
// wrapped transport error otherwise.
func (r CallResult) Err() error {
	switch r.Kind {
	case KindSuccess:
		return nil
	case KindRPCError:
		return r.RPCErr
	default:
		return r.TransportErr
	}
}

// IsTrue reports whether the call succeeded with exactly the single value 1,
// the Cairo encoding of boolean true.
func (r CallResult) IsTrue() bool {
	return r.OK() && len(r.Values) == 1 && r.Values[0].Equal(felt.One)
}
