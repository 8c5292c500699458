package starknet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/bitfsorg/libfileproof-go/felt"
)

const (
	jsonRPCVersion = "2.0"
	methodCall     = "starknet_call"
	blockLatest    = "latest"

	// maxResponseBytes caps how much of a node response is read.
	maxResponseBytes = 8 << 20
)

// Client is a read-only JSON-RPC 2.0 client for a single Starknet contract.
// It is safe for concurrent use. Client never retries; every Call is a single
// HTTP exchange bounded by the configured timeout.
type Client struct {
	url       string
	contract  felt.Element
	selectors *SelectorTable
	timeout   time.Duration
	client    *http.Client
	log       *zap.Logger
	nextID    atomic.Int64
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the pooled default HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.client = hc }
}

// WithSelectors replaces DefaultSelectors.
func WithSelectors(t *SelectorTable) ClientOption {
	return func(c *Client) { c.selectors = t }
}

// WithLogger sets the logger used for per-call debug output.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) { c.log = l }
}

// callRequest is the "request" member of starknet_call params.
type callRequest struct {
	ContractAddress    string   `json:"contract_address"`
	EntryPointSelector string   `json:"entry_point_selector"`
	Calldata           []string `json:"calldata"`
}

type callParams struct {
	Request callRequest `json:"request"`
	BlockID string      `json:"block_id"`
}

// rpcRequest represents a JSON-RPC 2.0 request payload.
type rpcRequest struct {
	JSONRPC string     `json:"jsonrpc"`
	Method  string     `json:"method"`
	Params  callParams `json:"params"`
	ID      int64      `json:"id"`
}

// rpcResponse represents a JSON-RPC 2.0 response payload. ID is a pointer so
// that error envelopes without an id are still accepted.
type rpcResponse struct {
	ID     *int64          `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

// NewClient creates a client for cfg. The contract address must be a strict
// felt; a missing URL is rejected.
func NewClient(cfg Config, opts ...ClientOption) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: empty RPC URL", ErrInvalidConfig)
	}
	contract, err := felt.ParseStrict(cfg.ContractAddress)
	if err != nil {
		return nil, fmt.Errorf("%w: contract address: %w", ErrInvalidConfig, err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := &Client{
		url:       cfg.URL,
		contract:  contract,
		selectors: DefaultSelectors,
		timeout:   timeout,
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
				MaxIdleConnsPerHost: 10,
			},
		},
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ContractAddress returns the contract every call targets.
func (c *Client) ContractAddress() felt.Element {
	return c.contract
}

// Selectors returns the table used to resolve function names.
func (c *Client) Selectors() *SelectorTable {
	return c.selectors
}

// Call invokes a read-only contract function at the latest block.
//
// The returned error is non-nil only for ErrUnknownFunction, which is checked
// before any network activity. Every remote outcome, including transport
// failures and malformed responses, is reported through the CallResult.
func (c *Client) Call(ctx context.Context, function string, calldata ...felt.Element) (CallResult, error) {
	selector, ok := c.selectors.Lookup(function)
	if !ok {
		return CallResult{}, fmt.Errorf("%w: %q", ErrUnknownFunction, function)
	}

	args := make([]string, 0, len(calldata))
	for _, e := range calldata {
		args = append(args, e.Hex())
	}
	reqBody := rpcRequest{
		JSONRPC: jsonRPCVersion,
		Method:  methodCall,
		Params: callParams{
			Request: callRequest{
				ContractAddress:    c.contract.Hex(),
				EntryPointSelector: selector.Hex(),
				Calldata:           args,
			},
			BlockID: blockLatest,
		},
		ID: c.nextID.Add(1),
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return TransportFailure(fmt.Errorf("marshal request: %w", err)), nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return TransportFailure(fmt.Errorf("create request: %w", err)), nil
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Debug("starknet call transport failure",
			zap.String("function", function), zap.Int64("id", reqBody.ID), zap.Error(err))
		return TransportFailure(err), nil
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return TransportFailure(fmt.Errorf("read response: %w", err)), nil
	}

	result := parseResponse(resp.StatusCode, respBody, reqBody.ID)
	c.log.Debug("starknet call",
		zap.String("function", function),
		zap.Int64("id", reqBody.ID),
		zap.Int("status", resp.StatusCode),
		zap.Stringer("outcome", result.Kind),
		zap.Duration("elapsed", time.Since(start)))
	return result, nil
}

// parseResponse classifies a completed HTTP exchange. A JSON-RPC error object
// wins regardless of HTTP status; a non-2xx status without one is a transport
// failure; any other unusable 2xx body is a malformed-response RPC error.
func parseResponse(status int, body []byte, wantID int64) CallResult {
	var env rpcResponse
	decodeErr := json.Unmarshal(body, &env)

	if decodeErr == nil && env.Error != nil {
		return CallResult{Kind: KindRPCError, RPCErr: env.Error}
	}
	if status < 200 || status >= 300 {
		snippet := body
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		return TransportFailure(fmt.Errorf("HTTP %d: %s", status, bytes.TrimSpace(snippet)))
	}
	if decodeErr != nil {
		return malformed("decode envelope: %v", decodeErr)
	}
	if env.ID != nil && *env.ID != wantID {
		return malformed("id mismatch: expected %d, got %d", wantID, *env.ID)
	}
	if len(env.Result) == 0 || string(env.Result) == "null" {
		return malformed("missing result and error")
	}

	var raw []string
	if err := json.Unmarshal(env.Result, &raw); err != nil {
		return malformed("result is not an array of hex strings")
	}
	values := make([]felt.Element, 0, len(raw))
	for i, s := range raw {
		v, err := felt.ParseStrict(s)
		if err != nil {
			return malformed("result[%d]: %v", i, err)
		}
		values = append(values, v)
	}
	return Success(values)
}
