package verifier

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/bitfsorg/libfileproof-go/contenthash"
	"github.com/bitfsorg/libfileproof-go/felt"
	"github.com/bitfsorg/libfileproof-go/filestore"
	"github.com/bitfsorg/libfileproof-go/scalar"
	"github.com/bitfsorg/libfileproof-go/starknet"
)

const testContract = "0x6ebf0234be358bd087fdf5165d4b5cf7103fa1d00b8a4edb32b6e61b6d764f0"

func newService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	svc, err := NewService(contenthash.Default(), filestore.NewMemStore(), opts...)
	require.NoError(t, err)
	return svc
}

func chainReturning(res starknet.CallResult) *starknet.MockCaller {
	return &starknet.MockCaller{CallFn: func(ctx context.Context, function string, calldata ...felt.Element) (starknet.CallResult, error) {
		return res, nil
	}}
}

func okRegistrar(handle string) *starknet.MockRegistrar {
	return &starknet.MockRegistrar{RegisterFileFn: func(ctx context.Context, req starknet.RegisterRequest) (string, error) {
		return handle, nil
	}}
}

func upload(data []byte) Upload {
	return Upload{Data: data, Filename: "a.bin", FileType: "application/octet-stream", AuthorAddress: "0xabc"}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(nil, filestore.NewMemStore())
	assert.ErrorIs(t, err, ErrNilParam)
	_, err = NewService(contenthash.Default(), nil)
	assert.ErrorIs(t, err, ErrNilParam)
}

func TestRegisterAndVerify(t *testing.T) {
	var gotReq starknet.RegisterRequest
	reg := &starknet.MockRegistrar{RegisterFileFn: func(ctx context.Context, req starknet.RegisterRequest) (string, error) {
		gotReq = req
		return "0xfeed", nil
	}}
	svc := newService(t, WithRegistrar(reg), WithChain(chainReturning(starknet.Success([]felt.Element{felt.One}))))

	rec, err := svc.Register(context.Background(), upload([]byte{1, 2, 3}))
	require.NoError(t, err)
	want := contenthash.Default().Hash([]byte{1, 2, 3})
	assert.True(t, rec.ContentHash.Equal(want))
	assert.Equal(t, "0xabc", rec.AuthorAddress)
	assert.Equal(t, int64(3), rec.FileSize)
	assert.Equal(t, "0xfeed", rec.ChainTxHandle)

	assert.True(t, gotReq.ContentHash.Equal(want))
	assert.Equal(t, "a.bin", gotReq.Filename)
	assert.Equal(t, uint64(3), gotReq.FileSize)

	v, err := svc.Verify(context.Background(), want)
	require.NoError(t, err)
	assert.Equal(t, Found, v.Status)
	require.NotNil(t, v.Record)
	assert.Equal(t, "0xabc", v.Record.AuthorAddress)
	assert.Equal(t, "0xfeed", v.Record.ChainTxHandle)
	require.NotNil(t, v.ChainConfirmed)
	assert.True(t, *v.ChainConfirmed)
}

func TestRegisterReturnsStoredRecord(t *testing.T) {
	var tick int64
	clock := func() time.Time {
		tick++
		return time.Unix(tick, 0).UTC()
	}
	store := filestore.NewMemStore(filestore.WithClock(clock))
	svc, err := NewService(contenthash.Default(), store, WithRegistrar(okRegistrar("0xfeed")))
	require.NoError(t, err)

	rec, err := svc.Register(context.Background(), upload([]byte{1, 2, 3}))
	require.NoError(t, err)

	stored, err := store.FindByHash(rec.ContentHash)
	require.NoError(t, err)
	assert.Equal(t, "0xfeed", rec.ChainTxHandle)
	assert.True(t, rec.UpdatedAt.Equal(stored.UpdatedAt))
	assert.True(t, rec.UpdatedAt.After(rec.CreatedAt))
}

func TestRegisterLocalOnly(t *testing.T) {
	svc := newService(t)
	rec, err := svc.Register(context.Background(), upload([]byte{1, 2, 3}))
	require.NoError(t, err)
	assert.False(t, rec.HasChainHandle())

	v, err := svc.Verify(context.Background(), rec.ContentHash)
	require.NoError(t, err)
	assert.Equal(t, Found, v.Status)
	assert.Nil(t, v.ChainConfirmed)
}

func TestRegisterInvalidInput(t *testing.T) {
	svc := newService(t, WithMaxFileSize(4))
	tests := []struct {
		name string
		up   Upload
	}{
		{"empty", upload(nil)},
		{"too large", upload([]byte{1, 2, 3, 4, 5})},
		{"no author", Upload{Data: []byte{1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.up)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	rec, err := svc.Register(context.Background(), upload([]byte{1, 2, 3, 4}))
	require.NoError(t, err)
	assert.Equal(t, int64(4), rec.FileSize)

	all, err := svc.ListAll()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRegisterDefaultSizeLimit(t *testing.T) {
	svc := newService(t)
	_, err := svc.Register(context.Background(), upload(make([]byte, DefaultMaxFileSize+1)))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Register(context.Background(), upload(make([]byte, DefaultMaxFileSize)))
	assert.NoError(t, err)
}

func TestRegisterDuplicate(t *testing.T) {
	var calls atomic.Int32
	reg := &starknet.MockRegistrar{RegisterFileFn: func(ctx context.Context, req starknet.RegisterRequest) (string, error) {
		calls.Add(1)
		return "0x1", nil
	}}
	svc := newService(t, WithRegistrar(reg))

	_, err := svc.Register(context.Background(), upload([]byte("same bytes")))
	require.NoError(t, err)

	second := upload([]byte("same bytes"))
	second.Filename = "other-name.txt"
	second.AuthorAddress = "0xdef"
	_, err = svc.Register(context.Background(), second)
	assert.ErrorIs(t, err, ErrDuplicateContent)

	all, err := svc.ListAll()
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Equal(t, int32(1), calls.Load(), "duplicates never reach the chain")
}

// racyStore reports content as absent and then loses the insert race.
type racyStore struct {
	filestore.Store
}

func (racyStore) Exists(felt.Element) (bool, error) { return false, nil }

func (racyStore) Insert(*filestore.Record) (*filestore.Record, error) {
	return nil, filestore.ErrConflict
}

func TestRegisterStoreConflict(t *testing.T) {
	svc, err := NewService(contenthash.Default(), racyStore{filestore.NewMemStore()})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), upload([]byte{9}))
	assert.ErrorIs(t, err, ErrDuplicateContent)
	assert.ErrorIs(t, err, filestore.ErrConflict)
}

// failingStore fails every lookup.
type failingStore struct {
	filestore.Store
}

var errDisk = errors.New("disk on fire")

func (failingStore) Exists(felt.Element) (bool, error)                { return false, errDisk }
func (failingStore) FindByHash(felt.Element) (*filestore.Record, error) { return nil, errDisk }

func TestStoreErrorsPropagate(t *testing.T) {
	svc, err := NewService(contenthash.Default(), failingStore{filestore.NewMemStore()})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), upload([]byte{1}))
	assert.ErrorIs(t, err, errDisk)

	_, err = svc.Verify(context.Background(), felt.One)
	assert.ErrorIs(t, err, errDisk)
}

func TestRegisterChainFailureKeepsRecord(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	reg := &starknet.MockRegistrar{RegisterFileFn: func(ctx context.Context, req starknet.RegisterRequest) (string, error) {
		return "", starknet.TransportFailure(context.DeadlineExceeded).Err()
	}}
	svc := newService(t, WithRegistrar(reg), WithLogger(zap.New(core)))

	before := testutil.ToFloat64(registerTotal.WithLabelValues(resultLocalOnly))
	rec, err := svc.Register(context.Background(), upload([]byte{1, 2, 3}))
	require.NoError(t, err)
	assert.False(t, rec.HasChainHandle())
	assert.Equal(t, before+1, testutil.ToFloat64(registerTotal.WithLabelValues(resultLocalOnly)))

	stored, err := filestoreOf(svc).FindByHash(rec.ContentHash)
	require.NoError(t, err)
	assert.Empty(t, stored.ChainTxHandle)

	entries := logs.FilterMessageSnippet("chain registration failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
}

// handleFailStore accepts records but cannot store chain handles.
type handleFailStore struct {
	*filestore.MemStore
}

func (handleFailStore) UpdateChainHandle(uint64, string) error { return errDisk }

func TestRegisterHandleUpdateFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	svc, err := NewService(contenthash.Default(), handleFailStore{filestore.NewMemStore()},
		WithRegistrar(okRegistrar("0xfeed")), WithLogger(zap.New(core)))
	require.NoError(t, err)

	rec, err := svc.Register(context.Background(), upload([]byte{1}))
	require.NoError(t, err)
	assert.Empty(t, rec.ChainTxHandle)
	assert.Equal(t, 1, logs.FilterMessage("failed to store chain handle").Len())
}

func TestRegisterCanceledContext(t *testing.T) {
	svc := newService(t, WithRegistrar(starknet.NewStubRegistrar()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec, err := svc.Register(ctx, upload([]byte{7}))
	require.NoError(t, err)
	assert.False(t, rec.HasChainHandle())
}

func TestRegisterWithStubRegistrar(t *testing.T) {
	now := time.Unix(1700000000, 0)
	svc := newService(t, WithRegistrar(starknet.NewStubRegistrar(starknet.WithStubClock(func() time.Time { return now }))))
	rec, err := svc.Register(context.Background(), upload([]byte{7}))
	require.NoError(t, err)
	assert.Len(t, rec.ChainTxHandle, 66)
}

func TestVerifyNotFound(t *testing.T) {
	var calls atomic.Int32
	chain := &starknet.MockCaller{CallFn: func(ctx context.Context, function string, calldata ...felt.Element) (starknet.CallResult, error) {
		calls.Add(1)
		return starknet.Success([]felt.Element{felt.One}), nil
	}}
	svc := newService(t, WithChain(chain))

	hash := contenthash.Default().Hash([]byte("never registered"))
	v, err := svc.Verify(context.Background(), hash)
	require.NoError(t, err)
	assert.Equal(t, NotFound, v.Status)
	assert.Nil(t, v.Record)
	assert.Nil(t, v.ChainConfirmed)
	assert.Zero(t, calls.Load())
}

func TestVerifyChainOutcomes(t *testing.T) {
	tests := []struct {
		name string
		res  starknet.CallResult
		want bool
	}{
		{"confirmed", starknet.Success([]felt.Element{felt.One}), true},
		{"zero", starknet.Success([]felt.Element{felt.Zero}), false},
		{"two values", starknet.Success([]felt.Element{felt.One, felt.One}), false},
		{"empty", starknet.Success(nil), false},
		{"rpc error", starknet.RPCFailure(21, "boom"), false},
		{"transport", starknet.TransportFailure(context.DeadlineExceeded), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(t, WithChain(chainReturning(tt.res)))
			rec, err := svc.Register(context.Background(), upload([]byte(tt.name)))
			require.NoError(t, err)

			v, err := svc.Verify(context.Background(), rec.ContentHash)
			require.NoError(t, err)
			assert.Equal(t, Found, v.Status)
			if tt.want {
				require.NotNil(t, v.ChainConfirmed)
				assert.True(t, *v.ChainConfirmed)
			} else {
				assert.Nil(t, v.ChainConfirmed, "absence of confirmation is not false")
			}
		})
	}
}

func TestVerifyUnknownFunctionFailsLoudly(t *testing.T) {
	client, err := starknet.NewClient(starknet.Config{URL: "http://127.0.0.1:1", ContractAddress: testContract},
		starknet.WithSelectors(starknet.NewSelectorTable(starknet.FnVerifyFile)))
	require.NoError(t, err)
	svc := newService(t, WithChain(client))

	rec, err := svc.Register(context.Background(), upload([]byte{1}))
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), rec.ContentHash)
	assert.ErrorIs(t, err, starknet.ErrUnknownFunction)
}

func TestVerifyHex(t *testing.T) {
	svc := newService(t)
	rec, err := svc.Register(context.Background(), upload([]byte{1, 2, 3}))
	require.NoError(t, err)

	v, err := svc.VerifyHex(context.Background(), rec.ContentHash.Hex())
	require.NoError(t, err)
	assert.Equal(t, Found, v.Status)

	for _, bad := range []string{"", "0x", "not-hex", "0x800000000000011000000000000000000000000000000000000000000000001"} {
		_, err := svc.VerifyHex(context.Background(), bad)
		assert.ErrorIs(t, err, ErrInvalidInput, bad)
	}
}

func TestVerifyConfirmationCache(t *testing.T) {
	cache, err := NewConfirmationCache(context.Background(), time.Minute)
	require.NoError(t, err)
	defer cache.Close()

	var calls atomic.Int32
	chain := &starknet.MockCaller{CallFn: func(ctx context.Context, function string, calldata ...felt.Element) (starknet.CallResult, error) {
		calls.Add(1)
		return starknet.Success([]felt.Element{felt.One}), nil
	}}
	svc := newService(t, WithChain(chain), WithConfirmationCache(cache))
	rec, err := svc.Register(context.Background(), upload([]byte{1}))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		v, err := svc.Verify(context.Background(), rec.ContentHash)
		require.NoError(t, err)
		require.NotNil(t, v.ChainConfirmed)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestVerifyDoesNotCacheUnconfirmed(t *testing.T) {
	cache, err := NewConfirmationCache(context.Background(), time.Minute)
	require.NoError(t, err)
	defer cache.Close()

	var calls atomic.Int32
	chain := &starknet.MockCaller{CallFn: func(ctx context.Context, function string, calldata ...felt.Element) (starknet.CallResult, error) {
		calls.Add(1)
		return starknet.RPCFailure(21, "boom"), nil
	}}
	svc := newService(t, WithChain(chain), WithConfirmationCache(cache))
	rec, err := svc.Register(context.Background(), upload([]byte{1}))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := svc.Verify(context.Background(), rec.ContentHash)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), calls.Load())
}

// TestRPCErrorScenario runs a real client against a node that fails every call.
func TestRPCErrorScenario(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","error":{"code":21,"message":"boom"}}`))
	}))
	defer server.Close()

	client, err := starknet.NewClient(starknet.Config{URL: server.URL, ContractAddress: testContract, Timeout: time.Second})
	require.NoError(t, err)

	res, err := client.Call(context.Background(), starknet.FnIsFileRegistered, felt.One)
	require.NoError(t, err)
	require.Equal(t, starknet.KindRPCError, res.Kind)
	assert.Equal(t, 21, res.RPCErr.Code)
	assert.Equal(t, "boom", res.RPCErr.Message)

	core, logs := observer.New(zapcore.WarnLevel)
	svc := newService(t,
		WithChain(client),
		WithRegistrar(starknet.NewDryRunRegistrar(client, nil)),
		WithLogger(zap.New(core)))

	rec, err := svc.Register(context.Background(), upload([]byte{1, 2, 3}))
	require.NoError(t, err)
	assert.False(t, rec.HasChainHandle())
	assert.Equal(t, 1, logs.FilterMessageSnippet("chain registration failed").Len())

	v, err := svc.Verify(context.Background(), rec.ContentHash)
	require.NoError(t, err)
	assert.Equal(t, Found, v.Status)
	assert.Nil(t, v.ChainConfirmed)

	outcome := starknet.KindRPCError.String()
	assert.GreaterOrEqual(t, testutil.ToFloat64(chainCallsTotal.WithLabelValues(starknet.FnIsFileRegistered, outcome)), 1.0)
}

func TestChainDetails(t *testing.T) {
	name, err := scalar.EncodeShortString("a.bin")
	require.NoError(t, err)
	chain := chainReturning(starknet.Success([]felt.Element{
		felt.MustParse("0xabc"), name, felt.Zero, felt.FromUint64(3), felt.FromUint64(1700000000),
	}))
	svc := newService(t, WithChain(chain))

	info, err := svc.ChainDetails(context.Background(), felt.One)
	require.NoError(t, err)
	assert.Equal(t, "a.bin", info.Filename)
	assert.Equal(t, "", info.FileType)
	assert.Equal(t, uint64(3), info.FileSize)

	_, err = newService(t).ChainDetails(context.Background(), felt.One)
	assert.ErrorIs(t, err, ErrChainUnavailable)

	_, err = newService(t, WithChain(chainReturning(starknet.RPCFailure(21, "boom")))).
		ChainDetails(context.Background(), felt.One)
	var rpcErr *starknet.RPCError
	assert.ErrorAs(t, err, &rpcErr)
}

func TestIsRegisteredOnChain(t *testing.T) {
	ok, err := newService(t, WithChain(chainReturning(starknet.Success([]felt.Element{felt.One})))).
		IsRegisteredOnChain(context.Background(), felt.One)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = newService(t).IsRegisteredOnChain(context.Background(), felt.One)
	assert.ErrorIs(t, err, ErrChainUnavailable)
}

func TestListByAuthor(t *testing.T) {
	svc := newService(t)
	for i, author := range []string{"0xa", "0xb", "0xa"} {
		up := upload([]byte{byte(i + 1)})
		up.AuthorAddress = author
		_, err := svc.Register(context.Background(), up)
		require.NoError(t, err)
	}

	mine, err := svc.ListByAuthor("0xa")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	_, err = svc.ListByAuthor("")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRegisterMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, RegisterMetrics(reg))
	require.NoError(t, RegisterMetrics(reg))

	before := testutil.ToFloat64(verifyTotal.WithLabelValues(resultNotFound))
	_, err := newService(t).Verify(context.Background(), felt.One)
	require.NoError(t, err)
	assert.Equal(t, before+1, testutil.ToFloat64(verifyTotal.WithLabelValues(resultNotFound)))
}

func TestStatusText(t *testing.T) {
	b, err := Found.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "found", string(b))
	assert.Equal(t, "not_found", NotFound.String())
}

func filestoreOf(s *Service) filestore.Store { return s.store }
