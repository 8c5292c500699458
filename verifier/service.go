// Package verifier registers file content and verifies it against the local
// record store and the on-chain registry.
//
// Local validation and store failures are returned to the caller. Chain
// failures never are: registration keeps the stored record without a chain
// handle, and verification reports the chain status as unknown.
package verifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/allegro/bigcache/v3"
	"go.uber.org/zap"

	"github.com/bitfsorg/libfileproof-go/felt"
	"github.com/bitfsorg/libfileproof-go/filestore"
	"github.com/bitfsorg/libfileproof-go/starknet"
)

// DefaultMaxFileSize is the largest accepted upload.
const DefaultMaxFileSize = 10 << 20

// ContentHasher reduces file bytes to a field element.
type ContentHasher interface {
	Hash(data []byte) felt.Element
}

// Upload is a file submitted for registration.
type Upload struct {
	Data          []byte
	Filename      string
	FileType      string
	AuthorAddress string
}

// Status is the outcome of a verification lookup.
type Status int

const (
	// NotFound means no local record exists for the hash.
	NotFound Status = iota
	// Found means a local record exists.
	Found
)

func (s Status) String() string {
	if s == Found {
		return "found"
	}
	return "not_found"
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Verification is the result of Verify. Record is nil when Status is NotFound.
// ChainConfirmed is nil when the chain could not confirm the registration,
// which is not evidence that the record is forged.
type Verification struct {
	Hash           felt.Element      `json:"hash"`
	Status         Status            `json:"status"`
	Record         *filestore.Record `json:"record,omitempty"`
	ChainConfirmed *bool             `json:"chain_confirmed,omitempty"`
}

// Service coordinates hashing, the record store and the chain.
type Service struct {
	hasher    ContentHasher
	store     filestore.Store
	chain     starknet.Caller
	registrar starknet.Registrar
	cache     *bigcache.BigCache
	maxSize   int
	log       *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithChain enables on-chain cross-checks through c.
func WithChain(c starknet.Caller) Option {
	return func(s *Service) { s.chain = c }
}

// WithRegistrar enables best-effort on-chain registration through r.
func WithRegistrar(r starknet.Registrar) Option {
	return func(s *Service) { s.registrar = r }
}

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithMaxFileSize overrides DefaultMaxFileSize.
func WithMaxFileSize(n int) Option {
	return func(s *Service) { s.maxSize = n }
}

// WithConfirmationCache remembers positive chain confirmations in c.
func WithConfirmationCache(c *bigcache.BigCache) Option {
	return func(s *Service) { s.cache = c }
}

// NewService creates a Service. Without WithChain every verification reports
// an unknown chain status; without WithRegistrar records are stored locally only.
func NewService(hasher ContentHasher, store filestore.Store, opts ...Option) (*Service, error) {
	if hasher == nil {
		return nil, fmt.Errorf("%w: hasher", ErrNilParam)
	}
	if store == nil {
		return nil, fmt.Errorf("%w: store", ErrNilParam)
	}
	s := &Service{
		hasher:  hasher,
		store:   store,
		maxSize: DefaultMaxFileSize,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.chain != nil {
		s.chain = countingCaller{next: s.chain}
	}
	return s, nil
}

// Register validates and hashes an upload, stores its record and then makes a
// single best-effort chain registration attempt.
func (s *Service) Register(ctx context.Context, up Upload) (*filestore.Record, error) {
	if len(up.Data) == 0 {
		registerTotal.WithLabelValues(resultInvalid).Inc()
		return nil, fmt.Errorf("%w: file is empty", ErrInvalidInput)
	}
	if len(up.Data) > s.maxSize {
		registerTotal.WithLabelValues(resultInvalid).Inc()
		return nil, fmt.Errorf("%w: file size %d exceeds limit %d", ErrInvalidInput, len(up.Data), s.maxSize)
	}
	if up.AuthorAddress == "" {
		registerTotal.WithLabelValues(resultInvalid).Inc()
		return nil, fmt.Errorf("%w: author address is required", ErrInvalidInput)
	}

	hash := s.hasher.Hash(up.Data)
	log := s.log.With(zap.Stringer("hash", hash), zap.String("author", up.AuthorAddress))

	exists, err := s.store.Exists(hash)
	if err != nil {
		registerTotal.WithLabelValues(resultStoreError).Inc()
		return nil, fmt.Errorf("verifier: check existing record: %w", err)
	}
	if exists {
		registerTotal.WithLabelValues(resultDuplicate).Inc()
		return nil, fmt.Errorf("%w: %s", ErrDuplicateContent, hash)
	}

	rec, err := s.store.Insert(&filestore.Record{
		Filename:      up.Filename,
		FileType:      up.FileType,
		FileSize:      int64(len(up.Data)),
		ContentHash:   hash,
		AuthorAddress: up.AuthorAddress,
	})
	if err != nil {
		if errors.Is(err, filestore.ErrConflict) {
			registerTotal.WithLabelValues(resultDuplicate).Inc()
			return nil, fmt.Errorf("%w: %w", ErrDuplicateContent, err)
		}
		registerTotal.WithLabelValues(resultStoreError).Inc()
		return nil, fmt.Errorf("verifier: store record: %w", err)
	}
	log.Info("file record stored", zap.Uint64("id", rec.ID), zap.Int64("size", rec.FileSize))

	if s.registrar == nil {
		registerTotal.WithLabelValues(resultLocalOnly).Inc()
		return rec, nil
	}

	handle, err := s.registrar.RegisterFile(ctx, starknet.RegisterRequest{
		ContentHash: hash,
		Filename:    up.Filename,
		FileType:    up.FileType,
		FileSize:    uint64(len(up.Data)),
	})
	if err != nil {
		if errors.Is(err, starknet.ErrUnknownFunction) {
			log.Error("chain registration misconfigured", zap.Error(err))
		} else {
			log.Warn("chain registration failed, record kept without handle", zap.Error(err))
		}
		registerTotal.WithLabelValues(resultLocalOnly).Inc()
		return rec, nil
	}

	if err := s.store.UpdateChainHandle(rec.ID, handle); err != nil {
		log.Warn("failed to store chain handle", zap.String("handle", handle), zap.Error(err))
		registerTotal.WithLabelValues(resultLocalOnly).Inc()
		return rec, nil
	}
	if stored, err := s.store.FindByHash(hash); err == nil {
		rec = stored
	} else {
		rec.ChainTxHandle = handle
	}
	log.Info("file registered on chain", zap.String("handle", handle))
	registerTotal.WithLabelValues(resultRegistered).Inc()
	return rec, nil
}

// Verify looks up the record for hash and, when a chain client is configured,
// cross-checks its on-chain registration. Only ErrUnknownFunction and store
// failures are returned as errors.
func (s *Service) Verify(ctx context.Context, hash felt.Element) (*Verification, error) {
	rec, err := s.store.FindByHash(hash)
	if errors.Is(err, filestore.ErrNotFound) {
		verifyTotal.WithLabelValues(resultNotFound).Inc()
		return &Verification{Hash: hash, Status: NotFound}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("verifier: find record: %w", err)
	}

	v := &Verification{Hash: hash, Status: Found, Record: rec}
	confirmed, err := s.confirm(ctx, hash)
	if err != nil {
		return nil, err
	}
	if confirmed {
		v.ChainConfirmed = &confirmed
		verifyTotal.WithLabelValues(resultConfirmed).Inc()
	} else {
		verifyTotal.WithLabelValues(resultUnconfirmed).Inc()
	}
	return v, nil
}

// VerifyHex parses s strictly and verifies it.
func (s *Service) VerifyHex(ctx context.Context, hex string) (*Verification, error) {
	hash, err := felt.ParseStrict(hex)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return s.Verify(ctx, hash)
}

// confirm reports whether the chain positively confirmed hash.
func (s *Service) confirm(ctx context.Context, hash felt.Element) (bool, error) {
	if s.chain == nil {
		return false, nil
	}
	key := hash.Hex()
	if s.cache != nil {
		if _, err := s.cache.Get(key); err == nil {
			return true, nil
		} else if !errors.Is(err, bigcache.ErrEntryNotFound) {
			s.log.Debug("confirmation cache read failed", zap.Error(err))
		}
	}

	res, err := s.chain.Call(ctx, starknet.FnIsFileRegistered, hash)
	if err != nil {
		return false, fmt.Errorf("verifier: chain cross-check: %w", err)
	}
	if !res.IsTrue() {
		if !res.OK() {
			s.log.Warn("chain cross-check unavailable",
				zap.Stringer("hash", hash), zap.Stringer("outcome", res.Kind), zap.Error(res.Err()))
		}
		return false, nil
	}
	if s.cache != nil {
		if err := s.cache.Set(key, []byte{1}); err != nil {
			s.log.Debug("confirmation cache write failed", zap.Error(err))
		}
	}
	return true, nil
}

// ChainDetails fetches the on-chain record for hash.
func (s *Service) ChainDetails(ctx context.Context, hash felt.Element) (*starknet.FileInfo, error) {
	if s.chain == nil {
		return nil, ErrChainUnavailable
	}
	info, err := starknet.NewContract(s.chain).VerifyFile(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("verifier: chain details: %w", err)
	}
	return info, nil
}

// IsRegisteredOnChain asks the contract whether hash is registered.
func (s *Service) IsRegisteredOnChain(ctx context.Context, hash felt.Element) (bool, error) {
	if s.chain == nil {
		return false, ErrChainUnavailable
	}
	ok, err := starknet.NewContract(s.chain).IsFileRegistered(ctx, hash)
	if err != nil {
		return false, fmt.Errorf("verifier: chain lookup: %w", err)
	}
	return ok, nil
}

// ListAll returns every stored record, newest first.
func (s *Service) ListAll() ([]*filestore.Record, error) {
	return s.store.ListAll()
}

// ListByAuthor returns the records of author, newest first.
func (s *Service) ListByAuthor(author string) ([]*filestore.Record, error) {
	if author == "" {
		return nil, fmt.Errorf("%w: author address is required", ErrInvalidInput)
	}
	return s.store.ListByAuthor(author)
}

// countingCaller records the outcome of every contract call.
type countingCaller struct {
	next starknet.Caller
}

func (c countingCaller) Call(ctx context.Context, function string, calldata ...felt.Element) (starknet.CallResult, error) {
	res, err := c.next.Call(ctx, function, calldata...)
	if err == nil {
		chainCallsTotal.WithLabelValues(function, res.Kind.String()).Inc()
	}
	return res, err
}
