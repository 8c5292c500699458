// Package filestore persists file registration records.
//
// A Record is keyed by its content hash: a store holds at most one record per
// hash and rejects a second insert with ErrConflict atomically. Listings are
// ordered newest first.
package filestore

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bitfsorg/libfileproof-go/felt"
)

// Record is a locally stored file registration.
type Record struct {
	ID            uint64       `json:"id"`
	Filename      string       `json:"filename"`
	FileType      string       `json:"file_type"`
	FileSize      int64        `json:"file_size"`
	ContentHash   felt.Element `json:"content_hash"`
	AuthorAddress string       `json:"author_address"`
	// ChainTxHandle is empty until a chain submission succeeds.
	ChainTxHandle string    `json:"chain_tx_handle,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// HasChainHandle reports whether the record was submitted to the chain.
func (r *Record) HasChainHandle() bool {
	return r.ChainTxHandle != ""
}

// Store persists file records.
type Store interface {
	// Exists reports whether a record with the content hash is stored.
	Exists(hash felt.Element) (bool, error)

	// Insert stores rec, assigning ID, CreatedAt and UpdatedAt. It returns
	// ErrConflict if the content hash is already stored. The input is not
	// modified; the stored copy is returned.
	Insert(rec *Record) (*Record, error)

	// UpdateChainHandle sets the chain handle of record id.
	UpdateChainHandle(id uint64, handle string) error

	// FindByHash returns the record with the content hash or ErrNotFound.
	FindByHash(hash felt.Element) (*Record, error)

	// ListAll returns every record, newest first.
	ListAll() ([]*Record, error)

	// ListByAuthor returns the records of one author, newest first.
	ListByAuthor(author string) ([]*Record, error)
}

// Option configures a store.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock sets the time source for CreatedAt and UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// sortNewestFirst orders records by CreatedAt descending, ID descending on ties.
func sortNewestFirst(recs []*Record) {
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].CreatedAt.After(recs[j].CreatedAt)
		}
		return recs[i].ID > recs[j].ID
	})
}

// MemStore is an in-memory Store. It is safe for concurrent use.
type MemStore struct {
	mu     sync.RWMutex
	now    func() time.Time
	nextID uint64
	byID   map[uint64]*Record
	byHash map[felt.Element]uint64
}

// Compile-time interface check.
var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty in-memory store.
func NewMemStore(opts ...Option) *MemStore {
	o := buildOptions(opts)
	return &MemStore{
		now:    o.now,
		byID:   make(map[uint64]*Record),
		byHash: make(map[felt.Element]uint64),
	}
}

// Exists reports whether hash is stored.
func (s *MemStore) Exists(hash felt.Element) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byHash[hash]
	return ok, nil
}

// Insert stores a copy of rec.
func (s *MemStore) Insert(rec *Record) (*Record, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: record", ErrNilParam)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byHash[rec.ContentHash]; exists {
		return nil, fmt.Errorf("%w: %s", ErrConflict, rec.ContentHash)
	}

	s.nextID++
	stored := *rec
	stored.ID = s.nextID
	stored.CreatedAt = s.now()
	stored.UpdatedAt = stored.CreatedAt

	s.byID[stored.ID] = &stored
	s.byHash[stored.ContentHash] = stored.ID

	out := stored
	return &out, nil
}

// UpdateChainHandle sets the chain handle of record id.
func (s *MemStore) UpdateChainHandle(id uint64, handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	rec.ChainTxHandle = handle
	rec.UpdatedAt = s.now()
	return nil
}

// FindByHash returns a copy of the record for hash.
func (s *MemStore) FindByHash(hash felt.Element) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byHash[hash]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, hash)
	}
	out := *s.byID[id]
	return &out, nil
}

// ListAll returns copies of every record, newest first.
func (s *MemStore) ListAll() ([]*Record, error) {
	return s.list(func(*Record) bool { return true }), nil
}

// ListByAuthor returns copies of the author's records, newest first.
func (s *MemStore) ListByAuthor(author string) ([]*Record, error) {
	return s.list(func(r *Record) bool { return r.AuthorAddress == author }), nil
}

func (s *MemStore) list(keep func(*Record) bool) []*Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Record, 0, len(s.byID))
	for _, rec := range s.byID {
		if keep(rec) {
			out := *rec
			result = append(result, &out)
		}
	}
	sortNewestFirst(result)
	return result
}
