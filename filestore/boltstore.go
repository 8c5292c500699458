package filestore

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fxamacker/cbor/v2"
	"go.etcd.io/bbolt"

	"github.com/bitfsorg/libfileproof-go/felt"
)

var (
	bucketRecords  = []byte("records")
	bucketByHash   = []byte("records_by_hash")
	bucketByAuthor = []byte("records_by_author")
)

// authorSep separates the author address from the record id in index keys.
const authorSep = 0x00

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("filestore: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("filestore: CBOR decoder initialization failed: " + err.Error())
	}
}

// recordDTO is the on-disk form of a Record. Times are Unix nanoseconds.
type recordDTO struct {
	ID            uint64 `cbor:"1,keyasint"`
	Filename      string `cbor:"2,keyasint"`
	FileType      string `cbor:"3,keyasint"`
	FileSize      int64  `cbor:"4,keyasint"`
	ContentHash   []byte `cbor:"5,keyasint"`
	AuthorAddress string `cbor:"6,keyasint"`
	ChainTxHandle string `cbor:"7,keyasint,omitempty"`
	CreatedAt     int64  `cbor:"8,keyasint"`
	UpdatedAt     int64  `cbor:"9,keyasint"`
}

func encodeRecord(r *Record) ([]byte, error) {
	hash := r.ContentHash.Bytes()
	return encMode.Marshal(recordDTO{
		ID:            r.ID,
		Filename:      r.Filename,
		FileType:      r.FileType,
		FileSize:      r.FileSize,
		ContentHash:   hash[:],
		AuthorAddress: r.AuthorAddress,
		ChainTxHandle: r.ChainTxHandle,
		CreatedAt:     r.CreatedAt.UnixNano(),
		UpdatedAt:     r.UpdatedAt.UnixNano(),
	})
}

func decodeRecord(data []byte) (*Record, error) {
	var dto recordDTO
	if err := decMode.Unmarshal(data, &dto); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	hash, err := felt.SetCanonical(dto.ContentHash)
	if err != nil {
		return nil, fmt.Errorf("%w: content hash: %w", ErrCorrupt, err)
	}
	return &Record{
		ID:            dto.ID,
		Filename:      dto.Filename,
		FileType:      dto.FileType,
		FileSize:      dto.FileSize,
		ContentHash:   hash,
		AuthorAddress: dto.AuthorAddress,
		ChainTxHandle: dto.ChainTxHandle,
		CreatedAt:     time.Unix(0, dto.CreatedAt).UTC(),
		UpdatedAt:     time.Unix(0, dto.UpdatedAt).UTC(),
	}, nil
}

// idKey encodes a record id as an 8-byte big-endian key for sorted storage.
func idKey(id uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, id)
	return k
}

func hashKey(h felt.Element) []byte {
	b := h.Bytes()
	return b[:]
}

func authorPrefix(author string) []byte {
	p := make([]byte, 0, len(author)+1)
	p = append(p, author...)
	return append(p, authorSep)
}

// BoltStore is a Store backed by a bbolt database.
type BoltStore struct {
	db  *bbolt.DB
	now func() time.Time
}

// Compile-time interface check.
var _ Store = (*BoltStore)(nil)

// OpenBoltStore opens or creates the bbolt database at dbPath.
// The parent directory is created if it does not exist.
func OpenBoltStore(dbPath string, opts ...Option) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("filestore: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("filestore: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketRecords, bucketByHash, bucketByAuthor} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("filestore: create buckets: %w", err)
	}

	o := buildOptions(opts)
	return &BoltStore{db: db, now: o.now}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error { return s.db.Close() }

// Exists reports whether hash is stored.
func (s *BoltStore) Exists(hash felt.Element) (bool, error) {
	var ok bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		ok = tx.Bucket(bucketByHash).Get(hashKey(hash)) != nil
		return nil
	})
	return ok, err
}

// Insert stores rec. The uniqueness check and the write share one transaction.
func (s *BoltStore) Insert(rec *Record) (*Record, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: record", ErrNilParam)
	}

	stored := *rec
	err := s.db.Update(func(tx *bbolt.Tx) error {
		hb := tx.Bucket(bucketByHash)
		hk := hashKey(stored.ContentHash)
		if hb.Get(hk) != nil {
			return fmt.Errorf("%w: %s", ErrConflict, stored.ContentHash)
		}

		rb := tx.Bucket(bucketRecords)
		id, err := rb.NextSequence()
		if err != nil {
			return fmt.Errorf("filestore: next sequence: %w", err)
		}
		stored.ID = id
		stored.CreatedAt = s.now().UTC()
		stored.UpdatedAt = stored.CreatedAt

		data, err := encodeRecord(&stored)
		if err != nil {
			return fmt.Errorf("filestore: encode record: %w", err)
		}
		ik := idKey(id)
		if err := rb.Put(ik, data); err != nil {
			return fmt.Errorf("filestore: put record: %w", err)
		}
		if err := hb.Put(hk, ik); err != nil {
			return fmt.Errorf("filestore: put hash index: %w", err)
		}
		ak := append(authorPrefix(stored.AuthorAddress), ik...)
		if err := tx.Bucket(bucketByAuthor).Put(ak, []byte{}); err != nil {
			return fmt.Errorf("filestore: put author index: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// UpdateChainHandle sets the chain handle of record id.
func (s *BoltStore) UpdateChainHandle(id uint64, handle string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		rb := tx.Bucket(bucketRecords)
		ik := idKey(id)
		data := rb.Get(ik)
		if data == nil {
			return fmt.Errorf("%w: id %d", ErrNotFound, id)
		}
		rec, err := decodeRecord(data)
		if err != nil {
			return err
		}
		rec.ChainTxHandle = handle
		rec.UpdatedAt = s.now().UTC()

		out, err := encodeRecord(rec)
		if err != nil {
			return fmt.Errorf("filestore: encode record: %w", err)
		}
		if err := rb.Put(ik, out); err != nil {
			return fmt.Errorf("filestore: update record: %w", err)
		}
		return nil
	})
}

// FindByHash returns the record for hash or ErrNotFound.
func (s *BoltStore) FindByHash(hash felt.Element) (*Record, error) {
	var rec *Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		ik := tx.Bucket(bucketByHash).Get(hashKey(hash))
		if ik == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, hash)
		}
		data := tx.Bucket(bucketRecords).Get(ik)
		if data == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, hash) // stale index entry
		}
		var err error
		rec, err = decodeRecord(data)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListAll returns every record, newest first.
func (s *BoltStore) ListAll() ([]*Record, error) {
	var recs []*Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRecords).ForEach(func(k, v []byte) error {
			rec, err := decodeRecord(v)
			if err != nil {
				return err
			}
			recs = append(recs, rec)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("filestore: list records: %w", err)
	}
	sortNewestFirst(recs)
	return recs, nil
}

// ListByAuthor returns the author's records, newest first.
func (s *BoltStore) ListByAuthor(author string) ([]*Record, error) {
	prefix := authorPrefix(author)
	var recs []*Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		rb := tx.Bucket(bucketRecords)
		c := tx.Bucket(bucketByAuthor).Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			ik := k[len(prefix):]
			if len(ik) != 8 {
				continue // author containing the separator byte
			}
			data := rb.Get(ik)
			if data == nil {
				continue // stale index entry
			}
			rec, err := decodeRecord(data)
			if err != nil {
				return err
			}
			if rec.AuthorAddress != author {
				continue
			}
			recs = append(recs, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("filestore: list by author: %w", err)
	}
	sortNewestFirst(recs)
	return recs, nil
}
