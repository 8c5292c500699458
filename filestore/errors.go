package filestore

import "errors"

var (
	// ErrConflict indicates a record with the same content hash already exists.
	ErrConflict = errors.New("filestore: content hash already stored")

	// ErrNotFound indicates no record matches the lookup.
	ErrNotFound = errors.New("filestore: record not found")

	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("filestore: required parameter is nil")

	// ErrCorrupt indicates a stored record could not be decoded.
	ErrCorrupt = errors.New("filestore: corrupt record")
)
