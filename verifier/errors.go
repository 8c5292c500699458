package verifier

import "errors"

var (
	// ErrInvalidInput indicates the upload or lookup failed local validation.
	ErrInvalidInput = errors.New("verifier: invalid input")

	// ErrDuplicateContent indicates identical content is already registered.
	ErrDuplicateContent = errors.New("verifier: content already registered")

	// ErrChainUnavailable indicates the operation needs a chain client but none is configured.
	ErrChainUnavailable = errors.New("verifier: no chain client configured")

	// ErrNilParam indicates a required dependency is nil.
	ErrNilParam = errors.New("verifier: required parameter is nil")
)
