package starknet

import "errors"

var (
	// ErrUnknownFunction indicates the function name has no entry in the selector table.
	// This is a caller bug and is reported before any network activity.
	ErrUnknownFunction = errors.New("starknet: unknown contract function")

	// ErrTransport indicates the node could not be reached or the HTTP exchange failed.
	ErrTransport = errors.New("starknet: transport failure")

	// ErrInvalidResponse indicates a successful call returned data of the wrong shape.
	ErrInvalidResponse = errors.New("starknet: invalid response")

	// ErrInvalidConfig indicates the RPC configuration is incomplete or malformed.
	ErrInvalidConfig = errors.New("starknet: invalid configuration")
)
