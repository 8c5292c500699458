// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import "errors"

var (
	// ErrInvalidNetwork indicates the network name is not recognized.
	ErrInvalidNetwork = errors.New("config: invalid network (must be \"sepolia\", \"devnet\", or \"mainnet\")")

	// ErrInvalidRPCURL indicates the RPC URL is not an absolute http(s) URL.
	ErrInvalidRPCURL = errors.New("config: invalid RPC URL")

	// ErrInvalidContract indicates the contract address is not a valid field element.
	ErrInvalidContract = errors.New("config: invalid contract address")

	// ErrInvalidTimeout indicates the RPC timeout is negative.
	ErrInvalidTimeout = errors.New("config: RPC timeout must not be negative")

	// ErrInvalidHash indicates the digest name is not recognized.
	ErrInvalidHash = errors.New("config: invalid hash")

	// ErrInvalidMaxFileSize indicates the upload limit is not positive.
	ErrInvalidMaxFileSize = errors.New("config: max file size must be positive")

	// ErrInvalidLogLevel indicates the log level is not recognized.
	ErrInvalidLogLevel = errors.New("config: invalid log level (must be \"debug\", \"info\", \"warn\", or \"error\")")

	// ErrEmptyDataDir indicates the data directory path is empty.
	ErrEmptyDataDir = errors.New("config: data directory must not be empty")

	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = errors.New("config: configuration file not found")

	// ErrInvalidConfigLine indicates a line in the config file is malformed.
	ErrInvalidConfigLine = errors.New("config: invalid configuration line")
)
