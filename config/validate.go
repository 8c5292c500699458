// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/bitfsorg/libfileproof-go/contenthash"
	"github.com/bitfsorg/libfileproof-go/felt"
)

// validLogLevels lists the accepted log level strings.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validNetworks lists the accepted network names.
var validNetworks = map[string]bool{
	"sepolia": true,
	"devnet":  true,
	"mainnet": true,
}

// ValidateConfig checks that all configuration values are within acceptable
// ranges and returns the first error encountered, or nil if valid. Empty
// RPCURL and Contract are allowed; network presets fill them later.
func ValidateConfig(cfg Config) error {
	if cfg.DataDir == "" {
		return ErrEmptyDataDir
	}

	if !validNetworks[cfg.Network] {
		return ErrInvalidNetwork
	}

	if cfg.RPCURL != "" {
		if err := validateURL(cfg.RPCURL); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidRPCURL, err)
		}
	}

	if cfg.Contract != "" {
		if _, err := felt.ParseStrict(cfg.Contract); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidContract, err)
		}
	}

	if cfg.RPCTimeout < 0 {
		return ErrInvalidTimeout
	}

	if _, err := contenthash.DigestByName(cfg.Hash); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidHash, err)
	}

	if cfg.MaxFileSize <= 0 {
		return ErrInvalidMaxFileSize
	}

	if !validLogLevels[strings.ToLower(cfg.LogLevel)] {
		return ErrInvalidLogLevel
	}

	return nil
}

// validateURL checks that raw is an absolute http or https URL with a host.
func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}
