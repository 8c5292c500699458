package starknet

import (
	"fmt"
	"time"
)

// DefaultTimeout bounds a single contract call when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// Environment variables consulted by ResolveConfig.
const (
	EnvRPCURL     = "FILEPROOF_RPC_URL"
	EnvContract   = "FILEPROOF_CONTRACT"
	EnvRPCTimeout = "FILEPROOF_RPC_TIMEOUT"
)

// Config holds the connection parameters for a Starknet node and the file
// registry contract deployed on it.
type Config struct {
	Network         string        `json:"network"`
	URL             string        `json:"url"`
	ContractAddress string        `json:"contract_address"`
	Timeout         time.Duration `json:"timeout"`
}

// NetworkPresets contains default RPC configurations for known networks.
// Mainnet is intentionally omitted to require explicit configuration. The
// devnet preset has no contract address because every devnet deploys afresh.
var NetworkPresets = map[string]Config{
	"sepolia": {
		URL:             "https://starknet-sepolia.public.blastapi.io/rpc/v0_7",
		ContractAddress: "0x06ebf0234be358bd087fdf5165d4b5cf7103fa1d00b8a4edb32b6e61b6d764f0",
		Timeout:         DefaultTimeout,
	},
	"devnet": {
		URL:     "http://127.0.0.1:5050/rpc",
		Timeout: DefaultTimeout,
	},
}

// ResolveConfig merges RPC configuration from three sources with decreasing priority:
//  1. CLI flags (highest priority)
//  2. Environment variables (FILEPROOF_RPC_URL, FILEPROOF_CONTRACT, FILEPROOF_RPC_TIMEOUT)
//  3. Network presets (lowest priority, sepolia/devnet only)
//
// For mainnet, explicit configuration is required -- there is no preset.
func ResolveConfig(flags *Config, env map[string]string, network string) (*Config, error) {
	result := Config{Network: network, Timeout: DefaultTimeout}

	if preset, ok := NetworkPresets[network]; ok {
		result = preset
		result.Network = network
	}

	if env != nil {
		if v, ok := env[EnvRPCURL]; ok && v != "" {
			result.URL = v
		}
		if v, ok := env[EnvContract]; ok && v != "" {
			result.ContractAddress = v
		}
		if v, ok := env[EnvRPCTimeout]; ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil || d <= 0 {
				return nil, fmt.Errorf("%w: %s=%q is not a positive duration", ErrInvalidConfig, EnvRPCTimeout, v)
			}
			result.Timeout = d
		}
	}

	if flags != nil {
		if flags.URL != "" {
			result.URL = flags.URL
		}
		if flags.ContractAddress != "" {
			result.ContractAddress = flags.ContractAddress
		}
		if flags.Timeout > 0 {
			result.Timeout = flags.Timeout
		}
	}

	if result.URL == "" {
		return nil, fmt.Errorf("%w: %s requires an explicit RPC URL (set --rpc-url, %s, or config file)", ErrInvalidConfig, network, EnvRPCURL)
	}
	if result.ContractAddress == "" {
		return nil, fmt.Errorf("%w: %s requires a contract address (set --contract, %s, or config file)", ErrInvalidConfig, network, EnvContract)
	}

	return &result, nil
}
