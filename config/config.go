// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

// Package config loads and saves the fileproof configuration file.
//
// The file is a flat list of "key = value" lines. Blank lines and lines
// starting with '#' are ignored, as are unknown keys. Keys that are absent
// keep their DefaultConfig value.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	configFileName = "config"
	dbFileName     = "records.db"
	dataDirName    = ".fileproof"
)

// Config holds the persisted settings.
type Config struct {
	DataDir     string
	Network     string
	RPCURL      string
	Contract    string
	RPCTimeout  time.Duration
	Hash        string
	MaxFileSize int
	LogLevel    string
	LogFile     string
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{
		DataDir:     DefaultDataDir(),
		Network:     "sepolia",
		RPCTimeout:  10 * time.Second,
		Hash:        "keccak256",
		MaxFileSize: 10 << 20,
		LogLevel:    "info",
	}
}

// DefaultDataDir returns ~/.fileproof, or ./.fileproof when the home
// directory cannot be determined.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return dataDirName
	}
	return filepath.Join(home, dataDirName)
}

// ConfigPath returns the config file location inside dataDir.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, configFileName)
}

// DBPath returns the record database location inside dataDir.
func DBPath(dataDir string) string {
	return filepath.Join(dataDir, dbFileName)
}

// LoadConfig reads path on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return cfg, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, err := parseKeyValue(line)
		if err != nil {
			return cfg, fmt.Errorf("%w: line %d: %w", ErrInvalidConfigLine, lineNo, err)
		}
		if err := applyKey(&cfg, key, value); err != nil {
			return cfg, fmt.Errorf("%w: line %d: %w", ErrInvalidConfigLine, lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	return cfg, nil
}

// parseKeyValue splits "key = value" on the first '='.
func parseKeyValue(line string) (string, string, error) {
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return "", "", fmt.Errorf("missing '=' in %q", line)
	}
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return "", "", fmt.Errorf("empty key in %q", line)
	}
	return key, strings.TrimSpace(value), nil
}

func applyKey(cfg *Config, key, value string) error {
	switch key {
	case "datadir":
		cfg.DataDir = value
	case "network":
		cfg.Network = value
	case "rpcurl":
		cfg.RPCURL = value
	case "contract":
		cfg.Contract = value
	case "rpctimeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("rpctimeout: %w", err)
		}
		cfg.RPCTimeout = d
	case "hash":
		cfg.Hash = value
	case "maxfilesize":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("maxfilesize: %w", err)
		}
		cfg.MaxFileSize = n
	case "loglevel":
		cfg.LogLevel = value
	case "logfile":
		cfg.LogFile = value
	}
	return nil
}

// SaveConfig writes cfg to path, creating parent directories.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}

	var b strings.Builder
	b.WriteString("# fileproof configuration\n\n")
	fmt.Fprintf(&b, "datadir = %s\n", cfg.DataDir)
	fmt.Fprintf(&b, "network = %s\n", cfg.Network)
	fmt.Fprintf(&b, "rpcurl = %s\n", cfg.RPCURL)
	fmt.Fprintf(&b, "contract = %s\n", cfg.Contract)
	fmt.Fprintf(&b, "rpctimeout = %s\n", cfg.RPCTimeout)
	fmt.Fprintf(&b, "hash = %s\n", cfg.Hash)
	fmt.Fprintf(&b, "maxfilesize = %d\n", cfg.MaxFileSize)
	fmt.Fprintf(&b, "loglevel = %s\n", cfg.LogLevel)
	fmt.Fprintf(&b, "logfile = %s\n", cfg.LogFile)

	if err := os.WriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
