package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bitfsorg/libfileproof-go/config"
	"github.com/bitfsorg/libfileproof-go/contenthash"
	"github.com/bitfsorg/libfileproof-go/filestore"
	"github.com/bitfsorg/libfileproof-go/logging"
	"github.com/bitfsorg/libfileproof-go/starknet"
	"github.com/bitfsorg/libfileproof-go/verifier"
)

// GlobalFlags holds the persistent command line flags.
type GlobalFlags struct {
	DataDir  string
	Network  string
	RPCURL   string
	Contract string
	LogLevel string
	Offline  bool
}

var (
	globalFlags GlobalFlags
	cfg         config.Config
	logger      = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "fileproof",
	Short: "Register and verify file fingerprints on Starknet",
	Long: `fileproof reduces a file to a Starknet field element, keeps a local record
of it and checks that record against the file registry contract.

Settings are read from <datadir>/config and can be overridden by the
FILEPROOF_RPC_URL, FILEPROOF_CONTRACT and FILEPROOF_RPC_TIMEOUT environment
variables and by command line flags.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig()
		if err != nil {
			return err
		}
		logger, err = logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&globalFlags.DataDir, "datadir", "", "data directory (default ~/.fileproof)")
	pf.StringVar(&globalFlags.Network, "network", "", "network preset: sepolia, devnet or mainnet")
	pf.StringVar(&globalFlags.RPCURL, "rpc-url", "", "Starknet JSON-RPC endpoint")
	pf.StringVar(&globalFlags.Contract, "contract", "", "file registry contract address")
	pf.StringVar(&globalFlags.LogLevel, "log-level", "", "debug, info, warn or error")
	pf.BoolVar(&globalFlags.Offline, "offline", false, "skip every chain interaction")

	rootCmd.AddCommand(hashCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(chainCmd)
	rootCmd.AddCommand(selectorsCmd)
	rootCmd.AddCommand(configCmd)
}

// loadConfig reads the config file from the data directory, if any, and
// applies flag overrides.
func loadConfig() (config.Config, error) {
	dataDir := globalFlags.DataDir
	if dataDir == "" {
		dataDir = config.DefaultDataDir()
	}

	c, err := config.LoadConfig(config.ConfigPath(dataDir))
	if err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		return c, err
	}
	c.DataDir = dataDir
	if globalFlags.Network != "" {
		c.Network = globalFlags.Network
	}
	if globalFlags.RPCURL != "" {
		c.RPCURL = globalFlags.RPCURL
	}
	if globalFlags.Contract != "" {
		c.Contract = globalFlags.Contract
	}
	if globalFlags.LogLevel != "" {
		c.LogLevel = globalFlags.LogLevel
	}
	if err := config.ValidateConfig(c); err != nil {
		return c, err
	}
	return c, nil
}

// environ returns the process environment as a map. Config file chain
// settings are used where the environment leaves a key unset.
func environ() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	fallback := map[string]string{
		starknet.EnvRPCURL:   cfg.RPCURL,
		starknet.EnvContract: cfg.Contract,
	}
	if cfg.RPCTimeout > 0 {
		fallback[starknet.EnvRPCTimeout] = cfg.RPCTimeout.String()
	}
	for k, v := range fallback {
		if _, set := env[k]; !set && v != "" {
			env[k] = v
		}
	}
	return env
}

// newChainClient resolves the chain configuration and builds a client.
func newChainClient() (*starknet.Client, error) {
	flags := &starknet.Config{URL: globalFlags.RPCURL, ContractAddress: globalFlags.Contract}
	rpcCfg, err := starknet.ResolveConfig(flags, environ(), cfg.Network)
	if err != nil {
		return nil, err
	}
	return starknet.NewClient(*rpcCfg, starknet.WithLogger(logger.Named("starknet")))
}

// optionalChainClient returns nil when offline or when the chain is not
// configured; the latter is logged.
func optionalChainClient() *starknet.Client {
	if globalFlags.Offline {
		return nil
	}
	client, err := newChainClient()
	if err != nil {
		logger.Warn("chain disabled", zap.Error(err))
		return nil
	}
	return client
}

// openService opens the record store and builds a verifier.Service around
// client, which may be nil. registrar, when non-nil, picks the registration
// path for that client; its error aborts the command. The returned function
// closes the store.
func openService(client *starknet.Client, registrar func(*starknet.Client) (starknet.Registrar, error)) (*verifier.Service, func(), error) {
	hasher, err := contenthash.NewNamed(cfg.Hash)
	if err != nil {
		return nil, nil, err
	}
	opts := []verifier.Option{
		verifier.WithLogger(logger.Named("verifier")),
		verifier.WithMaxFileSize(cfg.MaxFileSize),
	}
	if client != nil {
		opts = append(opts, verifier.WithChain(client))
	}
	if registrar != nil {
		r, err := registrar(client)
		if err != nil {
			return nil, nil, err
		}
		if r != nil {
			opts = append(opts, verifier.WithRegistrar(r))
		}
	}

	store, err := filestore.OpenBoltStore(config.DBPath(cfg.DataDir))
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := store.Close(); err != nil {
			logger.Warn("close record store", zap.Error(err))
		}
	}

	svc, err := verifier.NewService(hasher, store, opts...)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return svc, closeFn, nil
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
