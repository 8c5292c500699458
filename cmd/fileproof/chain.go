package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bitfsorg/libfileproof-go/felt"
	"github.com/bitfsorg/libfileproof-go/starknet"
	"github.com/bitfsorg/libfileproof-go/verifier"
)

var errOffline = errors.New("chain commands are unavailable with --offline")

var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Query the file registry contract directly",
}

var chainInfoCmd = &cobra.Command{
	Use:   "info <hash>",
	Short: "Show the on-chain record of a fingerprint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := felt.ParseStrict(args[0])
		if err != nil {
			return err
		}
		svc, closeFn, err := openChainService()
		if err != nil {
			return err
		}
		defer closeFn()

		info, err := svc.ChainDetails(ctx(cmd), hash)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), info)
	},
}

var chainRegisteredCmd = &cobra.Command{
	Use:   "registered <hash>",
	Short: "Ask the contract whether a fingerprint is registered",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := felt.ParseStrict(args[0])
		if err != nil {
			return err
		}
		svc, closeFn, err := openChainService()
		if err != nil {
			return err
		}
		defer closeFn()

		ok, err := svc.IsRegisteredOnChain(ctx(cmd), hash)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"hash":       hash,
			"registered": ok,
		})
	},
}

var chainFilesCmd = &cobra.Command{
	Use:   "files <author>",
	Short: "List the fingerprints the contract holds for an author",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		author, err := felt.ParseStrict(args[0])
		if err != nil {
			return err
		}
		if globalFlags.Offline {
			return errOffline
		}
		client, err := newChainClient()
		if err != nil {
			return err
		}

		hashes, err := starknet.NewContract(client).GetAuthorFiles(ctx(cmd), author)
		if err != nil {
			return err
		}
		if hashes == nil {
			hashes = []felt.Element{}
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"author": author,
			"files":  hashes,
		})
	},
}

func init() {
	chainCmd.AddCommand(chainInfoCmd)
	chainCmd.AddCommand(chainRegisteredCmd)
	chainCmd.AddCommand(chainFilesCmd)
}

// openChainService is openService for commands that cannot run without the
// chain. The reason the chain is unavailable is returned as the error.
func openChainService() (*verifier.Service, func(), error) {
	if globalFlags.Offline {
		return nil, nil, errOffline
	}
	client, err := newChainClient()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", verifier.ErrChainUnavailable, err)
	}
	return openService(client, nil)
}
