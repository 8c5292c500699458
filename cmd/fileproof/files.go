package main

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bitfsorg/libfileproof-go/contenthash"
	"github.com/bitfsorg/libfileproof-go/felt"
	"github.com/bitfsorg/libfileproof-go/starknet"
	"github.com/bitfsorg/libfileproof-go/verifier"
)

var (
	registerAuthor   string
	registerType     string
	registerSimulate bool
	verifyFile       bool
	listAuthor       string
)

var hashCmd = &cobra.Command{
	Use:   "hash <file>",
	Short: "Print the field element fingerprint of a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := hashFile(args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"file":   args[0],
			"digest": cfg.Hash,
			"hash":   hash,
		})
	},
}

var registerCmd = &cobra.Command{
	Use:   "register <file>",
	Short: "Store a file record and register it on chain",
	Long: `Register hashes the file, stores a local record and makes one best-effort
chain registration attempt. A failed chain attempt leaves the record stored
without a chain handle.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readLimited(args[0], cfg.MaxFileSize)
		if err != nil {
			return err
		}

		svc, closeFn, err := openService(optionalChainClient(), func(client *starknet.Client) (starknet.Registrar, error) {
			if client == nil {
				if registerSimulate {
					return nil, fmt.Errorf("%w: --simulate needs a reachable chain", verifier.ErrChainUnavailable)
				}
				return nil, nil
			}
			stub := starknet.NewStubRegistrar()
			if registerSimulate {
				return starknet.NewDryRunRegistrar(client, stub), nil
			}
			return stub, nil
		})
		if err != nil {
			return err
		}
		defer closeFn()

		fileType := registerType
		if fileType == "" {
			fileType = mime.TypeByExtension(filepath.Ext(args[0]))
		}
		rec, err := svc.Register(ctx(cmd), verifier.Upload{
			Data:          data,
			Filename:      filepath.Base(args[0]),
			FileType:      fileType,
			AuthorAddress: registerAuthor,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), rec)
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify <hash>",
	Short: "Look up a fingerprint locally and cross-check it on chain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeFn, err := openService(optionalChainClient(), nil)
		if err != nil {
			return err
		}
		defer closeFn()

		var v *verifier.Verification
		if verifyFile {
			hash, err := hashFile(args[0])
			if err != nil {
				return err
			}
			v, err = svc.Verify(ctx(cmd), hash)
			if err != nil {
				return err
			}
		} else {
			v, err = svc.VerifyHex(ctx(cmd), args[0])
			if err != nil {
				return err
			}
		}
		return printJSON(cmd.OutOrStdout(), v)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored file records, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeFn, err := openService(nil, nil)
		if err != nil {
			return err
		}
		defer closeFn()

		if listAuthor != "" {
			recs, err := svc.ListByAuthor(listAuthor)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), recs)
		}
		recs, err := svc.ListAll()
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), recs)
	},
}

func init() {
	registerCmd.Flags().StringVar(&registerAuthor, "author", "", "author account address (required)")
	registerCmd.Flags().StringVar(&registerType, "type", "", "MIME type (default: guessed from the extension)")
	registerCmd.Flags().BoolVar(&registerSimulate, "simulate", false, "simulate register_file on the node before issuing a handle")
	_ = registerCmd.MarkFlagRequired("author")

	verifyCmd.Flags().BoolVar(&verifyFile, "file", false, "treat the argument as a file path and hash it")

	listCmd.Flags().StringVar(&listAuthor, "author", "", "only list records of this author")
}

// readLimited reads at most limit+1 bytes so oversized files are rejected
// without being read in full.
func readLimited(path string, limit int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, int64(limit)+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// hashFile streams the whole file at path through the configured digest.
func hashFile(path string) (felt.Element, error) {
	hasher, err := contenthash.NewNamed(cfg.Hash)
	if err != nil {
		return felt.Element{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return felt.Element{}, err
	}
	defer f.Close()
	return hasher.HashReader(f)
}

// ctx returns the command context, which is nil when run outside Execute.
func ctx(cmd *cobra.Command) context.Context {
	if c := cmd.Context(); c != nil {
		return c
	}
	return context.Background()
}
