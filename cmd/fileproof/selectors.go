package main

import (
	"github.com/spf13/cobra"

	"github.com/bitfsorg/libfileproof-go/starknet"
)

var selectorsCmd = &cobra.Command{
	Use:   "selectors",
	Short: "Print the entry point selectors used for contract calls",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		table := starknet.DefaultSelectors
		out := make(map[string]string, len(table.Names()))
		for _, name := range table.Names() {
			sel, _ := table.Lookup(name)
			out[name] = sel.Hex()
		}
		return printJSON(cmd.OutOrStdout(), out)
	},
}
