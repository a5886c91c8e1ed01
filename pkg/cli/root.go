// Package cli implements the ordersense command-line client for the
// HTTP API.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var addr string

	rootCmd := &cobra.Command{
		Use:           "ordersense",
		Short:         "Order analytics CLI",
		Long:          "Command-line client for the ordersense HTTP API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			// Flag > env > default.
			if !cmd.Flags().Changed("addr") {
				if v := os.Getenv("ORDERSENSE_ADDR"); v != "" {
					addr = v
				}
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&addr, "addr", "http://localhost:8080", "API base address")

	client := &Client{Addr: &addr}
	rootCmd.AddCommand(
		newAskCmd(client),
		newUploadCmd(client),
		newStatusCmd(client),
		newExportCmd(client),
		newClearCmd(client),
	)

	return rootCmd
}
