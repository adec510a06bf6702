// Package main provides the entry point for the retile CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for retile.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "retile",
		Short: "Reconstruct readable pages from tiled, encrypted comic downloads",
		Long: `Retile reconstructs readable comic pages from tiled, encrypted
storefront downloads of content you own.

It decodes the binary page manifest, derives per-tile keys from your
session secret, decrypts and descrambles the tiles, and assembles the
pages into a raw directory, CBZ, or EPUB archive.

Credentials are read from an account file (account.yaml in the XDG
config directory by default) so that passwords stay out of shell
history.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewListCmd())
	cmd.AddCommand(NewDownloadCmd())
	cmd.AddCommand(NewDownloadAllCmd())
	cmd.AddCommand(NewInfoCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
