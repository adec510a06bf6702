package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/noxpand/retile/internal/config"
	"github.com/noxpand/retile/internal/database"
	"github.com/noxpand/retile/internal/log"
	"github.com/spf13/cobra"
)

// NewInfoCmd creates the info command.
func NewInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <issue-id>",
		Short: "Show issue details and local export history",
		Long: `Info shows the storefront metadata for one issue together with the
local export record and past run summaries from the library database.`,
		Args: cobra.ExactArgs(1),
		RunE: runInfoCmd,
	}

	cmd.Flags().StringP("account", "a", "",
		"Account file path (default: account.yaml in the XDG config dir or current directory)")
	cmd.Flags().String("base-url", config.DefaultBaseURL,
		"Storefront API endpoint")
	cmd.Flags().String("proxy", "",
		"SOCKS5 proxy address (e.g., 127.0.0.1:9050)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Per-request timeout for storefront calls")
	cmd.Flags().String("db", "",
		"Library database path (default: library.db in the XDG data dir)")

	return cmd
}

// runInfoCmd executes the info command.
func runInfoCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildListConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	return runInfo(ctx, cfg, logger, args[0], cmd.OutOrStdout())
}

// runInfo prints issue metadata, export state, and run history.
func runInfo(ctx context.Context, cfg *config.Config, logger *slog.Logger, issueID string, out io.Writer) error {
	db, err := database.Open(cfg.LibraryDBPath(), database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open library database: %w", err)
	}
	defer db.Close()

	client, err := newStorefrontClient(cfg, logger)
	if err != nil {
		return err
	}

	comic, err := client.Issue(ctx, issueID)
	if err != nil {
		return fmt.Errorf("fetch issue metadata: %w", err)
	}

	fmt.Fprintf(out, "Title:        %s\n", comic.Title)
	fmt.Fprintf(out, "Release name: %s\n", comic.ReleaseName())
	fmt.Fprintf(out, "Issue ID:     %s\n", comic.ID)
	if comic.PublisherID != "" {
		fmt.Fprintf(out, "Publisher:    %s\n", comic.PublisherID)
	}
	if comic.Version != "" {
		fmt.Fprintf(out, "Version:      %s\n", comic.Version)
	}
	if comic.PageCount > 0 {
		fmt.Fprintf(out, "Pages:        %d\n", comic.PageCount)
	}

	printExports(ctx, db, issueID, out)
	printDigests(ctx, db, issueID, out)
	printRunHistory(ctx, db, issueID, out)
	return nil
}

// printDigests prints how many page fingerprints are on record.
func printDigests(ctx context.Context, db *database.LibraryDB, issueID string, out io.Writer) {
	digests, err := db.PageDigests(ctx, issueID)
	if err != nil {
		fmt.Fprintf(out, "Digests:      (unavailable: %v)\n", err)
		return
	}
	if len(digests) == 0 {
		fmt.Fprintln(out, "Digests:      none")
		return
	}
	fmt.Fprintf(out, "Digests:      %d page(s) recorded\n", len(digests))
}

// printExports prints the local export records for the issue, if any.
func printExports(ctx context.Context, db *database.LibraryDB, issueID string, out io.Writer) {
	exports, err := db.ListExports(ctx)
	if err != nil {
		fmt.Fprintf(out, "\nExports:      (unavailable: %v)\n", err)
		return
	}

	var found bool
	for _, rec := range exports {
		if rec.IssueID != issueID {
			continue
		}
		if !found {
			fmt.Fprintln(out, "\nExports:")
			found = true
		}
		fmt.Fprintf(out, "  %-5s %s (%d pages, %s)\n",
			rec.Format, rec.Path, rec.Pages, rec.ExportedAt.Format("2006-01-02 15:04"))
	}
	if !found {
		fmt.Fprintln(out, "\nExports:      none")
	}
}

// printRunHistory prints past run summaries for the issue, if any.
func printRunHistory(ctx context.Context, db *database.LibraryDB, issueID string, out io.Writer) {
	history, err := db.RunHistory(ctx, issueID)
	if err != nil {
		fmt.Fprintf(out, "Run history:  (unavailable: %v)\n", err)
		return
	}
	if len(history) == 0 {
		fmt.Fprintln(out, "Run history:  none")
		return
	}

	fmt.Fprintln(out, "Run history:")
	for _, s := range history {
		status := "complete"
		if !s.Complete() {
			status = fmt.Sprintf("%d/%d pages", s.Succeeded, s.Pages)
		}
		fmt.Fprintf(out, "  %s in %s\n", status, s.Elapsed.Round(time.Millisecond))
	}
}
