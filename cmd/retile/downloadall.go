package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/noxpand/retile/internal/archive"
	"github.com/noxpand/retile/internal/config"
	"github.com/noxpand/retile/internal/database"
	"github.com/noxpand/retile/internal/log"
	"github.com/spf13/cobra"
)

// NewDownloadAllCmd creates the dlall command.
func NewDownloadAllCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dlall",
		Short: "Download every owned issue not yet exported",
		Long: `Dlall lists every issue the account owns and downloads the ones that
have not been exported yet in the selected format.

Issues already recorded in the library database are skipped unless
--force is given. Failures are summarized at the end; one broken issue
does not stop the rest of the batch.`,
		Args: cobra.NoArgs,
		RunE: runDownloadAllCmd,
	}

	addDownloadFlags(cmd)
	return cmd
}

// runDownloadAllCmd executes the dlall command.
func runDownloadAllCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
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

	return runDownloadAll(ctx, cfg, logger)
}

// runDownloadAll downloads every owned issue that is not yet exported.
func runDownloadAll(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	format, err := archive.ParseFormat(cfg.ExportFormat)
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.LibraryDBPath(), database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open library database: %w", err)
	}
	defer db.Close()

	client, err := newStorefrontClient(cfg, logger)
	if err != nil {
		return err
	}

	issues, err := client.ListIssues(ctx)
	if err != nil {
		return fmt.Errorf("list issues: %w", err)
	}
	if len(issues) == 0 {
		fmt.Println("No issues in the account library.")
		return nil
	}

	exported, err := db.ExportedIssueIDs(ctx)
	if err != nil {
		return fmt.Errorf("read export records: %w", err)
	}

	var skipped, failed int
	for i, issue := range issues {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !cfg.Force && exported[issue.ID] {
			skipped++
			continue
		}

		fmt.Printf("[%d/%d] %s\n", i+1, len(issues), issue.ReleaseName())
		if err := downloadIssue(ctx, cfg, client, db, logger, format, issue.ID); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			failed++
			logger.Error("download failed", "issue", issue.ID, "error", err)
			fmt.Fprintf(os.Stderr, "Download error for %s: %v\n", issue.ReleaseName(), err)
		}
	}

	fmt.Printf("\nDone: %d issue(s), %d skipped, %d failed\n", len(issues), skipped, failed)
	if failed > 0 {
		return fmt.Errorf("%d issue(s) failed", failed)
	}
	return nil
}
