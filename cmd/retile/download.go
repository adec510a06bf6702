package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/noxpand/retile/internal/archive"
	"github.com/noxpand/retile/internal/config"
	"github.com/noxpand/retile/internal/database"
	"github.com/noxpand/retile/internal/log"
	"github.com/noxpand/retile/internal/manifest"
	"github.com/noxpand/retile/internal/model"
	"github.com/noxpand/retile/internal/pipeline"
	"github.com/noxpand/retile/internal/report"
	"github.com/noxpand/retile/internal/storefront"
	"github.com/spf13/cobra"
)

// NewDownloadCmd creates the dl command.
func NewDownloadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dl <issue-id>...",
		Short: "Download and reconstruct one or more issues",
		Long: `Download fetches the manifest and encrypted tiles for each issue,
decrypts and reassembles the pages, and writes them to the selected
archive format.

Pages that fail permanently are skipped and listed in the run summary;
the remaining pages are still written in reading order.

Examples:
  # Download a single issue as CBZ (the default)
  retile dl B0ABCDEF12

  # Download several issues as EPUB into a library directory
  retile dl --export epub -o ~/comics B0ABCDEF12 B0ABCDEF34

  # Keep original PNG tile data instead of re-encoding to JPEG
  retile dl --png B0ABCDEF12

  # Write a JSON run summary to a file
  retile dl --json --report run.json B0ABCDEF12`,
		Args: cobra.MinimumNArgs(1),
		RunE: runDownloadCmd,
	}

	addDownloadFlags(cmd)
	return cmd
}

// addDownloadFlags registers flags shared by dl and dlall.
func addDownloadFlags(cmd *cobra.Command) {
	// Storefront connection flags
	cmd.Flags().StringP("account", "a", "",
		"Account file path (default: account.yaml in the XDG config dir or current directory)")
	cmd.Flags().String("base-url", config.DefaultBaseURL,
		"Storefront API endpoint")
	cmd.Flags().String("proxy", "",
		"SOCKS5 proxy address (e.g., 127.0.0.1:9050)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Per-request timeout for storefront calls")

	// Pipeline flags
	cmd.Flags().Int("page-workers", config.DefaultPageConcurrency,
		"Number of pages reconstructed concurrently")
	cmd.Flags().Int("tile-workers", config.DefaultTileConcurrency,
		"Number of tile fetches in flight per page")
	cmd.Flags().Int("retries", config.DefaultRetryLimit,
		"Retries per tile for transient fetch failures and corrupt payloads")

	// Export flags
	cmd.Flags().StringP("export", "e", config.DefaultExportFormat,
		"Export format: raw, cbz, or epub")
	cmd.Flags().StringP("output", "o", ".",
		"Output directory for archives")
	cmd.Flags().Bool("png", false,
		"Store pages as lossless PNG instead of JPEG")
	cmd.Flags().BoolP("force", "f", false,
		"Re-export issues that already have an archive on disk")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON run summary (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown run summary (mutually exclusive with --json)")
	cmd.Flags().StringP("report", "r", "",
		"Write the run summary to the specified file path")

	// Library database
	cmd.Flags().String("db", "",
		"Library database path (default: library.db in the XDG data dir)")
}

// runDownloadCmd executes the dl command.
func runDownloadCmd(cmd *cobra.Command, args []string) error {
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

	return runDownload(ctx, cfg, logger)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return ctx, cancel
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.BaseURL, err = cmd.Flags().GetString("base-url")
	if err != nil {
		return nil, err
	}

	cfg.ProxyAddress, err = cmd.Flags().GetString("proxy")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.PageConcurrency, err = cmd.Flags().GetInt("page-workers")
	if err != nil {
		return nil, err
	}

	cfg.TileConcurrency, err = cmd.Flags().GetInt("tile-workers")
	if err != nil {
		return nil, err
	}

	cfg.RetryLimit, err = cmd.Flags().GetInt("retries")
	if err != nil {
		return nil, err
	}

	cfg.ExportFormat, err = cmd.Flags().GetString("export")
	if err != nil {
		return nil, err
	}

	cfg.OutputDir, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.PNG, err = cmd.Flags().GetBool("png")
	if err != nil {
		return nil, err
	}

	cfg.Force, err = cmd.Flags().GetBool("force")
	if err != nil {
		return nil, err
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("report")
	if err != nil {
		return nil, err
	}

	cfg.DBPath, err = cmd.Flags().GetString("db")
	if err != nil {
		return nil, err
	}

	cfg.AccountFilePath, err = cmd.Flags().GetString("account")
	if err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)
	cfg.IssueIDs = args

	// Load account credentials. An explicitly given path must exist;
	// otherwise a missing file just means flag-only configuration.
	explicitAccountPath := cfg.AccountFilePath != ""
	accountPath := config.FindAccountFile(cfg.AccountFilePath)

	if accountPath != "" {
		account, err := config.LoadAccountFile(accountPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load account file %s: %w", accountPath, err)
		}
		account.Apply(cfg)
	} else if explicitAccountPath {
		return nil, fmt.Errorf("account file not found: %s", cfg.AccountFilePath)
	}

	return cfg, nil
}

// newStorefrontClient builds the authenticated storefront client. The
// session shares the client's HTTP transport so auth requests honor the
// proxy and timeout settings too.
func newStorefrontClient(cfg *config.Config, logger *slog.Logger) (*storefront.Client, error) {
	hc, err := storefront.NewHTTPClient(cfg.Timeout, cfg.ProxyAddress)
	if err != nil {
		return nil, err
	}

	session, err := storefront.NewSession(hc, cfg.BaseURL, storefront.Credentials{
		Email:    cfg.Email,
		Password: cfg.Password,
	}, cfg.SessionDir(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return storefront.NewClient(cfg.BaseURL, session,
		storefront.WithHTTPClient(hc),
		storefront.WithClientLogger(logger),
	)
}

// runDownload downloads each requested issue in turn.
func runDownload(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
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

	var failed int
	for _, issueID := range cfg.IssueIDs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := downloadIssue(ctx, cfg, client, db, logger, format, issueID); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			failed++
			logger.Error("download failed", "issue", issueID, "error", err)
			fmt.Fprintf(os.Stderr, "Download error for %s: %v\n", issueID, err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d issue(s) failed", failed, len(cfg.IssueIDs))
	}
	return nil
}

// digestSink wraps the archive exporter and fingerprints every page it
// writes so the library database can record per-page digests.
type digestSink struct {
	inner   archive.Exporter
	mu      sync.Mutex
	digests map[int]string
}

func newDigestSink(inner archive.Exporter) *digestSink {
	return &digestSink{inner: inner, digests: make(map[int]string)}
}

// WritePage hashes the page raster before handing it to the exporter.
func (s *digestSink) WritePage(ctx context.Context, page *model.AssembledPage) error {
	sum := sha256.Sum256(page.Image.Pix)
	s.mu.Lock()
	s.digests[page.Index] = hex.EncodeToString(sum[:])
	s.mu.Unlock()
	return s.inner.WritePage(ctx, page)
}

// pageDigests returns a copy of the recorded page fingerprints.
func (s *digestSink) pageDigests() map[int]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int]string, len(s.digests))
	for page, digest := range s.digests {
		out[page] = digest
	}
	return out
}

// downloadIssue runs the full pipeline for a single issue.
func downloadIssue(ctx context.Context, cfg *config.Config, client *storefront.Client, db *database.LibraryDB, logger *slog.Logger, format archive.Format, issueID string) error {
	comic, err := client.Issue(ctx, issueID)
	if err != nil {
		return fmt.Errorf("fetch issue metadata: %w", err)
	}

	// Skip only when the library records the export and the archive is
	// still on disk; a recorded export whose file vanished re-downloads.
	if !cfg.Force {
		rec, err := db.GetExport(ctx, issueID, format.String())
		if err != nil {
			logger.Warn("export lookup failed", "issue", issueID, "error", err)
		}
		if rec != nil && archive.Exists(format, comic, cfg.OutputDir) {
			fmt.Printf("Skipping %s: already exported as %s\n", comic.ReleaseName(), format)
			return nil
		}
	}

	raw, err := client.Manifest(ctx, issueID)
	if err != nil {
		return fmt.Errorf("fetch manifest: %w", err)
	}
	m, err := manifest.Decode(raw)
	if err != nil {
		return fmt.Errorf("decode manifest: %w", err)
	}

	exporter, err := archive.New(format, comic, cfg.OutputDir, archive.Options{PNG: cfg.PNG})
	if err != nil {
		return fmt.Errorf("create exporter: %w", err)
	}

	sink := newDigestSink(exporter)
	orch := pipeline.New(client, client, sink,
		pipeline.WithLogger(logger),
		pipeline.WithPageConcurrency(cfg.PageConcurrency),
		pipeline.WithTileConcurrency(cfg.TileConcurrency),
		pipeline.WithRetryLimit(cfg.RetryLimit),
	)

	fmt.Printf("Downloading %s (%d pages)...\n", comic.ReleaseName(), len(m.Pages))

	summary, err := orch.Run(ctx, issueID, comic.ReleaseName(), m)
	if err != nil {
		// Remove the partial archive so a rerun starts clean.
		exporter.Close()
		if rmErr := os.RemoveAll(exporter.Path()); rmErr != nil {
			logger.Warn("failed to remove partial archive", "path", exporter.Path(), "error", rmErr)
		}
		return err
	}
	if err := exporter.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}

	if err := outputSummary(cfg, summary); err != nil {
		logger.Error("report failed", "issue", issueID, "error", err)
	}

	if err := db.RecordExport(ctx, &database.ExportRecord{
		IssueID: issueID,
		Title:   comic.ReleaseName(),
		Format:  format.String(),
		Path:    exporter.Path(),
		Pages:   summary.Succeeded,
	}); err != nil {
		logger.Error("failed to record export", "issue", issueID, "error", err)
	}
	for page, digest := range sink.pageDigests() {
		if err := db.RecordPageDigest(ctx, issueID, page, digest); err != nil {
			logger.Error("failed to record page digest", "issue", issueID, "page", page, "error", err)
			break
		}
	}
	if err := db.SaveRunSummary(ctx, summary); err != nil {
		logger.Error("failed to save run summary", "issue", issueID, "error", err)
	}

	return nil
}

// outputSummary outputs the run summary in the requested format.
func outputSummary(cfg *config.Config, summary *model.RunSummary) error {
	var output *os.File
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create report directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(output)
	default:
		w = report.NewSimpleWriter(output)
	}

	_, err := w.Write(summary)
	return err
}
