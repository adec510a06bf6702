package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultBaseURL is the storefront API endpoint.
	DefaultBaseURL = "https://api.noxpand.com/retile"

	// DefaultTimeout is the per-request timeout. Tile payloads are small
	// but the storefront throttles aggressively, so this stays generous.
	DefaultTimeout = 60 * time.Second

	// DefaultPageConcurrency is the number of pages reconstructed at once.
	DefaultPageConcurrency = 4

	// DefaultTileConcurrency is the number of tile tasks in flight within
	// one page. Tiles dominate request volume; this is the primary knob
	// for being polite to the storefront.
	DefaultTileConcurrency = 8

	// DefaultRetryLimit bounds per-tile retries of transient fetch
	// failures and corrupt-ciphertext refetches.
	DefaultRetryLimit = 2

	// DefaultExportFormat is the archive container written per issue.
	DefaultExportFormat = "cbz"

	// AppName is the application name used for XDG directory paths.
	AppName = "retile"
)

// Config holds all options for one retile invocation. It is populated
// from CLI flags plus the optional account file and passed through the
// application explicitly, never via global state.
type Config struct {
	// BaseURL is the storefront API endpoint.
	BaseURL string

	// Email and Password are the storefront account credentials.
	// Usually loaded from the account file rather than flags so the
	// password stays out of shell history.
	Email    string
	Password string

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" format.
	// Empty means direct connection.
	ProxyAddress string

	// Timeout is the per-request timeout for storefront calls.
	Timeout time.Duration

	// PageConcurrency caps pages in flight at once.
	PageConcurrency int

	// TileConcurrency caps tile tasks in flight within one page.
	TileConcurrency int

	// RetryLimit bounds per-tile retries. Zero disables retries.
	RetryLimit int

	// ExportFormat selects the archive sink: raw, cbz, or epub.
	ExportFormat string

	// OutputDir is where finished archives are written. Defaults to the
	// current directory.
	OutputDir string

	// PNG stores page images losslessly instead of re-encoding to JPEG.
	PNG bool

	// Force re-exports issues that already have an archive on disk.
	Force bool

	// Verbose enables slog.LevelDebug output; otherwise LevelWarn.
	Verbose bool

	// JSONReport emits the run summary as JSON instead of plain text.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport emits the run summary as Markdown.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile writes the run summary to a file instead of stdout.
	ReportFile string

	// IssueIDs are the storefront item ids to download.
	IssueIDs []string

	// AccountFilePath is the path to the YAML account file. Empty means
	// search the default locations.
	AccountFilePath string

	// DBPath is the SQLite library database path. Empty uses the XDG
	// data dir default.
	DBPath string
}

// NewConfig creates a Config with defaults. Non-zero defaults live here
// rather than scattered across the call sites.
func NewConfig() *Config {
	return &Config{
		BaseURL:         DefaultBaseURL,
		Timeout:         DefaultTimeout,
		PageConcurrency: DefaultPageConcurrency,
		TileConcurrency: DefaultTileConcurrency,
		RetryLimit:      DefaultRetryLimit,
		ExportFormat:    DefaultExportFormat,
		OutputDir:       ".",
	}
}

// XDGDataDir returns the XDG data directory for retile.
// On Linux: ~/.local/share/retile
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for retile.
// On Linux: ~/.config/retile
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for retile.
// On Linux: ~/.cache/retile
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// LibraryDBPath returns the effective SQLite library database path.
func (c *Config) LibraryDBPath() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	return filepath.Join(XDGDataDir(), "library.db")
}

// SessionDir returns the directory holding the token cache and device id.
func (c *Config) SessionDir() string {
	return filepath.Join(XDGDataDir(), "session")
}

// Validate checks the configuration, returning the first problem found.
// Called once after flag parsing, before any network traffic.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrNoBaseURL
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.PageConcurrency <= 0 || c.TileConcurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.RetryLimit < 0 {
		return ErrInvalidRetryLimit
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}
