package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/noxpand/retile/internal/config"
	"github.com/noxpand/retile/internal/database"
	"github.com/noxpand/retile/internal/log"
	"github.com/noxpand/retile/internal/model"
	"github.com/spf13/cobra"
)

// NewListCmd creates the list command.
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List issues owned by the account",
		Long: `List shows every issue the account owns, with its storefront id and
whether an archive has already been exported.

Pass the id shown in the first column to the dl command.`,
		Args: cobra.NoArgs,
		RunE: runListCmd,
	}

	cmd.Flags().StringP("account", "a", "",
		"Account file path (default: account.yaml in the XDG config dir or current directory)")
	cmd.Flags().String("base-url", config.DefaultBaseURL,
		"Storefront API endpoint")
	cmd.Flags().String("proxy", "",
		"SOCKS5 proxy address (e.g., 127.0.0.1:9050)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Per-request timeout for storefront calls")
	cmd.Flags().Bool("downloaded", false,
		"Show only issues that have already been exported")
	cmd.Flags().String("db", "",
		"Library database path (default: library.db in the XDG data dir)")

	return cmd
}

// runListCmd executes the list command.
func runListCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildListConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	downloadedOnly, err := cmd.Flags().GetBool("downloaded")
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	return runList(ctx, cfg, logger, downloadedOnly, cmd.OutOrStdout())
}

// buildListConfig creates a Config from the list command's flags.
func buildListConfig(cmd *cobra.Command) (*config.Config, error) {
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

	cfg.DBPath, err = cmd.Flags().GetString("db")
	if err != nil {
		return nil, err
	}

	cfg.AccountFilePath, err = cmd.Flags().GetString("account")
	if err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)

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

// runList prints the account library as a table.
func runList(ctx context.Context, cfg *config.Config, logger *slog.Logger, downloadedOnly bool, out io.Writer) error {
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

	exported, err := db.ExportedIssueIDs(ctx)
	if err != nil {
		return fmt.Errorf("read export records: %w", err)
	}

	rows := make([][]string, 0, len(issues))
	for _, issue := range issues {
		if downloadedOnly && !exported[issue.ID] {
			continue
		}
		rows = append(rows, issueRow(issue, exported[issue.ID]))
	}

	if len(rows) == 0 {
		fmt.Fprintln(out, "No issues to show.")
		return nil
	}

	fmt.Fprintln(out, renderIssueTable(rows))
	return nil
}

// issueRow formats one catalog issue as a table row.
func issueRow(issue model.Issue, downloaded bool) []string {
	vol, num := "", ""
	if issue.Volume > 0 {
		vol = strconv.Itoa(issue.Volume)
	}
	if issue.Number > 0 {
		num = strconv.Itoa(issue.Number)
	}
	mark := ""
	if downloaded {
		mark = "yes"
	}
	return []string{issue.ID, issue.Title, vol, num, mark}
}
