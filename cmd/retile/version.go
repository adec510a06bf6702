package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Version information set at build time via ldflags.
var (
	version = ""
	commit  = ""
	date    = ""
)

// getVersion returns the module version, preferring the ldflags value
// over what the build recorded.
func getVersion() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "(devel)"
}

// buildSetting returns the ldflags override if set, otherwise the named
// VCS setting from the embedded build info. Commit hashes are shortened
// to seven characters.
func buildSetting(key, override string) string {
	if override != "" {
		return override
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	for _, s := range info.Settings {
		if s.Key != key {
			continue
		}
		if key == "vcs.revision" && len(s.Value) > 7 {
			return s.Value[:7]
		}
		return s.Value
	}
	return "unknown"
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the version, commit hash, and build date of retile.`,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "retile version %s (commit: %s, built: %s)\n",
				getVersion(), buildSetting("vcs.revision", commit), buildSetting("vcs.time", date))
		},
	}
}
