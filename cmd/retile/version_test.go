package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestGetVersion(t *testing.T) {
	t.Parallel()

	if getVersion() == "" {
		t.Error("getVersion() returned empty string")
	}
}

func TestBuildSetting(t *testing.T) {
	t.Parallel()

	t.Run("override wins", func(t *testing.T) {
		t.Parallel()
		if got := buildSetting("vcs.revision", "abc1234"); got != "abc1234" {
			t.Errorf("buildSetting() = %q, want abc1234", got)
		}
	})

	t.Run("never empty", func(t *testing.T) {
		t.Parallel()
		if buildSetting("vcs.revision", "") == "" {
			t.Error("buildSetting() returned empty string")
		}
		if buildSetting("vcs.time", "") == "" {
			t.Error("buildSetting() returned empty string")
		}
	})
}

func TestNewVersionCmd(t *testing.T) {
	t.Parallel()

	cmd := NewVersionCmd()

	t.Run("command has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "version" {
			t.Errorf("expected Use to be 'version', got %q", cmd.Use)
		}
	})

	t.Run("command has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected Short to be non-empty")
		}
	})

	t.Run("command outputs version info", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		cmd := NewVersionCmd()
		cmd.SetOut(&buf)
		cmd.Run(cmd, nil)

		output := buf.String()
		if !strings.Contains(output, "retile version") {
			t.Errorf("expected output to contain 'retile version', got %q", output)
		}
		if !strings.Contains(output, "commit:") {
			t.Errorf("expected output to contain 'commit:', got %q", output)
		}
		if !strings.Contains(output, "built:") {
			t.Errorf("expected output to contain 'built:', got %q", output)
		}
	})
}
