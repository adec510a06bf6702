package model

import "testing"

// TestIssueReleaseName tests release name generation from issue metadata.
func TestIssueReleaseName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		issue Issue
		want  string
	}{
		{
			name:  "plain title",
			issue: Issue{Title: "Space Cat"},
			want:  "Space Cat",
		},
		{
			name:  "strips unsafe characters",
			issue: Issue{Title: `Space/Cat: Origins?!`},
			want:  "SpaceCat- Origins",
		},
		{
			name:  "volume suffix",
			issue: Issue{Title: "Space Cat", Volume: 3},
			want:  "Space Cat - v03",
		},
		{
			name:  "issue number suffix",
			issue: Issue{Title: "Space Cat", Number: 12},
			want:  "Space Cat - 012",
		},
		{
			name:  "volume wins over number",
			issue: Issue{Title: "Space Cat", Volume: 1, Number: 12},
			want:  "Space Cat - v01",
		},
		{
			name:  "collapses whitespace",
			issue: Issue{Title: "Space   Cat \t Returns"},
			want:  "Space Cat Returns",
		},
		{
			name:  "folds fullwidth characters",
			issue: Issue{Title: "ＳＰＡＣＥ　ＣＡＴ"},
			want:  "SPACE CAT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.issue.ReleaseName(); got != tt.want {
				t.Errorf("ReleaseName() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestComicReleaseName tests that a comic prefers issue metadata and falls
// back to its own title plus ID.
func TestComicReleaseName(t *testing.T) {
	t.Parallel()

	t.Run("prefers issue metadata", func(t *testing.T) {
		t.Parallel()

		c := Comic{
			ID:    "1001",
			Title: "Raw Storefront Title",
			Issue: &Issue{Title: "Space Cat", Volume: 2},
		}
		if got, want := c.ReleaseName(), "Space Cat - v02"; got != want {
			t.Errorf("ReleaseName() = %q, want %q", got, want)
		}
	})

	t.Run("falls back to title and id", func(t *testing.T) {
		t.Parallel()

		c := Comic{ID: "1001", Title: "Space Cat"}
		if got, want := c.ReleaseName(), "Space Cat (1001)"; got != want {
			t.Errorf("ReleaseName() = %q, want %q", got, want)
		}
	})
}

// TestRunSummary tests failure accounting.
func TestRunSummary(t *testing.T) {
	t.Parallel()

	s := NewRunSummary("1001", "Space Cat", 4)
	s.Succeeded = 3
	s.AddFailure(2, StageDecrypt, "wrong key")

	if s.Complete() {
		t.Error("summary with a failure must not be complete")
	}
	if len(s.Failures) != 1 || s.Failures[0].Page != 2 {
		t.Errorf("unexpected failures: %+v", s.Failures)
	}

	s2 := NewRunSummary("1001", "Space Cat", 4)
	s2.Succeeded = 4
	if !s2.Complete() {
		t.Error("summary with all pages succeeded must be complete")
	}
}
