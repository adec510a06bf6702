package model

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// unsafeNameChars matches characters stripped from release names.
// These are characters that are unsafe or awkward in file names across
// the platforms we target.
var unsafeNameChars = regexp.MustCompile(`[.?\\/<>"'%*&+#!]`)

// multiSpace collapses runs of whitespace left behind by sanitization.
var multiSpace = regexp.MustCompile(`\s+`)

// Issue holds catalog metadata for one comic issue as reported by the
// storefront listing endpoint.
type Issue struct {
	// ID is the storefront item identifier.
	ID string `json:"id"`

	// Title is the issue title as listed by the storefront.
	Title string `json:"title"`

	// SeriesID groups issues belonging to the same series, if known.
	SeriesID string `json:"series_id,omitempty"`

	// Volume is the volume number, or 0 when the issue is not part of
	// a collected volume.
	Volume int `json:"volume,omitempty"`

	// Number is the issue number within its series, or 0 when unknown.
	Number int `json:"number,omitempty"`
}

// ReleaseName returns a filesystem-safe name for this issue.
// CJK width variants are folded and the title is NFKC-normalized so that
// the same issue always produces the same name regardless of how the
// storefront encoded it.
func (i *Issue) ReleaseName() string {
	name := sanitizeTitle(i.Title)
	switch {
	case i.Volume > 0:
		name += fmt.Sprintf(" - v%02d", i.Volume)
	case i.Number > 0:
		name += fmt.Sprintf(" - %03d", i.Number)
	}
	return name
}

// Comic is a downloadable comic issue together with the parameters needed
// to reverse its protection. It is immutable once built by the storefront
// client.
type Comic struct {
	// ID is the storefront item identifier.
	ID string `json:"id"`

	// Title is the comic title.
	Title string `json:"title"`

	// PublisherID identifies the publisher; it participates in legacy
	// key-derivation schemes.
	PublisherID string `json:"publisher_id"`

	// Version is the content version string reported by the storefront.
	Version string `json:"version"`

	// Issue carries catalog metadata when the storefront returned it.
	Issue *Issue `json:"issue,omitempty"`

	// PageCount is the number of pages declared by the manifest.
	PageCount int `json:"page_count"`
}

// ReleaseName returns a filesystem-safe name for this comic, preferring
// the richer issue metadata when available.
func (c *Comic) ReleaseName() string {
	if c.Issue != nil && c.Issue.Title != "" {
		return c.Issue.ReleaseName()
	}
	return fmt.Sprintf("%s (%s)", sanitizeTitle(c.Title), c.ID)
}

// sanitizeTitle normalizes and strips a title down to a safe file name.
func sanitizeTitle(title string) string {
	s := norm.NFKC.String(width.Fold.String(title))
	s = strings.ReplaceAll(s, ":", "-")
	s = unsafeNameChars.ReplaceAllString(s, "")
	s = multiSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
