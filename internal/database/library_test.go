package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/noxpand/retile/internal/model"
)

func openTestDB(t *testing.T) *LibraryDB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "library.db"), DefaultOptions())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// TestRecordExport tests the export upsert and lookup paths.
func TestRecordExport(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	ctx := context.Background()

	exported, err := db.IsExported(ctx, "B001", "cbz")
	if err != nil {
		t.Fatalf("IsExported() error: %v", err)
	}
	if exported {
		t.Error("fresh database reports an export")
	}

	rec := &ExportRecord{
		IssueID: "B001",
		Title:   "Alpha - v01",
		Format:  "cbz",
		Path:    "/library/Alpha - v01.cbz",
		Pages:   24,
	}
	if err := db.RecordExport(ctx, rec); err != nil {
		t.Fatalf("RecordExport() error: %v", err)
	}

	exported, err = db.IsExported(ctx, "B001", "cbz")
	if err != nil {
		t.Fatalf("IsExported() error: %v", err)
	}
	if !exported {
		t.Error("recorded export not found")
	}

	// Another format of the same issue is a distinct export.
	exported, err = db.IsExported(ctx, "B001", "epub")
	if err != nil {
		t.Fatalf("IsExported() error: %v", err)
	}
	if exported {
		t.Error("epub export reported without being recorded")
	}

	// Upsert must replace, not duplicate.
	rec.Pages = 25
	if err := db.RecordExport(ctx, rec); err != nil {
		t.Fatalf("RecordExport() upsert error: %v", err)
	}
	got, err := db.GetExport(ctx, "B001", "cbz")
	if err != nil {
		t.Fatalf("GetExport() error: %v", err)
	}
	if got == nil || got.Pages != 25 {
		t.Errorf("GetExport() = %+v, want pages 25", got)
	}

	exports, err := db.ListExports(ctx)
	if err != nil {
		t.Fatalf("ListExports() error: %v", err)
	}
	if len(exports) != 1 {
		t.Errorf("ListExports() returned %d rows, want 1", len(exports))
	}
	if exports[0].ExportedAt.IsZero() {
		t.Error("export timestamp not recorded")
	}
}

// TestGetExportMissing tests the nil-without-error contract.
func TestGetExportMissing(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	rec, err := db.GetExport(context.Background(), "B404", "cbz")
	if err != nil {
		t.Fatalf("GetExport() error: %v", err)
	}
	if rec != nil {
		t.Errorf("GetExport() = %+v, want nil", rec)
	}
}

// TestPageDigests tests digest upsert and retrieval.
func TestPageDigests(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	ctx := context.Background()

	for page, digest := range map[int]string{0: "aa", 1: "bb"} {
		if err := db.RecordPageDigest(ctx, "B002", page, digest); err != nil {
			t.Fatalf("RecordPageDigest() error: %v", err)
		}
	}
	if err := db.RecordPageDigest(ctx, "B002", 1, "cc"); err != nil {
		t.Fatalf("RecordPageDigest() upsert error: %v", err)
	}

	digests, err := db.PageDigests(ctx, "B002")
	if err != nil {
		t.Fatalf("PageDigests() error: %v", err)
	}
	if len(digests) != 2 || digests[0] != "aa" || digests[1] != "cc" {
		t.Errorf("PageDigests() = %v", digests)
	}
}

// TestRunHistory tests run summary persistence round trip.
func TestRunHistory(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	ctx := context.Background()

	first := model.NewRunSummary("B003", "Gamma", 10)
	first.Succeeded = 9
	first.AddFailure(4, model.StageDecrypt, "wrong key")
	if err := db.SaveRunSummary(ctx, first); err != nil {
		t.Fatalf("SaveRunSummary() error: %v", err)
	}

	second := model.NewRunSummary("B003", "Gamma", 10)
	second.Succeeded = 10
	if err := db.SaveRunSummary(ctx, second); err != nil {
		t.Fatalf("SaveRunSummary() error: %v", err)
	}

	history, err := db.RunHistory(ctx, "B003")
	if err != nil {
		t.Fatalf("RunHistory() error: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("RunHistory() returned %d summaries, want 2", len(history))
	}
	if !history[0].Complete() {
		t.Error("newest summary should be the complete run")
	}
	if len(history[1].Failures) != 1 || history[1].Failures[0].Stage != model.StageDecrypt {
		t.Errorf("oldest summary failures = %v", history[1].Failures)
	}
}

// TestExportedIssueIDs tests the id set used by list annotation.
func TestExportedIssueIDs(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	ctx := context.Background()

	for _, id := range []string{"B001", "B002"} {
		rec := &ExportRecord{IssueID: id, Title: id, Format: "raw", Path: "/x/" + id, Pages: 1}
		if err := db.RecordExport(ctx, rec); err != nil {
			t.Fatalf("RecordExport() error: %v", err)
		}
	}

	ids, err := db.ExportedIssueIDs(ctx)
	if err != nil {
		t.Fatalf("ExportedIssueIDs() error: %v", err)
	}
	if len(ids) != 2 || !ids["B001"] || !ids["B002"] {
		t.Errorf("ExportedIssueIDs() = %v", ids)
	}
}
