package archive

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/noxpand/retile/internal/model"
)

// rawExporter writes loose page images into a per-issue directory.
type rawExporter struct {
	comic *model.Comic
	dir   string
	opts  Options
}

func newRawExporter(comic *model.Comic, outputDir string, opts Options) (*rawExporter, error) {
	dir := filepath.Join(outputDir, comic.ReleaseName())
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, err
	}
	return &rawExporter{comic: comic, dir: dir, opts: opts}, nil
}

func (e *rawExporter) WritePage(_ context.Context, page *model.AssembledPage) error {
	data, ext, err := encodePage(page.Image, e.opts.PNG)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(e.dir, pageFileName(e.comic, page.Index, ext)), data, 0o640)
}

func (e *rawExporter) Close() error { return nil }

func (e *rawExporter) Path() string { return e.dir }

// rawExists reports whether the issue directory already holds a full set
// of page images.
func rawExists(comic *model.Comic, outputDir string) bool {
	dir := filepath.Join(outputDir, comic.ReleaseName())
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	images := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".jpg", ".jpeg", ".png":
			images++
		}
	}
	return comic.PageCount > 0 && images >= comic.PageCount
}

// fileExists reports whether path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
