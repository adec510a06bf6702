package archive

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"

	"github.com/noxpand/retile/internal/model"
)

// cbzExporter streams pages into a single comic book zip.
type cbzExporter struct {
	comic *model.Comic
	path  string
	file  *os.File
	zw    *zip.Writer
	opts  Options
}

func cbzPath(comic *model.Comic, outputDir string) string {
	return filepath.Join(outputDir, comic.ReleaseName()+".cbz")
}

func newCBZExporter(comic *model.Comic, outputDir string, opts Options) (*cbzExporter, error) {
	if err := os.MkdirAll(outputDir, 0o750); err != nil {
		return nil, err
	}
	path := cbzPath(comic, outputDir)
	file, err := os.Create(path) //nolint:gosec // path derives from the sanitized release name
	if err != nil {
		return nil, err
	}
	return &cbzExporter{
		comic: comic,
		path:  path,
		file:  file,
		zw:    zip.NewWriter(file),
		opts:  opts,
	}, nil
}

func (e *cbzExporter) WritePage(_ context.Context, page *model.AssembledPage) error {
	data, ext, err := encodePage(page.Image, e.opts.PNG)
	if err != nil {
		return err
	}
	w, err := e.zw.Create(pageFileName(e.comic, page.Index, ext))
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func (e *cbzExporter) Close() error {
	if err := e.zw.Close(); err != nil {
		_ = e.file.Close()
		return err
	}
	return e.file.Close()
}

func (e *cbzExporter) Path() string { return e.path }
