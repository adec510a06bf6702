package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/noxpand/retile/internal/model"
)

// EPUB boilerplate. Fixed-layout, one XHTML wrapper per page image.
const (
	epubMimetype = "application/epub+zip"

	epubContainerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>
`

	epubStylesCSS = `html, body {
  margin: 0;
  padding: 0;
}
img.page {
  width: 100%;
  height: auto;
  display: block;
}
`

	epubPageXHTML = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <title>%s</title>
  <link rel="stylesheet" type="text/css" href="epub_styles.css"/>
</head>
<body>
  <img class="page" src="%s" alt="page %d"/>
</body>
</html>
`
)

// epubExporter streams pages into a fixed-layout EPUB. The package
// document (content.opf) needs the full page list, so it is written at
// Close time.
type epubExporter struct {
	comic *model.Comic
	path  string
	file  *os.File
	zw    *zip.Writer
	opts  Options

	// pages records written image file names in page order for the
	// manifest and spine.
	pages []string
}

func epubPath(comic *model.Comic, outputDir string) string {
	return filepath.Join(outputDir, comic.ReleaseName()+".epub")
}

func newEPUBExporter(comic *model.Comic, outputDir string, opts Options) (*epubExporter, error) {
	if err := os.MkdirAll(outputDir, 0o750); err != nil {
		return nil, err
	}
	path := epubPath(comic, outputDir)
	file, err := os.Create(path) //nolint:gosec // path derives from the sanitized release name
	if err != nil {
		return nil, err
	}

	e := &epubExporter{
		comic: comic,
		path:  path,
		file:  file,
		zw:    zip.NewWriter(file),
		opts:  opts,
	}
	if err := e.writeBoilerplate(); err != nil {
		_ = e.zw.Close()
		_ = file.Close()
		return nil, err
	}
	return e, nil
}

// writeBoilerplate writes the fixed EPUB skeleton. The mimetype entry
// must be first and stored uncompressed.
func (e *epubExporter) writeBoilerplate() error {
	mt, err := e.zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		return err
	}
	if _, err := mt.Write([]byte(epubMimetype)); err != nil {
		return err
	}

	for _, entry := range []struct{ name, body string }{
		{"META-INF/container.xml", epubContainerXML},
		{"epub_styles.css", epubStylesCSS},
	} {
		w, err := e.zw.Create(entry.name)
		if err != nil {
			return err
		}
		if _, err := w.Write([]byte(entry.body)); err != nil {
			return err
		}
	}
	return nil
}

func (e *epubExporter) WritePage(_ context.Context, page *model.AssembledPage) error {
	data, ext, err := encodePage(page.Image, e.opts.PNG)
	if err != nil {
		return err
	}

	number := len(e.pages) + 1
	imageName := fmt.Sprintf("images/page_%03d.%s", number, ext)
	w, err := e.zw.Create(imageName)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}

	title := fmt.Sprintf("%s - Page #%d", e.comic.ReleaseName(), number)
	if number == 1 {
		title = e.comic.ReleaseName() + " - Cover Page"
	}
	xw, err := e.zw.Create(fmt.Sprintf("page_%03d.xhtml", number))
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(xw, epubPageXHTML, title, imageName, number); err != nil {
		return err
	}

	e.pages = append(e.pages, imageName)
	return nil
}

// Close writes the package document and finalizes the archive.
func (e *epubExporter) Close() error {
	if err := e.writeContentOPF(); err != nil {
		_ = e.zw.Close()
		_ = e.file.Close()
		return err
	}
	if err := e.zw.Close(); err != nil {
		_ = e.file.Close()
		return err
	}
	return e.file.Close()
}

func (e *epubExporter) writeContentOPF() error {
	w, err := e.zw.Create("content.opf")
	if err != nil {
		return err
	}

	fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="bookid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:identifier id="bookid">urn:retile:%s</dc:identifier>
    <dc:title>%s</dc:title>
    <dc:language>en</dc:language>
  </metadata>
  <manifest>
    <item id="css" href="epub_styles.css" media-type="text/css"/>
`, e.comic.ID, e.comic.ReleaseName())

	for i, imageName := range e.pages {
		mediaType := "image/jpeg"
		if filepath.Ext(imageName) == ".png" {
			mediaType = "image/png"
		}
		fmt.Fprintf(w, "    <item id=\"img%03d\" href=\"%s\" media-type=\"%s\"/>\n", i+1, imageName, mediaType)
		fmt.Fprintf(w, "    <item id=\"page%03d\" href=\"page_%03d.xhtml\" media-type=\"application/xhtml+xml\"/>\n", i+1, i+1)
	}

	fmt.Fprint(w, "  </manifest>\n  <spine>\n")
	for i := range e.pages {
		fmt.Fprintf(w, "    <itemref idref=\"page%03d\"/>\n", i+1)
	}
	_, err = fmt.Fprint(w, "  </spine>\n</package>\n")
	return err
}

func (e *epubExporter) Path() string { return e.path }
