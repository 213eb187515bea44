package epub

import (
	"archive/zip"
	"bytes"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

// validContainerXML is a well-formed META-INF/container.xml pointing to an OPF.
const validContainerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

// buildTestZip creates an in-memory ZIP archive from the provided files map
// (path → content) and returns its bytes. The mimetype entry, when present,
// is written first; the rest follow in sorted order.
// It calls t.Fatal on any error.
func buildTestZip(t testing.TB, files map[string]string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	names := slices.Sorted(maps.Keys(files))
	if i := slices.Index(names, "mimetype"); i > 0 {
		names = append([]string{"mimetype"}, slices.Delete(names, i, i+1)...)
	}
	for _, name := range names {
		fw, err := zw.Create(name)
		if err != nil {
			t.Fatalf("buildTestZip: create %s: %v", name, err)
		}
		if _, err := io.WriteString(fw, files[name]); err != nil {
			t.Fatalf("buildTestZip: write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("buildTestZip: close writer: %v", err)
	}
	return buf.Bytes()
}

// buildTestArchive opens files as an *archive for white-box tests.
func buildTestArchive(t testing.TB, files map[string]string) *archive {
	t.Helper()
	a, err := openArchive("test", buildTestZip(t, files))
	if err != nil {
		t.Fatalf("buildTestArchive: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

// buildTestEPubFile writes an ePub (ZIP) archive to a temporary file and returns
// the file path.
func buildTestEPubFile(t testing.TB, files map[string]string) string {
	t.Helper()
	fp := filepath.Join(t.TempDir(), "test.epub")
	if err := os.WriteFile(fp, buildTestZip(t, files), 0644); err != nil {
		t.Fatalf("buildTestEPubFile: write file: %v", err)
	}
	return fp
}

// testEPubFiles returns the file map of a valid archive whose package document
// lives at OEBPS/content.opf, merged with extra.
func testEPubFiles(opf string, extra map[string]string) map[string]string {
	files := map[string]string{
		"mimetype":               "application/epub+zip",
		"META-INF/container.xml": validContainerXML,
		"OEBPS/content.opf":      opf,
	}
	maps.Copy(files, extra)
	return files
}

// testOPF wraps manifest items and spine itemrefs in a package document.
func testOPF(spineAttrs, manifest, spine string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<package version="3.0" xmlns="http://www.idpf.org/2007/opf" unique-identifier="bookid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>Test Book</dc:title>
    <dc:creator>Jane Doe</dc:creator>
    <dc:language>en</dc:language>
  </metadata>
  <manifest>
` + manifest + `
  </manifest>
  <spine` + spineAttrs + `>
` + spine + `
  </spine>
</package>`
}

// chapterXHTML returns a small XHTML document with the given body.
func chapterXHTML(title, body string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml"><head><title>` + title + `</title></head>
<body>` + body + `</body></html>`
}
