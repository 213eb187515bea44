package epub

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strings"
)

// maxDecompressSize is the maximum allowed decompressed size for a single ZIP entry.
// This guards against zip bomb attacks. Defaults to 256 MB.
const maxDecompressSize int64 = 256 * 1024 * 1024

// archive is a ZIP reader scoped to a single call. Callers must Close it on
// every exit path.
type archive struct {
	closer io.Closer // non-nil only when opened from a file
	exact  map[string]*zip.File
	lower  map[string]*zip.File
}

// openArchive opens an in-memory ZIP archive.
func openArchive(op string, data []byte) (*archive, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, newError(op, ReasonInvalidZipContainer, err)
	}
	return newArchive(zr, nil), nil
}

// openArchiveFile opens the ZIP archive stored at name.
func openArchiveFile(op, name string) (*archive, error) {
	fi, err := os.Stat(name)
	if err != nil {
		return nil, newError(op, ReasonInvalidSourceFile, err)
	}
	if !fi.Mode().IsRegular() {
		return nil, newError(op, ReasonInvalidSourceFile, fmt.Errorf("%s is not a regular file", name))
	}
	zrc, err := zip.OpenReader(name)
	if err != nil {
		return nil, newError(op, ReasonInvalidZipContainer, err)
	}
	return newArchive(&zrc.Reader, zrc), nil
}

// newArchive builds exact-match and lowercase ZIP file indexes for O(1) lookups.
func newArchive(zr *zip.Reader, closer io.Closer) *archive {
	a := &archive{
		closer: closer,
		exact:  make(map[string]*zip.File, len(zr.File)),
		lower:  make(map[string]*zip.File, len(zr.File)),
	}
	for _, f := range zr.File {
		if _, exists := a.exact[f.Name]; !exists {
			a.exact[f.Name] = f // first match wins for exact
		}
		lower := strings.ToLower(f.Name)
		if _, exists := a.lower[lower]; !exists {
			a.lower[lower] = f
		}
	}
	return a
}

// Close releases the underlying file, if any. Close is idempotent.
func (a *archive) Close() error {
	if a.closer != nil {
		err := a.closer.Close()
		a.closer = nil
		return err
	}
	return nil
}

// find looks up a ZIP entry by path. It tries an exact match first, then
// falls back to a case-insensitive match.
func (a *archive) find(name string) *zip.File {
	if f, ok := a.exact[name]; ok {
		return f
	}
	if f, ok := a.lower[strings.ToLower(name)]; ok {
		return f
	}
	return nil
}

// read returns the contents of the named entry or ErrFileNotFound.
func (a *archive) read(name string) ([]byte, error) {
	f := a.find(name)
	if f == nil {
		return nil, fmt.Errorf("%s: %w", name, ErrFileNotFound)
	}
	return readZipFile(f)
}

// NormalizeZipPath collapses "." and ".." segments and empty segments of a
// forward-slash path. It reports false when a ".." would pop above the
// archive root or when nothing remains.
func NormalizeZipPath(p string) (string, bool) {
	segments := make([]string, 0, strings.Count(p, "/")+1)
	for _, seg := range strings.Split(p, "/") {
		switch {
		case strings.TrimSpace(seg) == "", seg == ".":
		case seg == "..":
			if len(segments) == 0 {
				return "", false
			}
			segments = segments[:len(segments)-1]
		default:
			segments = append(segments, seg)
		}
	}
	if len(segments) == 0 {
		return "", false
	}
	return strings.Join(segments, "/"), true
}

// ResolveZipPath resolves rel against the directory of basePath. A leading
// "/" on rel does not make it root-relative: package hrefs are always
// relative to the document that names them. A fragment on rel is kept as-is;
// the path part is percent-decoded first. It reports false when the result
// escapes the archive root.
func ResolveZipPath(basePath, rel string) (string, bool) {
	rel = strings.TrimSpace(rel)
	fragment := ""
	if i := strings.IndexByte(rel, '#'); i >= 0 {
		rel, fragment = rel[:i], rel[i:]
	}
	if decoded, err := url.PathUnescape(rel); err == nil {
		rel = decoded
	}

	var joined string
	switch {
	case rel == "":
		joined = basePath
	default:
		joined = zipDir(basePath) + "/" + rel
	}

	resolved, ok := NormalizeZipPath(joined)
	if !ok {
		return "", false
	}
	return resolved + fragment, true
}

// zipDir returns the directory part of a ZIP path, "" for root-level entries.
func zipDir(p string) string {
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[:i]
	}
	return ""
}

// isSafePath checks whether p is a safe ZIP-internal path that does not
// escape the archive root via path traversal (e.g., "../../../etc/passwd").
func isSafePath(p string) bool {
	cleaned := path.Clean(p)
	if strings.HasPrefix(cleaned, "/") {
		return false
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return false
	}
	return true
}

// stripBOM removes a leading UTF-8 BOM (0xEF 0xBB 0xBF) from data, if present.
func stripBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}

// readZipFile reads the full contents of a ZIP entry.
// It enforces maxDecompressSize to guard against zip bombs and validates
// that the entry path is safe (no path traversal).
func readZipFile(f *zip.File) ([]byte, error) {
	return readZipFileWithLimit(f, maxDecompressSize)
}

// readZipFileWithLimit is the implementation of readZipFile with a configurable
// size limit. It is separated to allow tests to use a smaller limit.
func readZipFileWithLimit(f *zip.File, limit int64) ([]byte, error) {
	if !isSafePath(f.Name) {
		return nil, fmt.Errorf("epub: unsafe zip entry path: %s", f.Name)
	}

	if f.UncompressedSize64 > uint64(limit) {
		return nil, fmt.Errorf("epub: zip entry %s too large: %d bytes (max %d)", f.Name, f.UncompressedSize64, limit)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("epub: open zip entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	// Read up to limit+1 to detect if the actual decompressed data
	// exceeds the limit (the declared size might be wrong/forged).
	lr := io.LimitReader(rc, limit+1)
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, fmt.Errorf("epub: read zip entry %s: %w", f.Name, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("epub: zip entry %s decompressed size exceeds limit (%d bytes)", f.Name, limit)
	}

	return data, nil
}
