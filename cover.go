package epub

import (
	"fmt"
	"strings"
)

// resolveCoverZipPath picks the cover image href in priority order:
//  1. ePub 3 manifest item with properties containing "cover-image"
//  2. ePub 2 <meta name="cover" content="ID"/> → manifest lookup
//  3. first image manifest item whose href contains "cover"
//
// The href is resolved against the package document. A path escaping the
// archive root yields no cover and a warning.
func resolveCoverZipPath(pkg *packageDocument) (string, string) {
	if len(pkg.items) == 0 {
		return "", ""
	}

	href := ""
	if item, ok := pkg.firstItem(func(m ManifestItem) bool { return m.HasProperty("cover-image") }); ok {
		href = item.Href
	} else if item, ok := pkg.byID[pkg.metaContent("cover")]; ok {
		href = item.Href
	} else if item, ok := pkg.firstItem(func(m ManifestItem) bool {
		return isImageMediaType(m.MediaType) && containsFold(m.Href, "cover")
	}); ok {
		href = item.Href
	}
	if href == "" {
		return "", ""
	}

	resolved, ok := pkg.resolve(href)
	if !ok {
		return "", fmt.Sprintf("cover href %q escapes the archive root", href)
	}
	return resolved, ""
}

// ExtractCover returns the cover image bytes. It returns ErrNoCover when no
// strategy names a cover or the named entry is missing.
func ExtractCover(data []byte) (*Resource, error) {
	const op = "extract cover"
	a, err := openArchive(op, data)
	if err != nil {
		return nil, err
	}
	defer a.Close()

	pkg, err := loadPackage(op, a, true)
	if err != nil {
		return nil, err
	}
	coverPath, _ := resolveCoverZipPath(pkg)
	if coverPath == "" {
		return nil, ErrNoCover
	}
	img, err := a.read(coverPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoCover, err)
	}
	return &Resource{
		ZipPath:  coverPath,
		MimeType: guessMimeType(coverPath),
		Data:     img,
	}, nil
}

// isImageMediaType returns true if the media type starts with "image/".
func isImageMediaType(mediaType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mediaType)), "image/")
}

// containsFold reports whether s contains substr, case-insensitively.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
