package epub

import (
	"strings"
)

// LoadSpineDocument opens the archive and returns one reading-order document.
// When preferredChapterZipPath names a spine document it is selected,
// otherwise the first spine entry is used. The mimetype entry is not checked
// so that slightly malformed archives remain readable.
func LoadSpineDocument(data []byte, preferredChapterZipPath string) (*SpineDocument, error) {
	const op = "load spine document"
	a, err := openArchive(op, data)
	if err != nil {
		return nil, err
	}
	defer a.Close()
	return loadSpineDocument(op, a, preferredChapterZipPath)
}

// LoadSpineDocumentFile is LoadSpineDocument for an archive on disk.
func LoadSpineDocumentFile(name, preferredChapterZipPath string) (*SpineDocument, error) {
	const op = "load spine document"
	a, err := openArchiveFile(op, name)
	if err != nil {
		return nil, err
	}
	defer a.Close()
	return loadSpineDocument(op, a, preferredChapterZipPath)
}

func loadSpineDocument(op string, a *archive, preferred string) (*SpineDocument, error) {
	pkg, err := loadPackage(op, a, false)
	if err != nil {
		return nil, err
	}
	if len(pkg.spine) == 0 {
		return nil, newError(op, ReasonEmptySpine, nil)
	}

	index := pkg.spineIndexOf(preferred)
	idref := pkg.spine[index]
	item, ok := pkg.byID[idref]
	if !ok {
		e := newError(op, ReasonSpineItemNotInManifest, nil)
		e.Detail = "idref " + quoteShort(idref)
		return nil, e
	}
	if !isSpineMediaType(item.MediaType) {
		e := newError(op, ReasonUnsupportedSpineDocumentType, nil)
		e.Detail = "media type " + quoteShort(item.MediaType)
		return nil, e
	}

	chapterPath, ok := pkg.resolve(item.Href)
	if !ok {
		e := newError(op, ReasonMissingSpineDocumentEntry, nil)
		e.Detail = "href " + quoteShort(item.Href) + " escapes the archive root"
		return nil, e
	}
	f := a.find(chapterPath)
	if f == nil {
		e := newError(op, ReasonMissingSpineDocumentEntry, nil)
		e.Detail = chapterPath
		return nil, e
	}
	raw, err := readZipFile(f)
	if err != nil {
		return nil, newError(op, ReasonUnreadableSpineDocument, err)
	}

	return &SpineDocument{
		PackageTitle:           pkg.title(),
		ChapterZipPath:         chapterPath,
		ChapterMediaType:       item.MediaType,
		ChapterMarkup:          strings.ToValidUTF8(string(stripBOM(raw)), "�"),
		SpineIndex:             index,
		SpineItemCount:         len(pkg.spine),
		PreviousChapterZipPath: pkg.adjacentChapter(index, -1),
		NextChapterZipPath:     pkg.adjacentChapter(index, 1),
	}, nil
}

// spineIndexOf returns the index of the first spine entry whose resolved href
// equals the normalized preferred path, or 0.
func (p *packageDocument) spineIndexOf(preferred string) int {
	if strings.TrimSpace(preferred) == "" {
		return 0
	}
	want, ok := NormalizeZipPath(preferred)
	if !ok {
		return 0
	}
	for i, idref := range p.spine {
		item, ok := p.byID[idref]
		if !ok {
			continue
		}
		if got, ok := p.resolve(item.Href); ok && got == want {
			return i
		}
	}
	return 0
}

// adjacentChapter walks from index in direction dir (+1 or -1) and returns
// the first readable spine document path, or "" at the spine boundary.
func (p *packageDocument) adjacentChapter(index, dir int) string {
	for i := index + dir; i >= 0 && i < len(p.spine); i += dir {
		item, ok := p.byID[p.spine[i]]
		if !ok || !isSpineMediaType(item.MediaType) {
			continue
		}
		if resolved, ok := p.resolve(item.Href); ok {
			return resolved
		}
	}
	return ""
}

// isSpineMediaType reports whether a spine item can be rendered as a chapter.
func isSpineMediaType(mediaType string) bool {
	return strings.TrimSpace(mediaType) == "" ||
		strings.EqualFold(mediaType, "application/xhtml+xml") ||
		strings.EqualFold(mediaType, "text/html")
}
