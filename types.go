package epub

// ManifestItem represents an entry in the OPF <manifest> element.
type ManifestItem struct {
	// ID is the unique identifier of this manifest item.
	ID string

	// Href is the file path relative to the OPF file location.
	Href string

	// MediaType is the MIME type of the resource.
	MediaType string

	// Properties contains space-separated property values (ePub 3, e.g., "nav", "cover-image").
	Properties string
}

// HasProperty reports whether the item's Properties token set contains p.
func (m ManifestItem) HasProperty(p string) bool {
	return hasToken(m.Properties, p)
}

// TocEntry is one row of a flattened table of contents.
type TocEntry struct {
	// Label is the display text of the entry.
	Label string

	// Href is the ZIP-internal target, possibly with a "#fragment".
	// Empty when the entry has no resolvable target.
	Href string

	// Depth is the nesting level, starting at 0.
	Depth int
}

// Encryption classifies what META-INF/encryption.xml (or sinf.xml) declares.
type Encryption int

const (
	EncryptionNone Encryption = iota
	EncryptionFontObfuscation
	EncryptionDRM
)

func (e Encryption) String() string {
	switch e {
	case EncryptionFontObfuscation:
		return "font-obfuscation"
	case EncryptionDRM:
		return "drm"
	default:
		return "none"
	}
}

// PackageMetadata is the result of parsing an archive's package document.
type PackageMetadata struct {
	// PackagePath is the ZIP-internal path of the OPF file.
	PackagePath string

	// Version is the package version attribute, "" when absent.
	Version string

	// Title is the first non-blank dc:title, "" when absent.
	Title string

	// Authors contains every non-blank dc:creator in document order.
	Authors []string

	// Language contains every non-blank dc:language value.
	Language []string

	// CoverZipPath is the ZIP-internal path of the cover image, "" when none.
	CoverZipPath string

	// TOC is the flattened table of contents; empty when the book has none.
	TOC []TocEntry

	// Manifest maps manifest ids to their items.
	Manifest map[string]ManifestItem

	// Spine holds the spine idrefs in reading order.
	Spine []string

	// Encryption reports font obfuscation or DRM declared by the archive.
	Encryption Encryption

	// Warnings lists non-fatal problems found while parsing.
	Warnings []string
}

// SpineDocument is the selected reading-order document plus its neighbours.
type SpineDocument struct {
	PackageTitle     string
	ChapterZipPath   string
	ChapterMediaType string
	ChapterMarkup    string
	SpineIndex       int
	SpineItemCount   int

	// PreviousChapterZipPath and NextChapterZipPath are "" at the spine
	// boundary or when no readable document exists in that direction.
	PreviousChapterZipPath string
	NextChapterZipPath     string
}

// Resource is an archive entry served to the rendering layer.
type Resource struct {
	ZipPath  string
	MimeType string

	// Encoding is "UTF-8" for text-like MIME types and "" otherwise.
	Encoding string

	Data []byte
}
