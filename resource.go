package epub

import (
	"net/url"
	"path"
	"strings"
)

// ReaderHost is the synthetic host every in-document request is addressed to.
// It marks the sandbox boundary and is never resolved on a network.
const ReaderHost = "reader.epubnav.invalid"

// ChapterBaseURL returns the base URL a renderer should load chapter markup
// under, so that relative references resolve back into the sandbox.
func ChapterBaseURL(chapterZipPath string) string {
	return "https://" + ReaderHost + "/" + strings.TrimLeft(chapterZipPath, "/")
}

// ResolveRequestPath resolves a request path against the chapter: a leading
// "/" makes it root-relative, anything else is relative to the chapter's
// directory. It reports false when the path climbs above the archive root or
// normalizes to nothing.
func ResolveRequestPath(chapterZipPath, requestPath string) (string, bool) {
	if strings.TrimSpace(requestPath) == "" {
		return "", false
	}
	candidate := ""
	switch dir := zipDir(chapterZipPath); {
	case strings.HasPrefix(requestPath, "/"):
		candidate = strings.TrimPrefix(requestPath, "/")
	case dir == "":
		candidate = requestPath
	default:
		candidate = dir + "/" + requestPath
	}
	return NormalizeZipPath(candidate)
}

// ResolveRequestZipPath maps an absolute request URL to an archive path.
// Requests for any host other than ReaderHost are refused.
func ResolveRequestZipPath(chapterZipPath, requestURL string) (string, bool) {
	u, ok := parseSandboxURL(requestURL)
	if !ok {
		return "", false
	}
	return ResolveRequestPath(chapterZipPath, u.Path)
}

func parseSandboxURL(requestURL string) (*url.URL, bool) {
	u, err := url.Parse(strings.TrimSpace(requestURL))
	if err != nil {
		return nil, false
	}
	if host := u.Hostname(); host == "" || !strings.EqualFold(host, ReaderHost) {
		return nil, false
	}
	return u, true
}

// NavigationKind distinguishes the two navigation events a renderer reports.
type NavigationKind int

const (
	// NavigationAnchor is a jump within the current chapter.
	NavigationAnchor NavigationKind = iota + 1
	// NavigationChapter opens another spine document.
	NavigationChapter
)

func (k NavigationKind) String() string {
	switch k {
	case NavigationAnchor:
		return "anchor"
	case NavigationChapter:
		return "chapter"
	default:
		return "unknown"
	}
}

// NavigationEvent is a link activation intercepted before it is fetched.
type NavigationEvent struct {
	Kind           NavigationKind
	ChapterZipPath string
	Fragment       string // without '#', "" when absent
}

// ClassifyNavigation decides whether a link activation inside chapterZipPath
// is navigation rather than a resource fetch. Only sandbox requests whose
// resolved path has an HTML extension qualify. A link to the current chapter
// without a fragment is not an event.
func ClassifyNavigation(chapterZipPath, requestURL string) (NavigationEvent, bool) {
	u, ok := parseSandboxURL(requestURL)
	if !ok {
		return NavigationEvent{}, false
	}
	target, ok := ResolveRequestPath(chapterZipPath, u.Path)
	if !ok || !isHTMLPath(target) {
		return NavigationEvent{}, false
	}
	fragment := strings.TrimSpace(u.Fragment)

	current, _ := NormalizeZipPath(chapterZipPath)
	if target == current {
		if fragment == "" {
			return NavigationEvent{}, false
		}
		return NavigationEvent{Kind: NavigationAnchor, ChapterZipPath: target, Fragment: fragment}, true
	}
	return NavigationEvent{Kind: NavigationChapter, ChapterZipPath: target, Fragment: fragment}, true
}

func isHTMLPath(p string) bool {
	switch strings.ToLower(strings.TrimPrefix(path.Ext(p), ".")) {
	case "xhtml", "html", "htm":
		return true
	}
	return false
}

// LoadResource serves a sandbox request issued while chapterZipPath is
// displayed. It reports false for foreign hosts, traversal attempts and
// missing or unreadable entries.
func LoadResource(data []byte, chapterZipPath, requestURL string) (*Resource, bool) {
	zipPath, ok := ResolveRequestZipPath(chapterZipPath, requestURL)
	if !ok {
		return nil, false
	}
	a, err := openArchive("load resource", data)
	if err != nil {
		return nil, false
	}
	defer a.Close()
	return loadResource(a, zipPath)
}

// LoadResourceFile is LoadResource for an archive on disk.
func LoadResourceFile(name, chapterZipPath, requestURL string) (*Resource, bool) {
	zipPath, ok := ResolveRequestZipPath(chapterZipPath, requestURL)
	if !ok {
		return nil, false
	}
	a, err := openArchiveFile("load resource", name)
	if err != nil {
		return nil, false
	}
	defer a.Close()
	return loadResource(a, zipPath)
}

func loadResource(a *archive, zipPath string) (*Resource, bool) {
	f := a.find(zipPath)
	if f == nil {
		return nil, false
	}
	body, err := readZipFile(f)
	if err != nil {
		return nil, false
	}
	mime := guessMimeType(zipPath)
	return &Resource{
		ZipPath:  zipPath,
		MimeType: mime,
		Encoding: textEncodingForMimeType(mime),
		Data:     body,
	}, true
}

// mimeTypes maps lowercase file extensions to the MIME types served to the
// renderer.
var mimeTypes = map[string]string{
	"xhtml": "text/html",
	"html":  "text/html",
	"htm":   "text/html",
	"css":   "text/css",
	"js":    "application/javascript",
	"xml":   "application/xml",
	"opf":   "application/xml",
	"ncx":   "application/xml",
	"svg":   "image/svg+xml",
	"png":   "image/png",
	"jpg":   "image/jpeg",
	"jpeg":  "image/jpeg",
	"gif":   "image/gif",
	"webp":  "image/webp",
	"ttf":   "font/ttf",
	"otf":   "font/otf",
	"woff":  "font/woff",
	"woff2": "font/woff2",
}

// guessMimeType returns the MIME type for a path's extension, or
// application/octet-stream.
func guessMimeType(zipPath string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(zipPath), "."))
	if m, ok := mimeTypes[ext]; ok {
		return m
	}
	return "application/octet-stream"
}

// textEncodingForMimeType returns "UTF-8" for text-like MIME types.
func textEncodingForMimeType(mime string) string {
	switch {
	case strings.HasPrefix(mime, "text/"),
		mime == "application/xhtml+xml",
		mime == "application/xml",
		mime == "image/svg+xml":
		return "UTF-8"
	}
	return ""
}
