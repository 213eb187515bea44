// Package server exposes one opened book over loopback HTTP for an embedding
// renderer: metadata, table of contents, spine documents, sandboxed resource
// requests and the reading-position codecs.
package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	epub "github.com/simp-lee/epubnav"
	"github.com/simp-lee/epubnav/reader"
)

// maxCodecBody bounds the request body of the codec endpoints.
const maxCodecBody = 64 << 10

// Server is the HTTP transport for a single archive held in memory.
type Server struct {
	router      chi.Router
	book        []byte
	fingerprint string
	log         *slog.Logger
}

// NewServer creates and configures the HTTP server for the archive bytes.
func NewServer(book []byte, log *slog.Logger) *Server {
	s := &Server{
		book:        book,
		fingerprint: epub.Fingerprint(book),
		log:         log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)
	r.Get("/metadata", s.handleMetadata)
	r.Get("/toc", s.handleTOC)
	r.Get("/chapter", s.handleChapter)
	r.Get("/resource/*", s.handleResource)
	r.Post("/locator/decode", s.handleLocatorDecode)
	r.Post("/viewport/decode", s.handleViewportDecode)

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

type metadataResponse struct {
	Fingerprint  string                       `json:"fingerprint"`
	PackagePath  string                       `json:"package_path"`
	Version      string                       `json:"version,omitempty"`
	Title        string                       `json:"title,omitempty"`
	Authors      []string                     `json:"authors"`
	Language     []string                     `json:"language"`
	CoverZipPath string                       `json:"cover_zip_path,omitempty"`
	Manifest     map[string]epub.ManifestItem `json:"manifest"`
	Spine        []string                     `json:"spine"`
	TOCEntries   int                          `json:"toc_entries"`
	Encryption   string                       `json:"encryption"`
	Warnings     []string                     `json:"warnings"`
}

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	md, err := epub.ExtractMetadata(s.book)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, metadataResponse{
		Fingerprint:  s.fingerprint,
		PackagePath:  md.PackagePath,
		Version:      md.Version,
		Title:        md.Title,
		Authors:      nonNil(md.Authors),
		Language:     nonNil(md.Language),
		CoverZipPath: md.CoverZipPath,
		Manifest:     md.Manifest,
		Spine:        nonNil(md.Spine),
		TOCEntries:   len(md.TOC),
		Encryption:   md.Encryption.String(),
		Warnings:     nonNil(md.Warnings),
	})
}

type tocEntryJSON struct {
	Label string `json:"label"`
	Href  string `json:"href,omitempty"`
	Depth int    `json:"depth"`
}

type tocResponse struct {
	Entries  []tocEntryJSON `json:"entries"`
	Encoded  string         `json:"encoded,omitempty"`
	Selected string         `json:"selected,omitempty"`
}

// handleTOC returns the table of contents. With ?chapter= (and optionally
// &anchor=) it also reports the entry matching that position.
func (s *Server) handleTOC(w http.ResponseWriter, r *http.Request) {
	md, err := epub.ExtractMetadata(s.book)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	resp := tocResponse{Entries: make([]tocEntryJSON, 0, len(md.TOC))}
	for _, e := range md.TOC {
		resp.Entries = append(resp.Entries, tocEntryJSON{Label: e.Label, Href: e.Href, Depth: e.Depth})
	}
	resp.Encoded, _ = epub.EncodeTOC(md.TOC)

	q := r.URL.Query()
	if chapter := q.Get("chapter"); chapter != "" {
		resp.Selected, _ = reader.SelectTOCHref(md.TOC, chapter, q.Get("anchor"))
	}
	writeJSON(w, http.StatusOK, resp)
}

type chapterResponse struct {
	PackageTitle           string `json:"package_title,omitempty"`
	ChapterZipPath         string `json:"chapter_zip_path"`
	ChapterMediaType       string `json:"chapter_media_type"`
	BaseURL                string `json:"base_url"`
	SpineIndex             int    `json:"spine_index"`
	SpineItemCount         int    `json:"spine_item_count"`
	PreviousChapterZipPath string `json:"previous_chapter_zip_path,omitempty"`
	NextChapterZipPath     string `json:"next_chapter_zip_path,omitempty"`
	Markup                 string `json:"markup"`
}

func (s *Server) handleChapter(w http.ResponseWriter, r *http.Request) {
	doc, err := epub.LoadSpineDocument(s.book, r.URL.Query().Get("path"))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chapterResponse{
		PackageTitle:           doc.PackageTitle,
		ChapterZipPath:         doc.ChapterZipPath,
		ChapterMediaType:       doc.ChapterMediaType,
		BaseURL:                epub.ChapterBaseURL(doc.ChapterZipPath),
		SpineIndex:             doc.SpineIndex,
		SpineItemCount:         doc.SpineItemCount,
		PreviousChapterZipPath: doc.PreviousChapterZipPath,
		NextChapterZipPath:     doc.NextChapterZipPath,
		Markup:                 doc.ChapterMarkup,
	})
}

type navigationResponse struct {
	Navigation     string `json:"navigation"`
	ChapterZipPath string `json:"chapter_zip_path"`
	Fragment       string `json:"fragment,omitempty"`
}

// handleResource answers a sandbox request. The wildcard is the root-relative
// request path; ?chapter= names the displayed chapter and ?fragment= carries
// the link fragment, which HTTP clients do not send.
func (s *Server) handleResource(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	chapter := q.Get("chapter")
	target := url.URL{
		Scheme:   "https",
		Host:     epub.ReaderHost,
		Path:     "/" + strings.TrimPrefix(chi.URLParam(r, "*"), "/"),
		Fragment: q.Get("fragment"),
	}
	requestURL := target.String()

	if ev, ok := epub.ClassifyNavigation(chapter, requestURL); ok {
		writeJSON(w, http.StatusOK, navigationResponse{
			Navigation:     ev.Kind.String(),
			ChapterZipPath: ev.ChapterZipPath,
			Fragment:       ev.Fragment,
		})
		return
	}

	res, ok := epub.LoadResource(s.book, chapter, requestURL)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "resource not found"})
		return
	}
	contentType := res.MimeType
	if res.Encoding != "" {
		contentType += "; charset=" + res.Encoding
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(res.Data)
}

type locatorJSON struct {
	ChapterZipPath  string `json:"chapter_zip_path,omitempty"`
	AnchorFragment  string `json:"anchor_fragment,omitempty"`
	PageMode        string `json:"page_mode,omitempty"`
	ScrollX         *int   `json:"scroll_x,omitempty"`
	ScrollY         *int   `json:"scroll_y,omitempty"`
	MaxScrollX      *int   `json:"max_scroll_x,omitempty"`
	MaxScrollY      *int   `json:"max_scroll_y,omitempty"`
	PageIndex       *int   `json:"page_index,omitempty"`
	PageCount       *int   `json:"page_count,omitempty"`
	VisibleTextHint string `json:"visible_text_hint,omitempty"`
	ScrollXPermille *int   `json:"scroll_x_permille,omitempty"`
	ScrollYPermille *int   `json:"scroll_y_permille,omitempty"`
	PagePermille    *int   `json:"page_permille,omitempty"`
	Encoded         string `json:"encoded"`
}

func newLocatorJSON(l reader.PositionLocator) locatorJSON {
	out := locatorJSON{
		ChapterZipPath:  l.ChapterZipPath,
		AnchorFragment:  l.AnchorFragment,
		PageMode:        l.PageMode.String(),
		ScrollX:         l.ScrollX,
		ScrollY:         l.ScrollY,
		MaxScrollX:      l.MaxScrollX,
		MaxScrollY:      l.MaxScrollY,
		PageIndex:       l.PageIndex,
		PageCount:       l.PageCount,
		VisibleTextHint: l.VisibleTextHint,
		Encoded:         l.Encode(),
	}
	if v, ok := l.ScrollXProgressPermille(); ok {
		out.ScrollXPermille = reader.Int(v)
	}
	if v, ok := l.ScrollYProgressPermille(); ok {
		out.ScrollYPermille = reader.Int(v)
	}
	if v, ok := l.PageProgressPermille(); ok {
		out.PagePermille = reader.Int(v)
	}
	return out
}

func (s *Server) handleLocatorDecode(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxCodecBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cannot read body"})
		return
	}
	l, ok := reader.DecodeLocator(string(body))
	if !ok {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "unrecognized locator"})
		return
	}
	writeJSON(w, http.StatusOK, newLocatorJSON(l))
}

type viewportResponse struct {
	PageIndex         *int         `json:"page_index,omitempty"`
	PageCount         *int         `json:"page_count,omitempty"`
	ScrollX           *int         `json:"scroll_x,omitempty"`
	ScrollY           *int         `json:"scroll_y,omitempty"`
	MaxScrollX        *int         `json:"max_scroll_x,omitempty"`
	MaxScrollY        *int         `json:"max_scroll_y,omitempty"`
	AnchorFragment    string       `json:"anchor_fragment,omitempty"`
	TocAnchorFragment string       `json:"toc_anchor_fragment,omitempty"`
	VisibleTextHint   string       `json:"visible_text_hint,omitempty"`
	Locator           *locatorJSON `json:"locator,omitempty"`
}

// handleViewportDecode decodes renderer telemetry. With ?chapter= (and
// optionally &mode=) it also returns the locator to persist.
func (s *Server) handleViewportDecode(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxCodecBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cannot read body"})
		return
	}
	m, ok := reader.DecodeViewportMetrics(string(body))
	if !ok {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "unrecognized viewport metrics"})
		return
	}
	resp := viewportResponse{
		PageIndex:         m.PageIndex,
		PageCount:         m.PageCount,
		ScrollX:           m.ScrollX,
		ScrollY:           m.ScrollY,
		MaxScrollX:        m.MaxScrollX,
		MaxScrollY:        m.MaxScrollY,
		AnchorFragment:    m.AnchorFragment,
		TocAnchorFragment: m.TocAnchorFragment,
		VisibleTextHint:   m.VisibleTextHint,
	}
	q := r.URL.Query()
	mode, _ := reader.ParsePageMode(q.Get("mode"))
	if l, ok := m.Locator(q.Get("chapter"), mode); ok {
		lj := newLocatorJSON(l)
		resp.Locator = &lj
	}
	writeJSON(w, http.StatusOK, resp)
}

type failureResponse struct {
	Error   string `json:"error"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	reason := epub.ReasonOf(err)
	s.log.Warn("book operation failed",
		"path", r.URL.Path,
		"reason", reason.String(),
		"error", err,
		"request_id", middleware.GetReqID(r.Context()),
	)
	writeJSON(w, http.StatusUnprocessableEntity, failureResponse{
		Error:   err.Error(),
		Reason:  reason.String(),
		Message: reason.UserMessage(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
