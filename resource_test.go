package epub

import (
	"testing"
)

func TestResolveRequestPath(t *testing.T) {
	const chapter = "OEBPS/chapters/one.xhtml"
	tests := []struct {
		name    string
		chapter string
		request string
		want    string
		wantOK  bool
	}{
		{"relative to chapter", chapter, "style.css", "OEBPS/chapters/style.css", true},
		{"parent directory", chapter, "../images/a.png", "OEBPS/images/a.png", true},
		{"root relative", chapter, "/OEBPS/images/cover.jpg", "OEBPS/images/cover.jpg", true},
		{"root-level chapter", "one.xhtml", "style.css", "style.css", true},
		{"dot segments", chapter, "./a/./b/../c.css", "OEBPS/chapters/a/c.css", true},
		{"traversal", chapter, "../../../secret.css", "", false},
		{"root traversal", chapter, "/../secret.css", "", false},
		{"blank", chapter, "  ", "", false},
		{"only slashes", chapter, "/", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveRequestPath(tt.chapter, tt.request)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ResolveRequestPath(%q, %q) = %q, %v; want %q, %v",
					tt.chapter, tt.request, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestResolveRequestZipPath(t *testing.T) {
	const chapter = "OEBPS/chapters/one.xhtml"
	tests := []struct {
		url    string
		want   string
		wantOK bool
	}{
		{"https://" + ReaderHost + "/OEBPS/chapters/style.css", "OEBPS/chapters/style.css", true},
		{"https://READER.EPUBNAV.INVALID/OEBPS/a.png?v=2", "OEBPS/a.png", true},
		{"https://" + ReaderHost + "/OEBPS/My%20Image.png", "OEBPS/My Image.png", true},
		{"https://example.com/OEBPS/chapters/style.css", "", false},
		{"/OEBPS/chapters/style.css", "", false},
		{"https://" + ReaderHost + "/../secret", "", false},
		{"://bad", "", false},
	}
	for _, tt := range tests {
		got, ok := ResolveRequestZipPath(chapter, tt.url)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ResolveRequestZipPath(%q) = %q, %v; want %q, %v", tt.url, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestChapterBaseURL(t *testing.T) {
	got := ChapterBaseURL("OEBPS/text/ch1.xhtml")
	if want := "https://reader.epubnav.invalid/OEBPS/text/ch1.xhtml"; got != want {
		t.Errorf("ChapterBaseURL = %q; want %q", got, want)
	}
	if p, ok := ResolveRequestZipPath("OEBPS/text/ch1.xhtml", got); !ok || p != "OEBPS/text/ch1.xhtml" {
		t.Errorf("base URL does not resolve back: %q, %v", p, ok)
	}
}

func TestClassifyNavigation(t *testing.T) {
	const chapter = "OEBPS/text/ch1.xhtml"
	base := "https://" + ReaderHost + "/"
	tests := []struct {
		name   string
		url    string
		want   NavigationEvent
		wantOK bool
	}{
		{
			name:   "anchor in current chapter",
			url:    base + "OEBPS/text/ch1.xhtml#note-3",
			want:   NavigationEvent{Kind: NavigationAnchor, ChapterZipPath: chapter, Fragment: "note-3"},
			wantOK: true,
		},
		{
			name:   "other chapter",
			url:    base + "OEBPS/text/ch2.xhtml",
			want:   NavigationEvent{Kind: NavigationChapter, ChapterZipPath: "OEBPS/text/ch2.xhtml"},
			wantOK: true,
		},
		{
			name:   "other chapter with fragment",
			url:    base + "OEBPS/notes.html#n1",
			want:   NavigationEvent{Kind: NavigationChapter, ChapterZipPath: "OEBPS/notes.html", Fragment: "n1"},
			wantOK: true,
		},
		{name: "current chapter without fragment", url: base + "OEBPS/text/ch1.xhtml"},
		{name: "stylesheet", url: base + "OEBPS/style.css"},
		{name: "foreign host", url: "https://example.com/OEBPS/text/ch2.xhtml"},
		{name: "traversal", url: base + "../ch2.xhtml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ClassifyNavigation(chapter, tt.url)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ClassifyNavigation(%q) = %+v, %v; want %+v, %v", tt.url, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestNavigationKindString(t *testing.T) {
	if NavigationAnchor.String() != "anchor" || NavigationChapter.String() != "chapter" {
		t.Errorf("got %q, %q", NavigationAnchor, NavigationChapter)
	}
	if NavigationKind(0).String() != "unknown" {
		t.Errorf("zero kind = %q", NavigationKind(0))
	}
}

func TestGuessMimeType(t *testing.T) {
	tests := []struct {
		path     string
		mime     string
		encoding string
	}{
		{"a/ch1.xhtml", "text/html", "UTF-8"},
		{"a/ch1.HTM", "text/html", "UTF-8"},
		{"style.css", "text/css", "UTF-8"},
		{"app.js", "application/javascript", ""},
		{"toc.ncx", "application/xml", "UTF-8"},
		{"figure.svg", "image/svg+xml", "UTF-8"},
		{"cover.JPEG", "image/jpeg", ""},
		{"font.woff2", "font/woff2", ""},
		{"data.bin", "application/octet-stream", ""},
		{"noext", "application/octet-stream", ""},
	}
	for _, tt := range tests {
		mime := guessMimeType(tt.path)
		if mime != tt.mime {
			t.Errorf("guessMimeType(%q) = %q; want %q", tt.path, mime, tt.mime)
		}
		if enc := textEncodingForMimeType(mime); enc != tt.encoding {
			t.Errorf("textEncodingForMimeType(%q) = %q; want %q", mime, enc, tt.encoding)
		}
	}
}

func TestLoadResource(t *testing.T) {
	files := map[string]string{
		"OEBPS/text/ch1.xhtml":    chapterXHTML("One", ""),
		"OEBPS/text/style.css":    "p { margin: 0 }",
		"OEBPS/images/figure.png": "png-bytes",
	}
	data := buildTestZip(t, files)
	const chapter = "OEBPS/text/ch1.xhtml"
	base := "https://" + ReaderHost + "/OEBPS/text/"

	res, ok := LoadResource(data, chapter, base+"style.css")
	if !ok {
		t.Fatal("stylesheet not served")
	}
	if res.ZipPath != "OEBPS/text/style.css" || res.MimeType != "text/css" || res.Encoding != "UTF-8" {
		t.Errorf("resource = %q %q %q", res.ZipPath, res.MimeType, res.Encoding)
	}
	if string(res.Data) != files["OEBPS/text/style.css"] {
		t.Errorf("data = %q", res.Data)
	}

	res, ok = LoadResource(data, chapter, base+"../IMAGES/FIGURE.png")
	if !ok || res.MimeType != "image/png" || res.Encoding != "" {
		t.Errorf("case-insensitive image lookup = %+v, %v", res, ok)
	}

	for _, u := range []string{
		base + "missing.css",
		base + "../../../etc/passwd",
		"https://example.com/OEBPS/text/style.css",
	} {
		if _, ok := LoadResource(data, chapter, u); ok {
			t.Errorf("LoadResource(%q) served a resource", u)
		}
	}
	if _, ok := LoadResource([]byte("not a zip"), chapter, base+"style.css"); ok {
		t.Error("invalid archive served a resource")
	}
}

func TestLoadResourceFile(t *testing.T) {
	fp := buildTestEPubFile(t, map[string]string{"OEBPS/a.css": "a{}"})
	res, ok := LoadResourceFile(fp, "OEBPS/ch.xhtml", "https://"+ReaderHost+"/OEBPS/a.css")
	if !ok || string(res.Data) != "a{}" {
		t.Errorf("LoadResourceFile = %+v, %v", res, ok)
	}
}
