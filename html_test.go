package epub

import (
	"strings"
	"testing"
)

func TestPreprocessHTMLEntities(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "punctuation",
			input: `<title>Hello&nbsp;World &mdash; An&hellip; Introduction</title>`,
			want:  `<title>Hello&#160;World &#8212; An&#8230; Introduction</title>`,
		},
		{
			name:  "quotation marks",
			input: `&ldquo;Hello&rdquo; &lsquo;World&rsquo;`,
			want:  `&#8220;Hello&#8221; &#8216;World&#8217;`,
		},
		{
			name:  "accented letters",
			input: `caf&eacute; na&iuml;ve`,
			want:  `caf&#233; na&#239;ve`,
		},
		{
			name:  "case-insensitive names",
			input: `&NBSP;&Copy;`,
			want:  `&#160;&#169;`,
		},
		{
			name:  "XML built-ins untouched",
			input: `&amp; &lt; &gt; &quot; &apos;`,
			want:  `&amp; &lt; &gt; &quot; &apos;`,
		},
		{
			name:  "unknown entity untouched",
			input: `&frobnicate; &#8212;`,
			want:  `&frobnicate; &#8212;`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(preprocessHTMLEntities([]byte(tt.input))); got != tt.want {
				t.Errorf("preprocessHTMLEntities(%q) = %q; want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExtractChapterText(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{
			name:   "paragraphs",
			markup: `<html><body><p>First paragraph.</p><p>Second paragraph.</p></body></html>`,
			want:   "First paragraph.\nSecond paragraph.",
		},
		{
			name:   "line breaks",
			markup: `<p>Line one<br/>Line two<br>Line three</p>`,
			want:   "Line one\nLine two\nLine three",
		},
		{
			name:   "headings and lists",
			markup: `<h1>Title</h1><div>Block</div><ul><li>Item A</li><li>Item B</li></ul>`,
			want:   "Title\nBlock\nItem A\nItem B",
		},
		{
			name:   "inline elements keep spacing",
			markup: `<p>This is <b>bold</b> and <i>italic</i> text.</p>`,
			want:   "This is bold and italic text.",
		},
		{
			name:   "self-closing script and style",
			markup: `<p>Before</p><script/><style/><p>After</p>`,
			want:   "Before\nAfter",
		},
		{
			name:   "whitespace collapsed",
			markup: "<p>  spread \n\t out  </p>",
			want:   "spread out",
		},
		{
			name:   "empty",
			markup: "",
			want:   "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractChapterText(tt.markup)
			if err != nil {
				t.Fatalf("ExtractChapterText() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ExtractChapterText():\n got: %q\nwant: %q", got, tt.want)
			}
		})
	}
}

func TestExtractChapterText_SkipsScriptAndStyle(t *testing.T) {
	markup := chapterXHTML("Skip", `<style>body { color: red; }</style>
<p>Visible text</p>
<script>alert("hidden");</script>
<p>Also visible</p>`)
	got, err := ExtractChapterText(markup)
	if err != nil {
		t.Fatalf("ExtractChapterText() error: %v", err)
	}
	if strings.Contains(got, "alert") || strings.Contains(got, "color") {
		t.Errorf("script and style content should be skipped, got: %q", got)
	}
	if !strings.Contains(got, "Visible text") || !strings.Contains(got, "Also visible") {
		t.Errorf("visible text should be present, got: %q", got)
	}
}

func TestCollapseWhitespace(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"a  b", "a b"},
		{" lead", " lead"},
		{"trail\n", "trail "},
		{" \t\n ", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := collapseWhitespace(tt.in); got != tt.want {
			t.Errorf("collapseWhitespace(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}
