package reader

import (
	"testing"

	epub "github.com/simp-lee/epubnav"
)

func TestSelectTOCHref(t *testing.T) {
	entries := []epub.TocEntry{
		{Label: "Preface", Href: "OEBPS/pre.xhtml#top", Depth: 0},
		{Label: "Chapter 1", Href: "OEBPS/ch1.xhtml", Depth: 0},
		{Label: "Intro", Href: "OEBPS/ch1.xhtml#intro", Depth: 1},
		{Label: "Section 1.2", Href: "OEBPS/ch1.xhtml#section-1-2", Depth: 1},
		{Label: "Section 1.2 notes", Href: "OEBPS/ch1.xhtml#Section-1-2-Notes", Depth: 2},
		{Label: "Chapter 2", Href: "OEBPS/ch2.xhtml", Depth: 0},
		{Label: "Untargeted", Href: "", Depth: 0},
	}

	tests := []struct {
		name    string
		chapter string
		anchor  string
		want    string
		wantOK  bool
	}{
		{"exact fragment", "OEBPS/ch1.xhtml", "intro", "OEBPS/ch1.xhtml#intro", true},
		{"exact fragment ignoring case", "OEBPS/ch1.xhtml", "INTRO", "OEBPS/ch1.xhtml#intro", true},
		{"exact beats loose", "OEBPS/ch1.xhtml", "section-1-2", "OEBPS/ch1.xhtml#section-1-2", true},
		{"loose match takes the last", "OEBPS/ch1.xhtml", "Section_1_2", "OEBPS/ch1.xhtml#Section-1-2-Notes", true},
		{"anchor inside TOC fragment", "OEBPS/ch1.xhtml", "notes", "OEBPS/ch1.xhtml#Section-1-2-Notes", true},
		{"unknown anchor falls back to chapter", "OEBPS/ch1.xhtml", "random-inline-span-id", "OEBPS/ch1.xhtml", true},
		{"punctuation-only anchor", "OEBPS/ch1.xhtml", "--", "OEBPS/ch1.xhtml", true},
		{"no anchor", "OEBPS/ch1.xhtml", "", "OEBPS/ch1.xhtml", true},
		{"only fragment entries", "OEBPS/pre.xhtml", "", "OEBPS/pre.xhtml#top", true},
		{"chapter not in TOC", "OEBPS/ch9.xhtml", "intro", "", false},
		{"blank chapter", " ", "intro", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectTOCHref(entries, tt.chapter, tt.anchor)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("SelectTOCHref(%q, %q) = %q, %v; want %q, %v",
					tt.chapter, tt.anchor, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestSelectTOCHref_QueryIgnored(t *testing.T) {
	entries := []epub.TocEntry{{Label: "One", Href: "OEBPS/ch1.xhtml?x=1#a%20b"}}
	got, ok := SelectTOCHref(entries, "OEBPS/ch1.xhtml", "a b")
	if !ok || got != "OEBPS/ch1.xhtml?x=1#a%20b" {
		t.Errorf("SelectTOCHref = %q, %v", got, ok)
	}
}

func TestNormalizeFragment(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Section_1-2", "section12"},
		{"caf%C3%A9", "café"},
		{"  ", ""},
		{"%zz", "zz"},
	}
	for _, tt := range tests {
		if got := normalizeFragment(tt.in); got != tt.want {
			t.Errorf("normalizeFragment(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}
