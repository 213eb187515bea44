package reader

import (
	"net/url"
	"strings"
	"unicode"

	epub "github.com/simp-lee/epubnav"
)

type chapterTarget struct {
	href     string
	fragment string
}

// SelectTOCHref returns the href of the table-of-contents entry that best
// matches the current chapter and anchor. It reports false when no entry
// targets the chapter.
//
// Without an anchor the chapter-level entry (no fragment) wins, else the
// first entry for the chapter. With an anchor an exact case-insensitive
// fragment match wins; otherwise fragments are compared loosely and the last
// match in document order is taken.
func SelectTOCHref(entries []epub.TocEntry, chapterZipPath, anchorFragment string) (string, bool) {
	chapter := strings.TrimSpace(chapterZipPath)
	if chapter == "" {
		return "", false
	}

	var targets []chapterTarget
	for _, e := range entries {
		t, ok := epub.SplitTOCHref(e.Href)
		if !ok || t.ChapterZipPath != chapter {
			continue
		}
		targets = append(targets, chapterTarget{href: e.Href, fragment: t.Fragment})
	}
	if len(targets) == 0 {
		return "", false
	}

	anchor := strings.TrimSpace(anchorFragment)
	if anchor == "" {
		return chapterLevel(targets), true
	}

	for _, t := range targets {
		if strings.EqualFold(t.fragment, anchor) {
			return t.href, true
		}
	}

	if want := normalizeFragment(anchor); want != "" {
		for i := len(targets) - 1; i >= 0; i-- {
			got := normalizeFragment(targets[i].fragment)
			if got != "" && (strings.Contains(got, want) || strings.Contains(want, got)) {
				return targets[i].href, true
			}
		}
	}
	return chapterLevel(targets), true
}

// chapterLevel returns the first target without a fragment, else the first.
func chapterLevel(targets []chapterTarget) string {
	for _, t := range targets {
		if strings.TrimSpace(t.fragment) == "" {
			return t.href
		}
	}
	return targets[0].href
}

// normalizeFragment percent-decodes, lowercases and keeps only letters and
// digits.
func normalizeFragment(fragment string) string {
	raw := strings.TrimSpace(fragment)
	if raw == "" {
		return ""
	}
	if decoded, err := url.QueryUnescape(raw); err == nil {
		raw = decoded
	}
	var b strings.Builder
	for _, r := range strings.ToLower(raw) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
