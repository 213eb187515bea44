package epub

import (
	"strconv"
	"strings"
)

// EncodeTOC serializes entries as newline-separated "depth\tlabel\thref"
// records, with backslash, tab, CR and LF escaped in label and href.
// It reports false for an empty list so callers can tell "no TOC" apart from
// a TOC that was stored empty.
func EncodeTOC(entries []TocEntry) (string, bool) {
	if len(entries) == 0 {
		return "", false
	}
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strconv.Itoa(e.Depth))
		b.WriteByte('\t')
		writeTOCEscaped(&b, e.Label)
		b.WriteByte('\t')
		writeTOCEscaped(&b, e.Href)
	}
	return b.String(), true
}

// DecodeTOC parses the output of EncodeTOC. Records with fewer than three
// fields or a blank label are dropped; an unparsable depth becomes 0.
func DecodeTOC(serialized string) []TocEntry {
	if strings.TrimSpace(serialized) == "" {
		return []TocEntry{}
	}
	lines := strings.FieldsFunc(serialized, func(r rune) bool { return r == '\n' || r == '\r' })

	entries := make([]TocEntry, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := splitEscapedTabs(line)
		if len(parts) < 3 {
			continue
		}
		depth, err := strconv.Atoi(parts[0])
		if err != nil {
			depth = 0
		}
		label := unescapeTOC(parts[1])
		if strings.TrimSpace(label) == "" {
			continue
		}
		href := unescapeTOC(parts[2])
		if strings.TrimSpace(href) == "" {
			href = ""
		}
		entries = append(entries, TocEntry{Label: label, Href: href, Depth: depth})
	}
	return entries
}

func writeTOCEscaped(b *strings.Builder, s string) {
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			b.WriteString(`\\`)
		case '\t':
			b.WriteString(`\t`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteByte(c)
		}
	}
}

// unescapeTOC reverses writeTOCEscaped. Unknown escapes are kept verbatim.
func unescapeTOC(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch next := s[i]; next {
		case '\\':
			b.WriteByte('\\')
		case 't':
			b.WriteByte('\t')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		default:
			b.WriteByte('\\')
			b.WriteByte(next)
		}
	}
	return b.String()
}

// splitEscapedTabs splits line on tabs that are not part of an escape pair.
// Escapes are left in place for unescapeTOC.
func splitEscapedTabs(line string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '\\':
			i++
		case '\t':
			parts = append(parts, line[start:i])
			start = i + 1
		}
	}
	return append(parts, line[start:])
}

// TocPreviewLine is one row of a short table-of-contents preview.
type TocPreviewLine struct {
	Label string
	Depth int
}

// PreviewTOC decodes a serialized TOC and returns at most maxLines rows with
// negative depths clamped to 0.
func PreviewTOC(serialized string, maxLines int) []TocPreviewLine {
	if maxLines <= 0 {
		return nil
	}
	entries := DecodeTOC(serialized)
	if len(entries) > maxLines {
		entries = entries[:maxLines]
	}
	lines := make([]TocPreviewLine, len(entries))
	for i, e := range entries {
		lines[i] = TocPreviewLine{Label: e.Label, Depth: max(e.Depth, 0)}
	}
	return lines
}

// NavigationTarget is a TOC href split into the chapter to open and the
// fragment to jump to. Either part may be "".
type NavigationTarget struct {
	ChapterZipPath string
	Fragment       string
}

// SplitTOCHref splits a TOC href at '#'. Any query string is dropped from
// both parts. It reports false when both parts are blank.
func SplitTOCHref(href string) (NavigationTarget, bool) {
	if strings.TrimSpace(href) == "" {
		return NavigationTarget{}, false
	}
	rawPath, rawFragment, _ := strings.Cut(href, "#")
	t := NavigationTarget{
		ChapterZipPath: strings.TrimSpace(beforeQuery(rawPath)),
		Fragment:       strings.TrimSpace(beforeQuery(rawFragment)),
	}
	if t.ChapterZipPath == "" && t.Fragment == "" {
		return NavigationTarget{}, false
	}
	return t, true
}

func beforeQuery(s string) string {
	before, _, _ := strings.Cut(s, "?")
	return before
}
