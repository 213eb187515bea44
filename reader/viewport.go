package reader

import (
	"strconv"
	"strings"
	"unicode/utf16"
)

// ViewportMetrics is one telemetry snapshot reported by the renderer.
type ViewportMetrics struct {
	PageIndex  *int
	PageCount  *int
	ScrollX    *int
	ScrollY    *int
	MaxScrollX *int
	MaxScrollY *int

	// AnchorFragment is the nearest in-document anchor; TocAnchorFragment is
	// the nearest anchor that a table-of-contents entry points at (v4 only).
	AnchorFragment    string
	TocAnchorFragment string
	VisibleTextHint   string
}

// viewportFieldCounts is the number of pipe-separated fields per version.
var viewportFieldCounts = map[string]int{
	"v1": 6,
	"v2": 8,
	"v3": 9,
	"v4": 10,
}

// DecodeViewportMetrics parses the raw result of a renderer script: a quoted
// string literal wrapping "vN|..." fields. The literal null, blank input, an
// unknown version and short payloads are all absent.
func DecodeViewportMetrics(raw string) (ViewportMetrics, bool) {
	payload, ok := decodeStringLiteral(raw)
	if !ok {
		return ViewportMetrics{}, false
	}
	version, _, found := strings.Cut(payload, "|")
	if !found {
		return ViewportMetrics{}, false
	}
	n, known := viewportFieldCounts[version]
	if !known {
		return ViewportMetrics{}, false
	}
	parts := strings.SplitN(payload, "|", n)
	if len(parts) < n {
		return ViewportMetrics{}, false
	}

	m := ViewportMetrics{
		PageIndex: parsePositive(parts[1]),
		PageCount: parsePositive(parts[2]),
		ScrollX:   parseNonNegative(parts[3]),
		ScrollY:   parseNonNegative(parts[4]),
	}
	if version == "v1" {
		m.AnchorFragment = decodeViewportText(parts[5])
		return m, true
	}

	m.MaxScrollX = parseNonNegative(parts[5])
	m.MaxScrollY = parseNonNegative(parts[6])
	m.AnchorFragment = decodeViewportText(parts[7])
	switch version {
	case "v3":
		m.VisibleTextHint = decodeViewportText(parts[8])
	case "v4":
		m.TocAnchorFragment = decodeViewportText(parts[8])
		m.VisibleTextHint = decodeViewportText(parts[9])
	}
	return m, true
}

// decodeViewportText percent-decodes and trims a text field; malformed
// escapes make the field absent.
func decodeViewportText(s string) string {
	v, ok := formDecode(s)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}

// Locator builds the position to persist for chapterZipPath from the
// snapshot. The in-document anchor is preferred over the TOC anchor.
func (m ViewportMetrics) Locator(chapterZipPath string, mode PageMode) (PositionLocator, bool) {
	chapter := strings.TrimSpace(chapterZipPath)
	if chapter == "" {
		return PositionLocator{}, false
	}
	anchor := m.AnchorFragment
	if anchor == "" {
		anchor = m.TocAnchorFragment
	}
	return PositionLocator{
		ChapterZipPath:  chapter,
		AnchorFragment:  strings.TrimSpace(anchor),
		PageMode:        mode,
		ScrollX:         m.ScrollX,
		ScrollY:         m.ScrollY,
		MaxScrollX:      m.MaxScrollX,
		MaxScrollY:      m.MaxScrollY,
		PageIndex:       m.PageIndex,
		PageCount:       m.PageCount,
		VisibleTextHint: strings.TrimSpace(m.VisibleTextHint),
	}, true
}

// decodeStringLiteral unquotes a double-quoted script string. Unknown escapes
// yield the escaped character itself; a dangling backslash or a bad \u
// sequence fails.
func decodeStringLiteral(raw string) (string, bool) {
	v := strings.TrimSpace(raw)
	if v == "" || v == "null" {
		return "", false
	}
	if len(v) < 2 || v[0] != '"' || v[len(v)-1] != '"' {
		return "", false
	}
	body := v[1 : len(v)-1]

	var b strings.Builder
	b.Grow(len(body))
	var pending []uint16 // UTF-16 units from consecutive \u escapes
	flush := func() {
		if len(pending) > 0 {
			b.WriteString(string(utf16.Decode(pending)))
			pending = pending[:0]
		}
	}

	for i := 0; i < len(body); {
		c := body[i]
		if c != '\\' {
			flush()
			b.WriteByte(c)
			i++
			continue
		}
		if i+1 >= len(body) {
			return "", false
		}
		next := body[i+1]
		if next == 'u' {
			if i+6 > len(body) {
				return "", false
			}
			unit, err := strconv.ParseUint(body[i+2:i+6], 16, 16)
			if err != nil {
				return "", false
			}
			pending = append(pending, uint16(unit))
			i += 6
			continue
		}

		flush()
		switch next {
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		default: // \\ \" \/ and unknown escapes
			b.WriteByte(next)
		}
		i += 2
	}
	flush()
	return b.String(), true
}
