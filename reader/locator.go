// Package reader holds the reading-position state exchanged with a renderer:
// the persisted position locator, live viewport telemetry, the table of
// contents entry that matches the current position, and restore planning.
//
// All functions are pure. Malformed input decodes to "absent" (a false ok
// result) and never to an error, so a damaged saved position cannot prevent a
// book from opening.
package reader

import (
	"math"
	"strconv"
	"strings"
)

// PageMode is the layout a position was recorded in.
type PageMode int

const (
	PageModeUnset PageMode = iota
	PageModeScroll
	PageModePaginated
)

// String returns the persisted name of m, "" for PageModeUnset.
func (m PageMode) String() string {
	switch m {
	case PageModeScroll:
		return "SCROLL"
	case PageModePaginated:
		return "PAGINATED"
	default:
		return ""
	}
}

// ParsePageMode matches s case-insensitively against the persisted names.
func ParsePageMode(s string) (PageMode, bool) {
	switch s = strings.TrimSpace(s); {
	case strings.EqualFold(s, "SCROLL"):
		return PageModeScroll, true
	case strings.EqualFold(s, "PAGINATED"):
		return PageModePaginated, true
	}
	return PageModeUnset, false
}

// PositionLocator is a resumable reading position. Empty strings, nil
// pointers and PageModeUnset mean "not recorded". Scroll and page values are
// never negative once decoded.
type PositionLocator struct {
	ChapterZipPath  string
	AnchorFragment  string
	PageMode        PageMode
	ScrollX         *int
	ScrollY         *int
	MaxScrollX      *int
	MaxScrollY      *int
	PageIndex       *int // 1-based
	PageCount       *int
	VisibleTextHint string
}

const (
	locatorV1Fields = 10
	locatorV2Fields = 11
)

// Encode serializes l in the current (v2) format.
func (l PositionLocator) Encode() string {
	fields := []string{
		"v2",
		encodeOptional(l.ChapterZipPath),
		encodeOptional(l.AnchorFragment),
		l.PageMode.String(),
		formatInt(l.ScrollX),
		formatInt(l.ScrollY),
		formatInt(l.MaxScrollX),
		formatInt(l.MaxScrollY),
		formatInt(l.PageIndex),
		formatInt(l.PageCount),
		encodeOptional(l.VisibleTextHint),
	}
	return strings.Join(fields, "|")
}

// DecodeLocator parses a v1 or v2 locator. It reports false for blank input,
// an unknown version tag or too few fields.
func DecodeLocator(serialized string) (PositionLocator, bool) {
	payload := strings.TrimSpace(serialized)
	if payload == "" {
		return PositionLocator{}, false
	}
	version, _, found := strings.Cut(payload, "|")
	if !found {
		return PositionLocator{}, false
	}

	switch version {
	case "v1":
		parts := strings.SplitN(payload, "|", locatorV1Fields)
		if len(parts) < locatorV1Fields {
			return PositionLocator{}, false
		}
		return decodeLocatorFields(parts), true
	case "v2":
		parts := strings.SplitN(payload, "|", locatorV2Fields)
		if len(parts) < locatorV2Fields {
			return PositionLocator{}, false
		}
		l := decodeLocatorFields(parts)
		l.VisibleTextHint = decodeTrimmed(parts[10])
		return l, true
	}
	return PositionLocator{}, false
}

func decodeLocatorFields(parts []string) PositionLocator {
	l := PositionLocator{
		ChapterZipPath: decodeOptional(parts[1]),
		AnchorFragment: decodeTrimmed(parts[2]),
		ScrollX:        parseNonNegative(parts[4]),
		ScrollY:        parseNonNegative(parts[5]),
		MaxScrollX:     parseNonNegative(parts[6]),
		MaxScrollY:     parseNonNegative(parts[7]),
		PageIndex:      parsePositive(parts[8]),
		PageCount:      parsePositive(parts[9]),
	}
	if mode, ok := ParsePageMode(parts[3]); ok {
		l.PageMode = mode
	}
	return l
}

// ScrollXProgressPermille returns horizontal progress in [0,1000].
func (l PositionLocator) ScrollXProgressPermille() (int, bool) {
	return progressPermille(l.ScrollX, l.MaxScrollX)
}

// ScrollYProgressPermille returns vertical progress in [0,1000].
func (l PositionLocator) ScrollYProgressPermille() (int, bool) {
	return progressPermille(l.ScrollY, l.MaxScrollY)
}

// PageProgressPermille maps page 1..N onto 0..1000. A single page, or the
// first page, is 0.
func (l PositionLocator) PageProgressPermille() (int, bool) {
	if l.PageIndex == nil || l.PageCount == nil {
		return 0, false
	}
	index, count := *l.PageIndex, *l.PageCount
	if count <= 1 || index <= 1 {
		if count >= 1 {
			return 0, true
		}
		return 0, false
	}
	index = min(index, count)
	return clampPermille(math.Round(float64(index-1) / float64(count-1) * 1000)), true
}

func progressPermille(current, maximum *int) (int, bool) {
	if current == nil || maximum == nil {
		return 0, false
	}
	cur, top := max(*current, 0), max(*maximum, 0)
	if top == 0 {
		return 0, true
	}
	return clampPermille(math.Round(float64(cur) / float64(top) * 1000)), true
}

func clampPermille(v float64) int {
	return int(math.Max(0, math.Min(1000, v)))
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func parseInt(s string) (int, bool) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseNonNegative parses s and clamps it to >= 0; nil when unparsable.
func parseNonNegative(s string) *int {
	v, ok := parseInt(s)
	if !ok {
		return nil
	}
	v = max(v, 0)
	return &v
}

// parsePositive parses s and keeps it only when > 0.
func parsePositive(s string) *int {
	v, ok := parseInt(s)
	if !ok || v <= 0 {
		return nil
	}
	return &v
}

// Int returns a pointer to v, for building locators by hand.
func Int(v int) *int { return &v }
