package reader

import (
	"math"
	"strings"
	"unicode"

	epub "github.com/simp-lee/epubnav"
)

// minTextHintLength is the shortest normalized snippet worth searching for;
// shorter hints match too many places.
const minTextHintLength = 12

// TextHintProgressPermille finds a recorded visible-text snippet in the
// chapter markup and returns where it starts as a fraction of the chapter
// text in [0,1000]. Comparison ignores case and collapses whitespace.
func TextHintProgressPermille(markup, hint string) (int, bool) {
	want := normalizeText(hint)
	if len([]rune(want)) < minTextHintLength {
		return 0, false
	}
	text, err := epub.ExtractChapterText(markup)
	if err != nil {
		return 0, false
	}
	haystack := normalizeText(text)
	idx := strings.Index(haystack, want)
	if idx < 0 {
		return 0, false
	}
	total := len([]rune(haystack))
	offset := len([]rune(haystack[:idx]))
	return clampPermille(math.Round(float64(offset) / float64(total) * 1000)), true
}

func normalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " "))
}

// RestoreKind names the signal a restore plan is based on.
type RestoreKind int

const (
	RestoreNone RestoreKind = iota
	RestoreTextHint
	RestoreProgress
	RestoreAnchor
)

func (k RestoreKind) String() string {
	switch k {
	case RestoreTextHint:
		return "text-hint"
	case RestoreProgress:
		return "progress"
	case RestoreAnchor:
		return "anchor"
	default:
		return "none"
	}
}

// RestorePlan tells a renderer how to bring a saved position back after the
// layout may have changed.
type RestorePlan struct {
	Kind RestoreKind

	// XPermille and YPermille are proportional scroll targets. For a text
	// hint match YPermille is the hint's position in the chapter text.
	XPermille *int
	YPermille *int

	// Anchor is the fragment to jump to when nothing proportional is known.
	Anchor string

	// TextHint is the snippet the renderer should bring into view.
	TextHint string
}

// RestoreTarget plans how to restore l inside markup. Preference order: a
// text hint found in the chapter, vertical then horizontal scroll progress
// (page progress in paginated mode), and finally the anchor fragment.
func RestoreTarget(l PositionLocator, markup string) RestorePlan {
	plan := RestorePlan{Anchor: l.AnchorFragment}

	if y, ok := l.ScrollYProgressPermille(); ok {
		plan.YPermille = Int(y)
	}
	if l.PageMode == PageModePaginated {
		if x, ok := l.PageProgressPermille(); ok {
			plan.XPermille = Int(x)
		}
	}
	if plan.XPermille == nil {
		if x, ok := l.ScrollXProgressPermille(); ok {
			plan.XPermille = Int(x)
		}
	}

	if l.VisibleTextHint != "" {
		if p, ok := TextHintProgressPermille(markup, l.VisibleTextHint); ok {
			plan.Kind = RestoreTextHint
			plan.TextHint = l.VisibleTextHint
			plan.YPermille = Int(p)
			return plan
		}
	}
	switch {
	case plan.YPermille != nil || plan.XPermille != nil:
		plan.Kind = RestoreProgress
	case plan.Anchor != "":
		plan.Kind = RestoreAnchor
	}
	return plan
}
