package epub

import (
	"bytes"
	"errors"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// htmlEntities holds the HTML named entities that show up in package and
// navigation documents often enough to matter. The XML parser only knows the
// five built-ins, so these are rewritten to numeric references first.
var htmlEntities = map[string]rune{
	"nbsp": 160, "iexcl": 161, "copy": 169, "laquo": 171, "reg": 174,
	"deg": 176, "para": 182, "middot": 183, "raquo": 187, "iquest": 191,
	"sect": 167, "times": 215, "divide": 247,
	"agrave": 224, "aacute": 225, "acirc": 226, "auml": 228, "ccedil": 231,
	"egrave": 232, "eacute": 233, "ecirc": 234, "euml": 235,
	"igrave": 236, "iacute": 237, "icirc": 238, "iuml": 239, "ntilde": 241,
	"ograve": 242, "oacute": 243, "ocirc": 244, "ouml": 246,
	"ugrave": 249, "uacute": 250, "ucirc": 251, "uuml": 252,
	"ndash": 8211, "mdash": 8212, "lsquo": 8216, "rsquo": 8217,
	"ldquo": 8220, "rdquo": 8221, "bull": 8226, "hellip": 8230, "trade": 8482,
}

var htmlEntityPattern = func() *regexp.Regexp {
	names := make([]string, 0, len(htmlEntities))
	for name := range htmlEntities {
		names = append(names, name)
	}
	sort.Strings(names)
	return regexp.MustCompile(`(?i)&(` + strings.Join(names, "|") + `);`)
}()

// preprocessHTMLEntities rewrites known named entities, in any letter case,
// to numeric character references. Everything else is left alone.
func preprocessHTMLEntities(data []byte) []byte {
	return htmlEntityPattern.ReplaceAllFunc(data, func(m []byte) []byte {
		r, ok := htmlEntities[strings.ToLower(string(m[1:len(m)-1]))]
		if !ok {
			return m
		}
		return []byte("&#" + strconv.Itoa(int(r)) + ";")
	})
}

// lineBreakTags start a new line in extracted text.
var lineBreakTags = map[atom.Atom]bool{
	atom.P: true, atom.Br: true, atom.Div: true, atom.Hr: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Li: true, atom.Tr: true, atom.Blockquote: true,
}

// The tokenizer switches to raw text after <script/> and <style/> as if the
// tag were open, so self-closed forms are expanded to an explicit pair.
var selfClosedRawTag = regexp.MustCompile(`(?is)<(script|style)\b([^>]*)/>`)

// chapterText accumulates visible text one line per block.
type chapterText struct {
	b         strings.Builder
	lineStart bool
	hidden    int // open script or style elements
}

func (c *chapterText) breakLine() {
	if c.hidden == 0 && c.b.Len() > 0 && !c.lineStart {
		c.b.WriteByte('\n')
		c.lineStart = true
	}
}

func (c *chapterText) write(raw []byte) {
	if c.hidden > 0 {
		return
	}
	if s := collapseWhitespace(string(raw)); s != "" {
		c.b.WriteString(s)
		c.lineStart = false
	}
}

// ExtractChapterText returns the visible text of a chapter's markup.
// Block-level elements start a new line; script and style content is dropped.
func ExtractChapterText(markup string) (string, error) {
	src := []byte(markup)
	if selfClosedRawTag.Match(src) {
		src = selfClosedRawTag.ReplaceAll(src, []byte(`<$1$2></$1>`))
	}
	z := html.NewTokenizer(bytes.NewReader(src))
	out := chapterText{lineStart: true}

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return "", err
			}
			return strings.TrimSpace(out.b.String()), nil
		case html.TextToken:
			out.write(z.Text())
		case html.StartTagToken, html.SelfClosingTagToken, html.EndTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			switch {
			case a == atom.Script || a == atom.Style:
				if tt == html.StartTagToken {
					out.hidden++
				} else if tt == html.EndTagToken && out.hidden > 0 {
					out.hidden--
				}
			case tt != html.EndTagToken && lineBreakTags[a]:
				out.breakLine()
			}
		}
	}
}

// collapseWhitespace folds each run of ASCII whitespace into one space. A
// leading or trailing run survives as a single space so adjacent inline
// elements stay separated; all-whitespace input yields "".
func collapseWhitespace(s string) string {
	words := strings.FieldsFunc(s, isASCIISpace)
	if len(words) == 0 {
		return ""
	}
	out := strings.Join(words, " ")
	if isASCIISpace(rune(s[0])) {
		out = " " + out
	}
	if isASCIISpace(rune(s[len(s)-1])) {
		out += " "
	}
	return out
}

func isASCIISpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
