package reader

import (
	"net/url"
	"strings"
)

const upperHex = "0123456789ABCDEF"

// formEncode applies application/x-www-form-urlencoded escaping as the
// persisted locators were written: letters, digits and ".-*_" pass through,
// space becomes '+', every other UTF-8 byte becomes %XX.
func formEncode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9',
			c == '.', c == '-', c == '*', c == '_':
			b.WriteByte(c)
		case c == ' ':
			b.WriteByte('+')
		default:
			b.WriteByte('%')
			b.WriteByte(upperHex[c>>4])
			b.WriteByte(upperHex[c&0x0F])
		}
	}
	return b.String()
}

// formDecode reverses formEncode. It reports false on a malformed escape.
func formDecode(s string) (string, bool) {
	v, err := url.QueryUnescape(s)
	if err != nil {
		return "", false
	}
	return v, true
}

// encodeOptional encodes a free-text field; blank values are written empty.
func encodeOptional(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return formEncode(s)
}

// decodeOptional decodes a free-text field. Blank and malformed fields are "".
func decodeOptional(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	v, ok := formDecode(s)
	if !ok {
		return ""
	}
	return v
}

// decodeTrimmed is decodeOptional with surrounding whitespace removed.
func decodeTrimmed(s string) string {
	return strings.TrimSpace(decodeOptional(s))
}
