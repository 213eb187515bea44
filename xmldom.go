package epub

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/net/html/charset"
)

// errDoctype is returned for any XML input that carries a DOCTYPE declaration.
var errDoctype = errors.New("epub: DOCTYPE declarations are not allowed")

// parseXML parses an untrusted XML document from the archive.
//
// DOCTYPE declarations are rejected outright and no entity beyond the XML
// built-ins is expanded; the common HTML named entities are rewritten to
// numeric references first. The decoder is non-strict so that documents using
// undeclared namespace prefixes (e.g. "dc:" without xmlns:dc) still parse.
func parseXML(data []byte) (*xmlquery.Node, error) {
	data = stripBOM(data)
	if err := rejectDoctype(data); err != nil {
		return nil, err
	}
	data = preprocessHTMLEntities(data)

	doc, err := xmlquery.ParseWithOptions(bytes.NewReader(data), xmlquery.ParserOptions{
		Decoder: &xmlquery.DecoderOptions{
			Strict:        false,
			Entity:        map[string]string{},
			CharsetReader: charset.NewReaderLabel,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("epub: parse xml: %w", err)
	}
	if rootElement(doc) == nil {
		return nil, errors.New("epub: parse xml: no root element")
	}
	return doc, nil
}

// rejectDoctype scans the prolog and fails if a DOCTYPE directive is present
// or the prolog cannot be read. Scanning stops at the root element since a
// DOCTYPE cannot follow it.
func rejectDoctype(data []byte) error {
	d := xml.NewDecoder(bytes.NewReader(data))
	d.Strict = false
	d.CharsetReader = charset.NewReaderLabel
	for {
		tok, err := d.RawToken()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("epub: parse xml prolog: %w", err)
		}
		switch t := tok.(type) {
		case xml.Directive:
			if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(string(t))), "DOCTYPE") {
				return errDoctype
			}
		case xml.StartElement:
			return nil
		}
	}
}

// rootElement returns the first element child of a document node.
func rootElement(doc *xmlquery.Node) *xmlquery.Node {
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			return c
		}
	}
	return nil
}

// qualifiedName returns the element name as written, with its prefix.
func qualifiedName(n *xmlquery.Node) string {
	if n.Prefix != "" {
		return n.Prefix + ":" + n.Data
	}
	return n.Data
}

// localName returns the element's local name. When the parser left a prefix
// inside the name it is stripped.
func localName(n *xmlquery.Node) string {
	if i := strings.LastIndexByte(n.Data, ':'); i >= 0 {
		return n.Data[i+1:]
	}
	return n.Data
}

// matchesLocalName reports whether n is an element whose local name equals
// name, ignoring case.
func matchesLocalName(n *xmlquery.Node, name string) bool {
	return n != nil && n.Type == xmlquery.ElementNode && strings.EqualFold(localName(n), name)
}

// elementsByLocalName finds elements by logical name in three stages, taking
// the first stage that yields anything:
//  1. namespace-aware: XPath local-name() match in any namespace;
//  2. plain tag name: the qualified name equals name exactly;
//  3. prefix-suffix scan: the qualified name ends in ":name".
func elementsByLocalName(top *xmlquery.Node, name string) []*xmlquery.Node {
	if nodes := elementsByXPathLocalName(top, name); len(nodes) > 0 {
		return nodes
	}
	if nodes := collectElements(top, func(n *xmlquery.Node) bool {
		return qualifiedName(n) == name
	}); len(nodes) > 0 {
		return nodes
	}
	suffix := ":" + name
	return collectElements(top, func(n *xmlquery.Node) bool {
		return strings.HasSuffix(qualifiedName(n), suffix)
	})
}

// firstElementByLocalName returns the first element found by
// elementsByLocalName, or nil.
func firstElementByLocalName(top *xmlquery.Node, name string) *xmlquery.Node {
	if nodes := elementsByLocalName(top, name); len(nodes) > 0 {
		return nodes[0]
	}
	return nil
}

// textValuesByLocalName returns the trimmed, non-blank text content of every
// element found by elementsByLocalName.
func textValuesByLocalName(top *xmlquery.Node, name string) []string {
	var out []string
	for _, n := range elementsByLocalName(top, name) {
		if v := strings.TrimSpace(n.InnerText()); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func elementsByXPathLocalName(top *xmlquery.Node, name string) []*xmlquery.Node {
	if strings.ContainsAny(name, `'"`) {
		return nil
	}
	expr, err := xpath.Compile(fmt.Sprintf("descendant::*[local-name()='%s']", name))
	if err != nil {
		return nil
	}
	return xmlquery.QuerySelectorAll(top, expr)
}

// collectElements walks the subtree below top in document order.
func collectElements(top *xmlquery.Node, match func(*xmlquery.Node) bool) []*xmlquery.Node {
	var out []*xmlquery.Node
	var walk func(*xmlquery.Node)
	walk = func(n *xmlquery.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == xmlquery.ElementNode {
				if match(c) {
					out = append(out, c)
				}
				walk(c)
			}
		}
	}
	walk(top)
	return out
}

// childElements returns the direct element children of n.
func childElements(n *xmlquery.Node) []*xmlquery.Node {
	var out []*xmlquery.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// attr returns the value of the attribute named key on n. A prefixed key such
// as "epub:type" matches the attribute's prefix or, for undeclared prefixes,
// the raw qualified name.
func attr(n *xmlquery.Node, key string) string {
	prefix, local := "", key
	if i := strings.IndexByte(key, ':'); i >= 0 {
		prefix, local = key[:i], key[i+1:]
	}
	for _, a := range n.Attr {
		if a.Name.Local != local {
			continue
		}
		if a.Name.Space == prefix {
			return a.Value
		}
	}
	return ""
}

// hasToken reports whether the whitespace-separated token set s contains tok.
func hasToken(s, tok string) bool {
	for _, f := range strings.Fields(s) {
		if f == tok {
			return true
		}
	}
	return false
}
