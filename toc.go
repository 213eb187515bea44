package epub

import (
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
)

// resolveTOC builds the table of contents: the ePub 3 nav document first,
// then the NCX file, then an empty list. Read and parse problems are
// returned as warnings, never as errors.
func resolveTOC(a *archive, pkg *packageDocument) ([]TocEntry, []string) {
	var warnings []string

	if navItem, ok := pkg.firstItem(func(m ManifestItem) bool { return m.HasProperty("nav") }); ok {
		if navPath, ok := pkg.resolve(navItem.Href); ok {
			entries, err := loadNavTOC(a, navPath)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("nav document %s: %v", navPath, err))
			} else if len(entries) > 0 {
				return entries, warnings
			}
		}
	}

	ncxItem, ok := pkg.byID[pkg.spineToc]
	if !ok {
		ncxItem, ok = pkg.firstItem(func(m ManifestItem) bool {
			return strings.EqualFold(m.MediaType, ncxMediaType)
		})
	}
	if ok {
		if ncxPath, ok := pkg.resolve(ncxItem.Href); ok {
			entries, err := loadNCXTOC(a, ncxPath)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("NCX file %s: %v", ncxPath, err))
			} else if len(entries) > 0 {
				return entries, warnings
			}
		}
	}

	return []TocEntry{}, warnings
}

func loadNavTOC(a *archive, navPath string) ([]TocEntry, error) {
	data, err := a.read(navPath)
	if err != nil {
		return nil, err
	}
	return parseNavDocument(data, navPath)
}

func loadNCXTOC(a *archive, ncxPath string) ([]TocEntry, error) {
	data, err := a.read(ncxPath)
	if err != nil {
		return nil, err
	}
	return parseNCX(data, ncxPath)
}

// --- Nav Document parsing (ePub 3) ---

// parseNavDocument parses an ePub 3 nav document. basePath is the
// ZIP-internal path of the nav document; hrefs are resolved against it.
func parseNavDocument(data []byte, basePath string) ([]TocEntry, error) {
	doc, err := parseXML(data)
	if err != nil {
		return nil, err
	}

	nav := findTocNav(doc)
	if nav == nil {
		return nil, nil
	}

	var entries []TocEntry
	for _, list := range childElements(nav) {
		if isListElement(list) {
			entries = collectNavList(list, basePath, 0, entries)
		}
	}
	if len(entries) > 0 {
		return entries, nil
	}

	// Not list-based: take every anchor under the nav element at depth 0.
	for _, anchor := range collectElements(nav, func(n *xmlquery.Node) bool { return matchesLocalName(n, "a") }) {
		if e, ok := navEntry(anchor, basePath, 0); ok {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// findTocNav returns the first nav element typed "toc" (epub:type or type),
// else the first nav element.
func findTocNav(doc *xmlquery.Node) *xmlquery.Node {
	navs := elementsByLocalName(doc, "nav")
	for _, nav := range navs {
		if hasToken(attr(nav, "epub:type"), "toc") || hasToken(attr(nav, "type"), "toc") {
			return nav
		}
	}
	if len(navs) > 0 {
		return navs[0]
	}
	return nil
}

// collectNavList appends one entry per <li> of list, recursing into lists
// nested directly inside each item at depth+1.
func collectNavList(list *xmlquery.Node, basePath string, depth int, out []TocEntry) []TocEntry {
	for _, li := range childElements(list) {
		if !matchesLocalName(li, "li") {
			continue
		}
		if anchor := firstAnchor(li); anchor != nil {
			if e, ok := navEntry(anchor, basePath, depth); ok {
				out = append(out, e)
			}
		}
		for _, nested := range childElements(li) {
			if isListElement(nested) {
				out = collectNavList(nested, basePath, depth+1, out)
			}
		}
	}
	return out
}

// firstAnchor performs a depth-first search below n for an <a> element,
// without descending into nested lists.
func firstAnchor(n *xmlquery.Node) *xmlquery.Node {
	for _, c := range childElements(n) {
		if matchesLocalName(c, "a") {
			return c
		}
		if isListElement(c) {
			continue
		}
		if found := firstAnchor(c); found != nil {
			return found
		}
	}
	return nil
}

func navEntry(anchor *xmlquery.Node, basePath string, depth int) (TocEntry, bool) {
	label := strings.TrimSpace(anchor.InnerText())
	if label == "" {
		return TocEntry{}, false
	}
	e := TocEntry{Label: label, Depth: depth}
	if href := strings.TrimSpace(attr(anchor, "href")); href != "" {
		if resolved, ok := ResolveZipPath(basePath, href); ok {
			e.Href = resolved
		}
	}
	return e, true
}

func isListElement(n *xmlquery.Node) bool {
	return matchesLocalName(n, "ol") || matchesLocalName(n, "ul")
}

// --- NCX parsing (ePub 2) ---

// parseNCX parses NCX data. ncxPath is the ZIP-internal path of the NCX file;
// content src values are resolved against it.
func parseNCX(data []byte, ncxPath string) ([]TocEntry, error) {
	doc, err := parseXML(data)
	if err != nil {
		return nil, err
	}

	navMap := firstElementByLocalName(doc, "navMap")
	if navMap == nil {
		return nil, nil
	}

	var entries []TocEntry
	for _, np := range childElements(navMap) {
		if matchesLocalName(np, "navPoint") {
			entries = collectNavPoint(np, ncxPath, 0, entries)
		}
	}
	return entries, nil
}

// collectNavPoint appends np and, recursively, its child navPoints.
func collectNavPoint(np *xmlquery.Node, ncxPath string, depth int, out []TocEntry) []TocEntry {
	label := ""
	if text := firstOwnDescendant(np, "text"); text != nil {
		label = strings.TrimSpace(text.InnerText())
	}
	if label != "" {
		e := TocEntry{Label: label, Depth: depth}
		if content := firstOwnDescendant(np, "content"); content != nil {
			if src := strings.TrimSpace(attr(content, "src")); src != "" {
				if resolved, ok := ResolveZipPath(ncxPath, src); ok {
					e.Href = resolved
				}
			}
		}
		out = append(out, e)
	}

	for _, child := range childElements(np) {
		if matchesLocalName(child, "navPoint") {
			out = collectNavPoint(child, ncxPath, depth+1, out)
		}
	}
	return out
}

// firstOwnDescendant finds the first element named name below np that does
// not belong to a nested navPoint.
func firstOwnDescendant(np *xmlquery.Node, name string) *xmlquery.Node {
	for _, c := range childElements(np) {
		if matchesLocalName(c, "navPoint") {
			continue
		}
		if matchesLocalName(c, name) {
			return c
		}
		if found := firstOwnDescendant(c, name); found != nil {
			return found
		}
	}
	return nil
}
