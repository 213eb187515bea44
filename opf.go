package epub

import (
	"strings"

	"github.com/antchfx/xmlquery"
)

// ncxMediaType is the media type of an ePub 2 navigation-control file.
const ncxMediaType = "application/x-dtbncx+xml"

// packageDocument is the parsed OPF file.
type packageDocument struct {
	path     string
	doc      *xmlquery.Node
	version  string
	items    []ManifestItem // document order
	byID     map[string]ManifestItem
	spine    []string // itemref idrefs
	spineToc string   // spine toc attribute
}

// loadPackage resolves the package path and parses the package document.
func loadPackage(op string, a *archive, checkMimetype bool) (*packageDocument, error) {
	pkgPath, err := resolvePackagePath(op, a, checkMimetype)
	if err != nil {
		return nil, err
	}

	f := a.find(pkgPath)
	if f == nil {
		e := newError(op, ReasonMissingPackageDocument, nil)
		e.Detail = pkgPath
		return nil, e
	}
	data, err := readZipFile(f)
	if err != nil {
		return nil, newError(op, ReasonInvalidPackageDocumentXML, err)
	}

	pkg, err := parsePackageDocument(pkgPath, data)
	if err != nil {
		return nil, newError(op, ReasonInvalidPackageDocumentXML, err)
	}
	return pkg, nil
}

// parsePackageDocument parses the OPF content at pkgPath.
func parsePackageDocument(pkgPath string, data []byte) (*packageDocument, error) {
	doc, err := parseXML(data)
	if err != nil {
		return nil, err
	}

	pkg := &packageDocument{
		path:  pkgPath,
		doc:   doc,
		items: parseManifestItems(doc),
	}
	if root := firstElementByLocalName(doc, "package"); root != nil {
		pkg.version = strings.TrimSpace(attr(root, "version"))
	}

	pkg.byID = make(map[string]ManifestItem, len(pkg.items))
	for _, item := range pkg.items {
		if _, exists := pkg.byID[item.ID]; !exists {
			pkg.byID[item.ID] = item
		}
	}

	if spine := firstElementByLocalName(doc, "spine"); spine != nil {
		pkg.spineToc = strings.TrimSpace(attr(spine, "toc"))
		for _, ref := range childElements(spine) {
			if !matchesLocalName(ref, "itemref") {
				continue
			}
			if idref := strings.TrimSpace(attr(ref, "idref")); idref != "" {
				pkg.spine = append(pkg.spine, idref)
			}
		}
	}

	return pkg, nil
}

// parseManifestItems collects <item> elements that carry both an id and href.
func parseManifestItems(doc *xmlquery.Node) []ManifestItem {
	var items []ManifestItem
	for _, n := range elementsByLocalName(doc, "item") {
		id := strings.TrimSpace(attr(n, "id"))
		href := strings.TrimSpace(attr(n, "href"))
		if id == "" || href == "" {
			continue
		}
		items = append(items, ManifestItem{
			ID:         id,
			Href:       href,
			MediaType:  strings.TrimSpace(attr(n, "media-type")),
			Properties: attr(n, "properties"),
		})
	}
	return items
}

// title returns the first non-blank title value.
func (p *packageDocument) title() string {
	if titles := textValuesByLocalName(p.doc, "title"); len(titles) > 0 {
		return titles[0]
	}
	return ""
}

// metaContent returns the content attribute of the first <meta> whose name
// attribute equals name.
func (p *packageDocument) metaContent(name string) string {
	for _, m := range elementsByLocalName(p.doc, "meta") {
		if attr(m, "name") == name {
			return strings.TrimSpace(attr(m, "content"))
		}
	}
	return ""
}

// resolve resolves a manifest href relative to the package document.
func (p *packageDocument) resolve(href string) (string, bool) {
	return ResolveZipPath(p.path, href)
}

// firstItem returns the first manifest item, in document order, accepted by match.
func (p *packageDocument) firstItem(match func(ManifestItem) bool) (ManifestItem, bool) {
	for _, item := range p.items {
		if match(item) {
			return item, true
		}
	}
	return ManifestItem{}, false
}
