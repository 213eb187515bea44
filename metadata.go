package epub

import "fmt"

// ExtractMetadata validates the archive and parses its package document:
// title, authors, languages, cover, manifest, spine order, and table of
// contents. A missing or unreadable table of contents is not an error.
func ExtractMetadata(data []byte) (*PackageMetadata, error) {
	const op = "extract metadata"
	a, err := openArchive(op, data)
	if err != nil {
		return nil, err
	}
	defer a.Close()
	return extractMetadata(op, a)
}

// ExtractMetadataFile is ExtractMetadata for an archive on disk.
func ExtractMetadataFile(name string) (*PackageMetadata, error) {
	const op = "extract metadata"
	a, err := openArchiveFile(op, name)
	if err != nil {
		return nil, err
	}
	defer a.Close()
	return extractMetadata(op, a)
}

func extractMetadata(op string, a *archive) (*PackageMetadata, error) {
	pkg, err := loadPackage(op, a, true)
	if err != nil {
		return nil, err
	}

	md := &PackageMetadata{
		PackagePath: pkg.path,
		Version:     pkg.version,
		Title:       pkg.title(),
		Authors:     textValuesByLocalName(pkg.doc, "creator"),
		Language:    textValuesByLocalName(pkg.doc, "language"),
		Manifest:    make(map[string]ManifestItem, len(pkg.byID)),
		Spine:       append([]string(nil), pkg.spine...),
	}
	for id, item := range pkg.byID {
		md.Manifest[id] = item
	}

	cover, warn := resolveCoverZipPath(pkg)
	md.CoverZipPath = cover
	if warn != "" {
		md.Warnings = append(md.Warnings, warn)
	}

	toc, warnings := resolveTOC(a, pkg)
	md.TOC = toc
	md.Warnings = append(md.Warnings, warnings...)

	enc, err := detectEncryption(a)
	if err != nil {
		md.Warnings = append(md.Warnings, fmt.Sprintf("cannot inspect encryption.xml: %v", err))
	}
	md.Encryption = enc
	switch enc {
	case EncryptionDRM:
		md.Warnings = append(md.Warnings, "archive is DRM protected; content documents may be unreadable")
	case EncryptionFontObfuscation:
		md.Warnings = append(md.Warnings, "font obfuscation detected; obfuscated fonts may not render correctly")
	}

	return md, nil
}
