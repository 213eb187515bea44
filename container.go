package epub

import (
	"errors"
	"strings"
)

// expectedMimetype is the required content of the "mimetype" file in a valid ePub.
const expectedMimetype = "application/epub+zip"

// containerPath is the well-known location of container.xml in an ePub archive.
const containerPath = "META-INF/container.xml"

// ResolvePackagePath validates the archive's mimetype entry and returns the
// package document path named by the first rootfile in container.xml.
func ResolvePackagePath(data []byte) (string, error) {
	const op = "resolve package path"
	a, err := openArchive(op, data)
	if err != nil {
		return "", err
	}
	defer a.Close()
	return resolvePackagePath(op, a, true)
}

// ResolvePackagePathFile is ResolvePackagePath for an archive on disk.
func ResolvePackagePathFile(name string) (string, error) {
	const op = "resolve package path"
	a, err := openArchiveFile(op, name)
	if err != nil {
		return "", err
	}
	defer a.Close()
	return resolvePackagePath(op, a, true)
}

func resolvePackagePath(op string, a *archive, checkMimetype bool) (string, error) {
	if checkMimetype {
		if err := validateMimetype(op, a); err != nil {
			return "", err
		}
	}

	f := a.find(containerPath)
	if f == nil {
		return "", newError(op, ReasonMissingContainerXML, nil)
	}
	data, err := readZipFile(f)
	if err != nil {
		return "", newError(op, ReasonInvalidContainerXML, err)
	}
	return parseContainerXML(op, data)
}

// validateMimetype checks that a "mimetype" entry exists and that its ASCII
// content, trimmed of surrounding whitespace, is exactly application/epub+zip.
func validateMimetype(op string, a *archive) error {
	f := a.find("mimetype")
	if f == nil {
		return newError(op, ReasonMissingMimetypeEntry, nil)
	}
	data, err := readZipFile(f)
	if err != nil {
		return newError(op, ReasonInvalidMimetypeEntry, err)
	}
	if got := strings.TrimSpace(string(data)); got != expectedMimetype {
		e := newError(op, ReasonInvalidMimetypeEntry, nil)
		e.Detail = "unexpected mimetype " + quoteShort(got)
		return e
	}
	return nil
}

// parseContainerXML returns the full-path of the first rootfile element.
func parseContainerXML(op string, data []byte) (string, error) {
	doc, err := parseXML(data)
	if err != nil {
		return "", newError(op, ReasonInvalidContainerXML, err)
	}
	rootfile := firstElementByLocalName(doc, "rootfile")
	if rootfile == nil {
		e := newError(op, ReasonMissingPackagePath, nil)
		e.Detail = "container.xml has no rootfile entries"
		return "", e
	}
	fullPath := strings.TrimSpace(attr(rootfile, "full-path"))
	if fullPath == "" {
		e := newError(op, ReasonMissingPackagePath, errors.New("rootfile has empty full-path"))
		return "", e
	}
	return fullPath, nil
}

// quoteShort quotes s, truncating long values for diagnostics.
func quoteShort(s string) string {
	const limit = 64
	if len(s) > limit {
		s = s[:limit] + "..."
	}
	return `"` + s + `"`
}
