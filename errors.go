package epub

import (
	"errors"
	"fmt"
)

// Reason enumerates why a container, package, or spine operation failed.
type Reason int

const (
	ReasonUnknown Reason = iota
	ReasonInvalidSourceFile
	ReasonInvalidZipContainer
	ReasonMissingMimetypeEntry
	ReasonInvalidMimetypeEntry
	ReasonMissingContainerXML
	ReasonInvalidContainerXML
	ReasonMissingPackagePath
	ReasonMissingPackageDocument
	ReasonInvalidPackageDocumentXML
	ReasonEmptySpine
	ReasonSpineItemNotInManifest
	ReasonMissingSpineDocumentEntry
	ReasonUnsupportedSpineDocumentType
	ReasonUnreadableSpineDocument
)

var reasonNames = map[Reason]string{
	ReasonUnknown:                      "unknown failure",
	ReasonInvalidSourceFile:            "invalid source file",
	ReasonInvalidZipContainer:          "invalid zip container",
	ReasonMissingMimetypeEntry:         "missing mimetype entry",
	ReasonInvalidMimetypeEntry:         "invalid mimetype entry",
	ReasonMissingContainerXML:          "missing container xml",
	ReasonInvalidContainerXML:          "invalid container xml",
	ReasonMissingPackagePath:           "missing package path in container",
	ReasonMissingPackageDocument:       "missing package document",
	ReasonInvalidPackageDocumentXML:    "invalid package document xml",
	ReasonEmptySpine:                   "empty spine",
	ReasonSpineItemNotInManifest:       "spine item not in manifest",
	ReasonMissingSpineDocumentEntry:    "missing spine document entry",
	ReasonUnsupportedSpineDocumentType: "unsupported spine document type",
	ReasonUnreadableSpineDocument:      "unreadable spine document",
}

var reasonMessages = map[Reason]string{
	ReasonInvalidSourceFile:            "Unreadable EPUB file",
	ReasonInvalidZipContainer:          "Unreadable EPUB (invalid ZIP container)",
	ReasonMissingMimetypeEntry:         "Invalid EPUB (missing mimetype entry)",
	ReasonInvalidMimetypeEntry:         "Invalid EPUB (bad mimetype entry)",
	ReasonMissingContainerXML:          "Invalid EPUB (missing META-INF/container.xml)",
	ReasonInvalidContainerXML:          "Invalid EPUB (malformed container.xml)",
	ReasonMissingPackagePath:           "Invalid EPUB (container.xml missing package path)",
	ReasonMissingPackageDocument:       "Invalid EPUB (package document not found)",
	ReasonInvalidPackageDocumentXML:    "Invalid EPUB (malformed package document)",
	ReasonEmptySpine:                   "EPUB has no readable spine items",
	ReasonSpineItemNotInManifest:       "EPUB spine item not found in manifest",
	ReasonMissingSpineDocumentEntry:    "EPUB spine document file is missing",
	ReasonUnsupportedSpineDocumentType: "EPUB spine item format is not supported yet",
	ReasonUnreadableSpineDocument:      "Failed to read EPUB spine document",
}

// String returns a short lowercase description of r.
func (r Reason) String() string {
	if s, ok := reasonNames[r]; ok {
		return s
	}
	return fmt.Sprintf("reason(%d)", int(r))
}

// UserMessage returns a sentence suitable for showing to a reader.
func (r Reason) UserMessage() string {
	if s, ok := reasonMessages[r]; ok {
		return s
	}
	return "Unreadable EPUB"
}

// Error is the failure returned by every archive-level operation. It carries
// the enumerated Reason plus an optional low-level diagnostic.
type Error struct {
	// Op names the operation that failed (e.g., "extract metadata").
	Op string

	// Reason is the enumerated failure cause.
	Reason Reason

	// Detail is the low-level diagnostic message, if any.
	Detail string

	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	msg := "epub: "
	if e.Op != "" {
		msg += e.Op + ": "
	}
	msg += e.Reason.String()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error sentinel with the same Reason.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Err == nil && t.Reason == e.Reason
}

// Sentinel errors matched by reason with errors.Is.
var (
	ErrInvalidSourceFile            = &Error{Reason: ReasonInvalidSourceFile}
	ErrInvalidZipContainer          = &Error{Reason: ReasonInvalidZipContainer}
	ErrMissingMimetypeEntry         = &Error{Reason: ReasonMissingMimetypeEntry}
	ErrInvalidMimetypeEntry         = &Error{Reason: ReasonInvalidMimetypeEntry}
	ErrMissingContainerXML          = &Error{Reason: ReasonMissingContainerXML}
	ErrInvalidContainerXML          = &Error{Reason: ReasonInvalidContainerXML}
	ErrMissingPackagePath           = &Error{Reason: ReasonMissingPackagePath}
	ErrMissingPackageDocument       = &Error{Reason: ReasonMissingPackageDocument}
	ErrInvalidPackageDocumentXML    = &Error{Reason: ReasonInvalidPackageDocumentXML}
	ErrEmptySpine                   = &Error{Reason: ReasonEmptySpine}
	ErrSpineItemNotInManifest       = &Error{Reason: ReasonSpineItemNotInManifest}
	ErrMissingSpineDocumentEntry    = &Error{Reason: ReasonMissingSpineDocumentEntry}
	ErrUnsupportedSpineDocumentType = &Error{Reason: ReasonUnsupportedSpineDocumentType}
	ErrUnreadableSpineDocument      = &Error{Reason: ReasonUnreadableSpineDocument}
)

var (
	// ErrFileNotFound indicates the requested file does not exist
	// in the ePub archive.
	ErrFileNotFound = errors.New("epub: file not found in archive")

	// ErrNoCover indicates no cover image could be detected.
	ErrNoCover = errors.New("epub: no cover image found")
)

// ReasonOf returns the Reason carried by err, or ReasonUnknown when err is
// nil or not an *Error.
func ReasonOf(err error) Reason {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ReasonUnknown
}

func newError(op string, reason Reason, cause error) *Error {
	e := &Error{Op: op, Reason: reason, Err: cause}
	if cause != nil {
		e.Detail = cause.Error()
	}
	return e
}
