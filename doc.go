// Package epub navigates ePub 2 and ePub 3 containers for a reading
// application: it validates the archive, parses the package document and
// table of contents, loads one spine document at a time with its neighbours,
// and serves in-document resource requests through a sandboxed URL space.
//
// Every operation takes the archive bytes (or a file path) and opens, reads
// and closes its own ZIP handle, so calls are independent and safe to run
// concurrently.
//
// # Metadata
//
// [ExtractMetadata] returns a [PackageMetadata] with the title, authors,
// languages, cover path, manifest, spine order and a flattened table of
// contents:
//
//	md, err := epub.ExtractMetadata(data)
//	if err != nil {
//	    log.Fatal(epub.ReasonOf(err).UserMessage())
//	}
//	for _, e := range md.TOC {
//	    fmt.Println(strings.Repeat("  ", e.Depth) + e.Label)
//	}
//
// The table of contents comes from the ePub 3 nav document, else the NCX
// file, else it is empty. Nav and NCX problems are reported in
// [PackageMetadata.Warnings] and never fail the call.
//
// # Reading order
//
// [LoadSpineDocument] returns the chapter markup for a preferred chapter path
// (or the first spine item) plus the previous and next readable chapters:
//
//	doc, err := epub.LoadSpineDocument(data, "OEBPS/ch2.xhtml")
//
// # Resources
//
// Renderers load chapter markup under [ChapterBaseURL] so that every relative
// reference becomes a request to [ReaderHost]. [LoadResource] answers those
// requests; [ClassifyNavigation] turns link activations into anchor jumps or
// chapter changes. Requests for other hosts and paths that climb above the
// archive root are refused.
//
// # Persisted state
//
// [EncodeTOC] and [DecodeTOC] store a table of contents as a compact string.
// Reading positions are handled by the reader subpackage.
//
// # Error Handling
//
// Failures are [*Error] values carrying a [Reason]. Compare with the
// package sentinels:
//
//	if errors.Is(err, epub.ErrEmptySpine) { ... }
//
// All XML is parsed with DOCTYPE declarations rejected and no external
// entities resolved.
package epub
