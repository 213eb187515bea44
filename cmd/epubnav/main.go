// Command epubnav inspects ePub archives, decodes saved reading positions and
// serves one book over loopback HTTP for an embedding renderer.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	epub "github.com/simp-lee/epubnav"
	"github.com/simp-lee/epubnav/internal/logging"
	"github.com/simp-lee/epubnav/internal/server"
	"github.com/simp-lee/epubnav/reader"
)

const version = "0.1.0"

// Globals are flags shared by every command.
type Globals struct {
	LogLevel  string `name:"log-level" env:"EPUBNAV_LOG_LEVEL" default:"info" enum:"debug,info,warn,error" help:"Log level (debug, info, warn, error)"`
	LogFormat string `name:"log-format" env:"EPUBNAV_LOG_FORMAT" default:"text" enum:"text,json" help:"Log format (text, json)"`

	log *slog.Logger
	out io.Writer
}

// CLI defines the command-line interface for epubnav.
type CLI struct {
	Globals

	Inspect  InspectCmd  `cmd:"" help:"Print package metadata as JSON"`
	Toc      TocCmd      `cmd:"" help:"Print the table of contents"`
	Chapter  ChapterCmd  `cmd:"" help:"Print a spine document and its neighbours"`
	Resolve  ResolveCmd  `cmd:"" help:"Resolve a sandbox request against a chapter"`
	Locator  LocatorCmd  `cmd:"" help:"Decode a saved position locator"`
	Viewport ViewportCmd `cmd:"" help:"Decode renderer viewport telemetry"`
	Serve    ServeCmd    `cmd:"" help:"Serve one book over loopback HTTP"`
	Version  VersionCmd  `cmd:"" help:"Print version information"`
}

// InspectCmd prints the package metadata.
type InspectCmd struct {
	Path string `arg:"" help:"Path to the ePub file" type:"existingfile"`
}

func (c *InspectCmd) Run(g *Globals) error {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		return err
	}
	md, err := epub.ExtractMetadata(data)
	if err != nil {
		return describe(err)
	}
	for _, w := range md.Warnings {
		g.log.Warn("metadata warning", "file", c.Path, "warning", w)
	}
	return g.printJSON(struct {
		Fingerprint string `json:"fingerprint"`
		*epub.PackageMetadata
		Encryption string `json:"Encryption"`
	}{epub.Fingerprint(data), md, md.Encryption.String()})
}

// TocCmd prints the table of contents as an indented outline, or in the
// persisted tab-separated form with --encoded.
type TocCmd struct {
	Path    string `arg:"" help:"Path to the ePub file" type:"existingfile"`
	Encoded bool   `help:"Print the persisted TOC encoding"`
	Preview int    `help:"Only print the first N entries" default:"0"`
	Chapter string `help:"Mark the entry matching this chapter path"`
	Anchor  string `help:"Anchor fragment used with --chapter"`
}

func (c *TocCmd) Run(g *Globals) error {
	md, err := epub.ExtractMetadataFile(c.Path)
	if err != nil {
		return describe(err)
	}
	encoded, ok := epub.EncodeTOC(md.TOC)
	if !ok {
		g.log.Info("book has no table of contents", "file", c.Path)
		return nil
	}
	if c.Encoded {
		fmt.Fprintln(g.out, encoded)
		return nil
	}
	if c.Preview > 0 {
		for _, line := range epub.PreviewTOC(encoded, c.Preview) {
			fmt.Fprintf(g.out, "%s%s\n", strings.Repeat("  ", line.Depth), line.Label)
		}
		return nil
	}

	selected := ""
	if c.Chapter != "" {
		selected, _ = reader.SelectTOCHref(md.TOC, c.Chapter, c.Anchor)
	}
	for _, e := range md.TOC {
		marker := "  "
		if selected != "" && e.Href == selected {
			marker = "> "
		}
		fmt.Fprintf(g.out, "%s%s%s\t%s\n", marker, strings.Repeat("  ", max(e.Depth, 0)), e.Label, e.Href)
	}
	return nil
}

// ChapterCmd prints one spine document.
type ChapterCmd struct {
	Path    string `arg:"" help:"Path to the ePub file" type:"existingfile"`
	Chapter string `arg:"" optional:"" help:"Preferred chapter zip path (default: first spine item)"`
	Text    bool   `help:"Print plain text instead of markup"`
	Locator string `help:"Saved locator; prints the restore plan for it"`
	Info    bool   `help:"Print navigation info only"`
}

func (c *ChapterCmd) Run(g *Globals) error {
	chapter := c.Chapter
	var saved reader.PositionLocator
	if c.Locator != "" {
		l, ok := reader.DecodeLocator(c.Locator)
		if !ok {
			return errors.New("unrecognized locator")
		}
		saved = l
		if chapter == "" {
			chapter = l.ChapterZipPath
		}
	}

	doc, err := epub.LoadSpineDocumentFile(c.Path, chapter)
	if err != nil {
		return describe(err)
	}

	switch {
	case c.Locator != "":
		plan := reader.RestoreTarget(saved, doc.ChapterMarkup)
		return g.printJSON(map[string]any{
			"chapter":    doc.ChapterZipPath,
			"kind":       plan.Kind.String(),
			"x_permille": plan.XPermille,
			"y_permille": plan.YPermille,
			"anchor":     plan.Anchor,
			"text_hint":  plan.TextHint,
		})
	case c.Info:
		return g.printJSON(map[string]any{
			"title":    doc.PackageTitle,
			"chapter":  doc.ChapterZipPath,
			"index":    doc.SpineIndex,
			"count":    doc.SpineItemCount,
			"previous": doc.PreviousChapterZipPath,
			"next":     doc.NextChapterZipPath,
		})
	case c.Text:
		text, err := epub.ExtractChapterText(doc.ChapterMarkup)
		if err != nil {
			return err
		}
		fmt.Fprintln(g.out, text)
		return nil
	}
	fmt.Fprint(g.out, doc.ChapterMarkup)
	return nil
}

// ResolveCmd resolves a request the way the resource sandbox does.
type ResolveCmd struct {
	Chapter string `arg:"" help:"Zip path of the displayed chapter"`
	Request string `arg:"" help:"Request URL, or a path relative to the chapter"`
	Book    string `help:"ePub file; when set the resource is read and summarized" type:"existingfile"`
}

func (c *ResolveCmd) Run(g *Globals) error {
	requestURL := c.Request
	if !strings.Contains(requestURL, "://") {
		zipPath, ok := epub.ResolveRequestPath(c.Chapter, c.Request)
		if !ok {
			return fmt.Errorf("request %q is outside the archive", c.Request)
		}
		requestURL = epub.ChapterBaseURL(zipPath)
	}

	if ev, ok := epub.ClassifyNavigation(c.Chapter, requestURL); ok {
		return g.printJSON(map[string]string{
			"navigation": ev.Kind.String(),
			"chapter":    ev.ChapterZipPath,
			"fragment":   ev.Fragment,
		})
	}
	zipPath, ok := epub.ResolveRequestZipPath(c.Chapter, requestURL)
	if !ok {
		return fmt.Errorf("request %q refused by the sandbox", c.Request)
	}
	if c.Book == "" {
		fmt.Fprintln(g.out, zipPath)
		return nil
	}
	res, ok := epub.LoadResourceFile(c.Book, c.Chapter, requestURL)
	if !ok {
		return fmt.Errorf("%s: %w", zipPath, epub.ErrFileNotFound)
	}
	return g.printJSON(map[string]any{
		"zip_path":  res.ZipPath,
		"mime_type": res.MimeType,
		"encoding":  res.Encoding,
		"size":      len(res.Data),
	})
}

// LocatorCmd decodes a persisted locator.
type LocatorCmd struct {
	Value string `arg:"" help:"Serialized locator (v1 or v2)"`
}

func (c *LocatorCmd) Run(g *Globals) error {
	l, ok := reader.DecodeLocator(c.Value)
	if !ok {
		return errors.New("unrecognized locator")
	}
	out := map[string]any{
		"chapter":      l.ChapterZipPath,
		"anchor":       l.AnchorFragment,
		"page_mode":    l.PageMode.String(),
		"scroll_x":     l.ScrollX,
		"scroll_y":     l.ScrollY,
		"max_scroll_x": l.MaxScrollX,
		"max_scroll_y": l.MaxScrollY,
		"page_index":   l.PageIndex,
		"page_count":   l.PageCount,
		"text_hint":    l.VisibleTextHint,
		"reencoded":    l.Encode(),
	}
	if v, ok := l.ScrollXProgressPermille(); ok {
		out["scroll_x_permille"] = v
	}
	if v, ok := l.ScrollYProgressPermille(); ok {
		out["scroll_y_permille"] = v
	}
	if v, ok := l.PageProgressPermille(); ok {
		out["page_permille"] = v
	}
	return g.printJSON(out)
}

// ViewportCmd decodes renderer telemetry and optionally builds a locator.
type ViewportCmd struct {
	Raw     string `arg:"" help:"Raw script result, including the surrounding quotes"`
	Chapter string `help:"Chapter zip path; prints the locator to persist"`
	Mode    string `help:"Page mode for the locator" enum:"SCROLL,PAGINATED" default:"SCROLL"`
}

func (c *ViewportCmd) Run(g *Globals) error {
	m, ok := reader.DecodeViewportMetrics(c.Raw)
	if !ok {
		return errors.New("unrecognized viewport metrics")
	}
	if c.Chapter != "" {
		mode, _ := reader.ParsePageMode(c.Mode)
		l, ok := m.Locator(c.Chapter, mode)
		if !ok {
			return errors.New("chapter path is blank")
		}
		fmt.Fprintln(g.out, l.Encode())
		return nil
	}
	return g.printJSON(m)
}

// ServeCmd serves one book until interrupted.
type ServeCmd struct {
	Path string `arg:"" help:"Path to the ePub file" type:"existingfile"`
	Addr string `help:"Listen address" env:"EPUBNAV_ADDR" default:"127.0.0.1:8093"`
}

func (c *ServeCmd) Run(g *Globals) error {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		return err
	}
	if _, err := epub.ResolvePackagePath(data); err != nil {
		return describe(err)
	}

	srv := &http.Server{
		Addr:              c.Addr,
		Handler:           server.NewServer(data, g.log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		g.log.Info("serving book", "file", c.Path, "addr", c.Addr, "fingerprint", epub.Fingerprint(data))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	g.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type VersionCmd struct{}

func (c *VersionCmd) Run(g *Globals) error {
	fmt.Fprintf(g.out, "epubnav version %s\n", version)
	return nil
}

func (g *Globals) printJSON(v any) error {
	enc := json.NewEncoder(g.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// describe prefixes archive failures with their reader-facing message.
func describe(err error) error {
	if r := epub.ReasonOf(err); r != epub.ReasonUnknown {
		return fmt.Errorf("%s: %w", r.UserMessage(), err)
	}
	return err
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("epubnav"),
		kong.Description("ePub container navigation and reading-position tools"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	level, err := logging.ParseLevel(cli.LogLevel)
	ctx.FatalIfErrorf(err)
	format, err := logging.ParseFormat(cli.LogFormat)
	ctx.FatalIfErrorf(err)
	cli.Globals.log = logging.Init(level, format)
	cli.Globals.out = os.Stdout

	err = ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
