// Package render compiles the generated documentation sources into a static
// HTML site and verifies its internal cross-references.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/docpipe/internal/logfields"
)

// Renderer turns a documentation source set into a browsable site.
type Renderer struct {
	siteTitle string
	baseURL   string
	markdown  goldmark.Markdown
	titler    cases.Caser
}

// NewRenderer creates a renderer. Output is deterministic for identical
// source sets and configuration.
func NewRenderer(siteTitle, baseURL string) *Renderer {
	md := goldmark.New(
		goldmark.WithParserOptions(
			parser.WithASTTransformers(util.Prioritized(&docLinkRewriter{}, 100)),
		),
	)
	return &Renderer{
		siteTitle: siteTitle,
		baseURL:   baseURL,
		markdown:  md,
		titler:    cases.Title(language.English),
	}
}

// docLinkRewriter rewrites cross-references between documentation sources
// (module.md) to their rendered counterparts (module.html).
type docLinkRewriter struct{}

func (*docLinkRewriter) Transform(doc *gmast.Document, _ text.Reader, _ parser.Context) {
	_ = gmast.Walk(doc, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if link, ok := n.(*gmast.Link); ok {
			if bytes.HasSuffix(link.Destination, []byte(".md")) && !bytes.Contains(link.Destination, []byte("://")) {
				link.Destination = append(link.Destination[:len(link.Destination)-len(".md")], []byte(".html")...)
			}
		}
		return gmast.WalkContinue, nil
	})
}

// RenderSite renders every documentation source in docsrcDir into siteDir and
// verifies the result. Any malformed source or broken cross-reference is an
// error; there is no partial-success mode.
func (r *Renderer) RenderSite(docsrcDir, siteDir string) (int, error) {
	entries, err := os.ReadDir(docsrcDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read documentation source directory: %w", err)
	}

	var sources []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".md") {
			sources = append(sources, entry.Name())
		}
	}
	if len(sources) == 0 {
		return 0, fmt.Errorf("documentation source set %s is empty", docsrcDir)
	}
	sort.Strings(sources)

	if err := os.RemoveAll(siteDir); err != nil {
		return 0, fmt.Errorf("failed to clear site directory: %w", err)
	}
	if err := os.MkdirAll(siteDir, 0o750); err != nil {
		return 0, fmt.Errorf("failed to create site directory: %w", err)
	}

	for _, name := range sources {
		if err := r.renderPage(docsrcDir, siteDir, name); err != nil {
			return 0, err
		}
	}

	if err := os.WriteFile(filepath.Join(siteDir, "style.css"), []byte(stylesheet), 0o640); err != nil {
		return 0, fmt.Errorf("failed to write stylesheet: %w", err)
	}

	if err := VerifySite(siteDir); err != nil {
		return 0, err
	}

	slog.Info("Site rendered", logfields.Path(siteDir), slog.Int("pages", len(sources)))
	return len(sources), nil
}

func (r *Renderer) renderPage(docsrcDir, siteDir, name string) error {
	source, err := os.ReadFile(filepath.Join(docsrcDir, name))
	if err != nil {
		return fmt.Errorf("failed to read documentation source %s: %w", name, err)
	}

	var body bytes.Buffer
	if err := r.markdown.Convert(source, &body); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}

	moduleName := strings.TrimSuffix(name, ".md")
	page := pageData{
		SiteTitle: r.siteTitle,
		PageTitle: r.pageTitle(moduleName),
		Module:    moduleName,
		BaseURL:   r.baseURL,
		Content:   template.HTML(body.String()), //nolint:gosec // generated from our own markdown
	}

	out, err := os.Create(filepath.Join(siteDir, moduleName+".html"))
	if err != nil {
		return fmt.Errorf("failed to create page: %w", err)
	}
	defer out.Close()

	if err := pageTemplate.Execute(out, page); err != nil {
		return fmt.Errorf("failed to execute page template for %s: %w", name, err)
	}
	return nil
}

// pageTitle derives a human heading from the dotted module name, e.g.
// "tracker.linking_analysis" becomes "Linking Analysis".
func (r *Renderer) pageTitle(moduleName string) string {
	segments := strings.Split(moduleName, ".")
	last := segments[len(segments)-1]
	return r.titler.String(strings.ReplaceAll(last, "_", " "))
}

type pageData struct {
	SiteTitle string
	PageTitle string
	Module    string
	BaseURL   string
	Content   template.HTML
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.PageTitle}} &mdash; {{.SiteTitle}}</title>
<link rel="stylesheet" href="style.css">
</head>
<body>
<header><span class="site-title">{{.SiteTitle}}</span> <code>{{.Module}}</code></header>
<main>
{{.Content}}</main>
</body>
</html>
`))

const stylesheet = `body { font-family: sans-serif; margin: 0; color: #222; }
header { background: #23424a; color: #fff; padding: 0.8rem 1.2rem; }
header .site-title { font-weight: bold; margin-right: 1rem; }
main { max-width: 54rem; margin: 0 auto; padding: 1rem 1.2rem 3rem; }
code { background: #f2f2f2; padding: 0.1rem 0.3rem; border-radius: 3px; }
h3 code { background: none; }
a { color: #1d6fa5; }
`
