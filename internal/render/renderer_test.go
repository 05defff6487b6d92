package render

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeDocSources(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "docsrc")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func TestRenderSite(t *testing.T) {
	docsrc := writeDocSources(t, map[string]string{
		"tracker.md":      "# tracker\n\nCell tracking package.\n\n## Submodules\n\n- [tracker.core](tracker.core.md)\n",
		"tracker.core.md": "# tracker.core\n\nCore data structures.\n",
	})
	site := filepath.Join(t.TempDir(), "site")

	pages, err := NewRenderer("Tracker API", "/").RenderSite(docsrc, site)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if pages != 2 {
		t.Errorf("expected 2 pages, got %d", pages)
	}

	body, err := os.ReadFile(filepath.Join(site, "tracker.html"))
	if err != nil {
		t.Fatalf("read page: %v", err)
	}
	for _, want := range []string{
		"Cell tracking package.",
		`href="tracker.core.html"`, // .md cross-reference rewritten
		"Tracker API",
		`<link rel="stylesheet" href="style.css">`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("page missing %q:\n%s", want, body)
		}
	}

	if _, err := os.Stat(filepath.Join(site, "style.css")); err != nil {
		t.Errorf("stylesheet missing: %v", err)
	}
	// No table-of-contents page is rendered.
	if _, err := os.Stat(filepath.Join(site, "index.html")); !os.IsNotExist(err) {
		t.Error("unexpected index page")
	}
}

func TestRenderSiteDeterministic(t *testing.T) {
	docsrc := writeDocSources(t, map[string]string{
		"pkg.md": "# pkg\n\nSome docs with `code` and a [link](pkg.mod.md).\n",
		"pkg.mod.md": "# pkg.mod\n\nModule body.\n",
	})

	siteA := filepath.Join(t.TempDir(), "a")
	siteB := filepath.Join(t.TempDir(), "b")
	r := NewRenderer("API", "/")
	if _, err := r.RenderSite(docsrc, siteA); err != nil {
		t.Fatalf("render a: %v", err)
	}
	if _, err := r.RenderSite(docsrc, siteB); err != nil {
		t.Fatalf("render b: %v", err)
	}

	a, _ := os.ReadFile(filepath.Join(siteA, "pkg.html"))
	b, _ := os.ReadFile(filepath.Join(siteB, "pkg.html"))
	if !bytes.Equal(a, b) {
		t.Error("rendered output differs between identical runs")
	}
}

func TestRenderSiteBrokenCrossReference(t *testing.T) {
	docsrc := writeDocSources(t, map[string]string{
		"pkg.md": "# pkg\n\nSee [missing](pkg.gone.md).\n",
	})
	site := filepath.Join(t.TempDir(), "site")

	_, err := NewRenderer("API", "/").RenderSite(docsrc, site)
	if err == nil || !strings.Contains(err.Error(), "broken reference") {
		t.Fatalf("expected broken reference failure, got %v", err)
	}
}

func TestRenderSiteEmptySourceSet(t *testing.T) {
	docsrc := writeDocSources(t, nil)
	if _, err := NewRenderer("API", "/").RenderSite(docsrc, filepath.Join(t.TempDir(), "site")); err == nil {
		t.Fatal("expected error for empty documentation source set")
	}
}

func TestPageTitle(t *testing.T) {
	r := NewRenderer("API", "/")
	cases := map[string]string{
		"tracker":                  "Tracker",
		"tracker.core":             "Core",
		"tracker.linking_analysis": "Linking Analysis",
	}
	for module, want := range cases {
		if got := r.pageTitle(module); got != want {
			t.Errorf("pageTitle(%q): want %q, got %q", module, want, got)
		}
	}
}

func TestInternalRef(t *testing.T) {
	internal := []string{"tracker.html", "style.css", "sub/page.html"}
	external := []string{"https://example.com/x", "mailto:a@b", "#anchor", "/abs/path", "//cdn.example.com/a.js", ""}
	for _, ref := range internal {
		if !internalRef(ref) {
			t.Errorf("expected %q internal", ref)
		}
	}
	for _, ref := range external {
		if internalRef(ref) {
			t.Errorf("expected %q external", ref)
		}
	}
}
