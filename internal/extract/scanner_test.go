package extract

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// writeTree builds a small package mimicking a tracking-tool layout: modules
// at the top level, one subpackage, one nested subpackage that must not be
// descended into, and a plain directory without __init__.py.
func writeTree(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "tracker")

	files := map[string]string{
		"__init__.py":               `"""Cell tracking package."""` + "\n",
		"experiment.py":             "\"\"\"Experiment container.\"\"\"\n\n\nclass Experiment:\n    \"\"\"Holds all data of one time-lapse.\"\"\"\n    pass\n",
		"images.py":                 "def load_image(path):\n    \"\"\"Loads a single image.\"\"\"\n    pass\n",
		"_private.py":               "def hidden():\n    pass\n",
		"core/__init__.py":          `"""Core data structures."""` + "\n",
		"core/typing.py":            "\"\"\"Type aliases.\"\"\"\n",
		"core/deep/__init__.py":     `"""Too deep to document."""` + "\n",
		"core/deep/hidden.py":       "def invisible():\n    pass\n",
		"scripts/run.py":            "def main():\n    pass\n",
		"scripts/not_a_package.txt": "ignore me\n",
	}
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
	return root
}

func moduleNames(modules []Module) []string {
	names := make([]string, len(modules))
	for i, m := range modules {
		names[i] = m.Name
	}
	return names
}

func TestScanDepthLimit(t *testing.T) {
	root := writeTree(t)
	modules, err := NewScanner(nil).Scan(root)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	want := []string{
		"tracker",
		"tracker.core",
		"tracker.core.typing",
		"tracker.experiment",
		"tracker.images",
	}
	got := moduleNames(modules)
	if len(got) != len(want) {
		t.Fatalf("modules: want %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("modules: want %v, got %v", want, got)
		}
	}

	// The nested subpackage must never appear: recursion is exactly one level.
	for _, name := range got {
		if name == "tracker.core.deep" || name == "tracker.core.deep.hidden" {
			t.Fatalf("nested subpackage leaked into scan: %v", got)
		}
	}
}

func TestScanPackageEntryListsSubmodules(t *testing.T) {
	root := writeTree(t)
	modules, err := NewScanner(nil).Scan(root)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	pkg := modules[0]
	if pkg.Name != "tracker" || !pkg.IsPackage {
		t.Fatalf("expected root package first, got %+v", pkg)
	}
	want := []string{"tracker.core", "tracker.experiment", "tracker.images"}
	if len(pkg.Submodules) != len(want) {
		t.Fatalf("submodules: want %v, got %v", want, pkg.Submodules)
	}
	for i := range want {
		if pkg.Submodules[i] != want[i] {
			t.Fatalf("submodules: want %v, got %v", want, pkg.Submodules)
		}
	}
}

func TestScanExclude(t *testing.T) {
	root := writeTree(t)
	modules, err := NewScanner([]string{"core"}).Scan(root)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	for _, name := range moduleNames(modules) {
		if name == "tracker.core" || name == "tracker.core.typing" {
			t.Fatalf("excluded subpackage present: %v", moduleNames(modules))
		}
	}
}

func TestScanBrokenModuleAborts(t *testing.T) {
	root := writeTree(t)
	broken := filepath.Join(root, "broken.py")
	if err := os.WriteFile(broken, []byte("\"\"\"never closed\n"), 0o600); err != nil {
		t.Fatalf("write broken: %v", err)
	}
	if _, err := NewScanner(nil).Scan(root); err == nil {
		t.Fatal("expected scan to abort on broken module")
	}
}

func TestScanMissingPackageDir(t *testing.T) {
	if _, err := NewScanner(nil).Scan(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing package directory")
	}
}

func TestWriteDocSourcesDeterministicAndForced(t *testing.T) {
	root := writeTree(t)
	modules, err := NewScanner(nil).Scan(root)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	outDir := filepath.Join(t.TempDir(), "docsrc")

	// Plant a stale file: force overwrite must remove it.
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, "stale.md"), []byte("old"), 0o600); err != nil {
		t.Fatalf("write stale: %v", err)
	}

	files, err := WriteDocSources(outDir, modules)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if len(files) != len(modules) {
		t.Fatalf("expected one file per module, got %d for %d modules", len(files), len(modules))
	}
	if _, err := os.Stat(filepath.Join(outDir, "stale.md")); !os.IsNotExist(err) {
		t.Error("stale file survived forced regeneration")
	}
	// No table-of-contents file is generated.
	if _, err := os.Stat(filepath.Join(outDir, "index.md")); !os.IsNotExist(err) {
		t.Error("unexpected index file")
	}

	first, err := os.ReadFile(filepath.Join(outDir, "tracker.md"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	// Regenerating from the same tree is byte-identical.
	if _, err := WriteDocSources(outDir, modules); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	second, err := os.ReadFile(filepath.Join(outDir, "tracker.md"))
	if err != nil {
		t.Fatalf("reread: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("doc source regeneration is not deterministic")
	}
}

func TestDocSourceContent(t *testing.T) {
	root := writeTree(t)
	modules, err := NewScanner(nil).Scan(root)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	var experiment *Module
	for i := range modules {
		if modules[i].Name == "tracker.experiment" {
			experiment = &modules[i]
		}
	}
	if experiment == nil {
		t.Fatal("tracker.experiment not scanned")
	}

	body := renderDocSource(*experiment)
	for _, want := range []string{
		"# tracker.experiment",
		"Experiment container.",
		"## Classes",
		"### `class Experiment`",
		"Holds all data of one time-lapse.",
	} {
		if !contains(body, want) {
			t.Errorf("doc source missing %q:\n%s", want, body)
		}
	}
}

func contains(haystack, needle string) bool {
	return bytes.Contains([]byte(haystack), []byte(needle))
}
