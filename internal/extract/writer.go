package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/docpipe/internal/logfields"

	"log/slog"
)

// WriteDocSources renders one markdown documentation-source file per module
// into outputDir. The output directory is fully regenerated on every call
// (force overwrite, never merged), and no table-of-contents file is written.
func WriteDocSources(outputDir string, modules []Module) ([]string, error) {
	if err := os.RemoveAll(outputDir); err != nil {
		return nil, fmt.Errorf("failed to clear documentation source directory: %w", err)
	}
	if err := os.MkdirAll(outputDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create documentation source directory: %w", err)
	}

	files := make([]string, 0, len(modules))
	for _, module := range modules {
		path := filepath.Join(outputDir, module.FileName())
		if err := os.WriteFile(path, []byte(renderDocSource(module)), 0o640); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", path, err)
		}
		files = append(files, path)
	}

	slog.Info("Documentation sources generated",
		logfields.Path(outputDir),
		slog.Int("files", len(files)))
	return files, nil
}

// renderDocSource produces the markdown body for a module. Output depends
// only on the module value, keeping regeneration deterministic.
func renderDocSource(module Module) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n", module.Name)
	if module.Doc != "" {
		fmt.Fprintf(&b, "\n%s\n", module.Doc)
	}

	if len(module.Submodules) > 0 {
		b.WriteString("\n## Submodules\n\n")
		for _, sub := range module.Submodules {
			fmt.Fprintf(&b, "- [%s](%s.md)\n", sub, sub)
		}
	}

	if len(module.Classes) > 0 {
		b.WriteString("\n## Classes\n")
		for _, class := range module.Classes {
			writeSymbol(&b, class)
		}
	}

	if len(module.Functions) > 0 {
		b.WriteString("\n## Functions\n")
		for _, function := range module.Functions {
			writeSymbol(&b, function)
		}
	}

	return b.String()
}

func writeSymbol(b *strings.Builder, sym Symbol) {
	fmt.Fprintf(b, "\n### `%s`\n", sym.Signature)
	if sym.Doc != "" {
		fmt.Fprintf(b, "\n%s\n", sym.Doc)
	}
}
