// Package extract scans a Python package tree and generates one markdown
// documentation source per module, recursing exactly one level into
// subpackages. The scan is a pure transformation of the source layout:
// identical input trees yield byte-identical documentation sources.
package extract

// Symbol is a documented top-level class or function.
type Symbol struct {
	Name      string
	Signature string // full signature line, normalized to one line
	Doc       string // first docstring line, empty when undocumented
}

// Module is a scanned module or package.
type Module struct {
	Name       string // dotted import path, e.g. organoid_tracker.core
	Doc        string // module docstring
	IsPackage  bool
	Submodules []string // dotted names of direct children (packages only)
	Classes    []Symbol
	Functions  []Symbol
}

// FileName returns the documentation-source file name for the module.
func (m Module) FileName() string {
	return m.Name + ".md"
}
