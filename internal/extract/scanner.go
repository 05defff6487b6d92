package extract

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/docpipe/internal/logfields"
)

// Scanner walks a package directory and produces its module set.
type Scanner struct {
	exclude map[string]struct{}
}

// NewScanner creates a scanner. exclude entries match module base names
// (e.g. "tests") or dotted names.
func NewScanner(exclude []string) *Scanner {
	ex := make(map[string]struct{}, len(exclude))
	for _, e := range exclude {
		ex[e] = struct{}{}
	}
	return &Scanner{exclude: ex}
}

// Scan enumerates the package's modules: its own top-level .py modules plus
// direct subpackages and their modules. Recursion stops exactly one level
// deep; deeper packages are not descended into. Results are sorted by dotted
// name, so output ordering is independent of filesystem iteration order.
func (s *Scanner) Scan(packageRoot string) ([]Module, error) {
	info, err := os.Stat(packageRoot)
	if err != nil {
		return nil, fmt.Errorf("package directory not found: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("package path %s is not a directory", packageRoot)
	}

	packageName := filepath.Base(packageRoot)
	var modules []Module

	root, err := s.scanPackageDir(packageRoot, packageName, true)
	if err != nil {
		return nil, err
	}
	modules = append(modules, root...)

	entries, err := os.ReadDir(packageRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to read package directory: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		subInit := filepath.Join(packageRoot, entry.Name(), "__init__.py")
		if _, err := os.Stat(subInit); err != nil {
			continue // plain directory, not a subpackage
		}
		subName := packageName + "." + entry.Name()
		if s.excluded(entry.Name(), subName) {
			slog.Debug("Skipping excluded subpackage", logfields.Module(subName))
			continue
		}
		sub, err := s.scanPackageDir(filepath.Join(packageRoot, entry.Name()), subName, false)
		if err != nil {
			return nil, err
		}
		modules = append(modules, sub...)
	}

	sort.Slice(modules, func(i, j int) bool { return modules[i].Name < modules[j].Name })
	slog.Info("Package scan complete",
		logfields.Module(packageName),
		slog.Int("modules", len(modules)))
	return modules, nil
}

// scanPackageDir emits the package's own entry (from __init__.py) followed by
// one entry per .py module directly inside it.
func (s *Scanner) scanPackageDir(dir, dottedName string, isRoot bool) ([]Module, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	pkg := Module{Name: dottedName, IsPackage: true}
	if initPath := filepath.Join(dir, "__init__.py"); fileExists(initPath) {
		parsedInit, err := parseFile(initPath)
		if err != nil {
			return nil, err
		}
		pkg.Doc = parsedInit.doc
		pkg.Classes = parsedInit.classes
		pkg.Functions = parsedInit.functions
	} else if !isRoot {
		return nil, fmt.Errorf("subpackage %s has no __init__.py", dottedName)
	}

	var modules []Module
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".py") || strings.HasPrefix(name, "_") {
			continue
		}
		base := strings.TrimSuffix(name, ".py")
		moduleName := dottedName + "." + base
		if s.excluded(base, moduleName) {
			slog.Debug("Skipping excluded module", logfields.Module(moduleName))
			continue
		}

		parsedMod, err := parseFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		modules = append(modules, Module{
			Name:      moduleName,
			Doc:       parsedMod.doc,
			Classes:   parsedMod.classes,
			Functions: parsedMod.functions,
		})
		pkg.Submodules = append(pkg.Submodules, moduleName)
	}

	if isRoot {
		// The root package entry also lists its subpackages.
		for _, entry := range entries {
			if entry.IsDir() && fileExists(filepath.Join(dir, entry.Name(), "__init__.py")) {
				subName := dottedName + "." + entry.Name()
				if !s.excluded(entry.Name(), subName) {
					pkg.Submodules = append(pkg.Submodules, subName)
				}
			}
		}
	}
	sort.Strings(pkg.Submodules)

	return append([]Module{pkg}, modules...), nil
}

func (s *Scanner) excluded(base, dotted string) bool {
	if _, ok := s.exclude[base]; ok {
		return true
	}
	_, ok := s.exclude[dotted]
	return ok
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
