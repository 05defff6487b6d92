// Package provision updates the base runtime environment from the declarative
// dependency manifest before documentation is extracted.
package provision

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Requirement is a single parsed manifest entry.
type Requirement struct {
	Name       string
	Constraint string // "==", ">=", "<=", "~=", ">", "<" or "" for unpinned
	Version    string
}

func (r Requirement) String() string {
	if r.Constraint == "" {
		return r.Name
	}
	return r.Name + r.Constraint + r.Version
}

var constraintOps = []string{"==", ">=", "<=", "~=", "!=", ">", "<"}

// ParseManifest reads a requirements-style manifest. Comments and blank lines
// are skipped. Malformed entries and conflicting exact pins are errors so that
// an unsatisfiable manifest fails the run before any documentation work starts.
func ParseManifest(path string) ([]Requirement, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dependency manifest: %w", err)
	}
	defer file.Close()

	var requirements []Requirement
	pins := map[string]string{} // name -> exact version
	lineNo := 0

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		req, err := parseRequirement(line)
		if err != nil {
			return nil, fmt.Errorf("manifest line %d: %w", lineNo, err)
		}

		if req.Constraint == "==" {
			if prev, ok := pins[req.Name]; ok && prev != req.Version {
				return nil, fmt.Errorf("manifest line %d: conflicting pins for %s (%s vs %s)",
					lineNo, req.Name, prev, req.Version)
			}
			pins[req.Name] = req.Version
		}
		requirements = append(requirements, req)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dependency manifest: %w", err)
	}
	if len(requirements) == 0 {
		return nil, fmt.Errorf("dependency manifest %s declares no requirements", path)
	}
	return requirements, nil
}

func parseRequirement(line string) (Requirement, error) {
	for _, op := range constraintOps {
		if idx := strings.Index(line, op); idx > 0 {
			name := strings.TrimSpace(line[:idx])
			version := strings.TrimSpace(line[idx+len(op):])
			if name == "" || version == "" {
				return Requirement{}, fmt.Errorf("malformed requirement %q", line)
			}
			if !validName(name) {
				return Requirement{}, fmt.Errorf("invalid requirement name %q", name)
			}
			return Requirement{Name: name, Constraint: op, Version: version}, nil
		}
	}
	if !validName(line) {
		return Requirement{}, fmt.Errorf("malformed requirement %q", line)
	}
	return Requirement{Name: line}, nil
}

func validName(name string) bool {
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.' || r == '[' || r == ']':
			// extras like package[extra] stay part of the name
		default:
			return false
		}
	}
	return name != ""
}
