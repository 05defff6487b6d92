// Package workspace manages the per-run directories a pipeline run works in.
//
// Each run gets an ephemeral timestamped root (e.g. docpipe-20260829-142233)
// containing the source checkout, the generated documentation sources, the
// rendered site, and the publish-branch clone. The root is removed when the
// run ends.
package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/docpipe/internal/logfields"
)

// Subdirectory names used by the pipeline stages.
const (
	SourceDir  = "source"
	DocSrcDir  = "docsrc"
	SiteDir    = "site"
	PublishDir = "publish"
)

// Manager handles workspace operations for a single run.
type Manager struct {
	baseDir string
	rootDir string
}

// NewManager creates a workspace manager rooted under baseDir
// (os.TempDir() when empty).
func NewManager(baseDir string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Manager{baseDir: baseDir}
}

// Create creates a timestamped workspace root directory.
func (m *Manager) Create() error {
	timestamp := time.Now().Format("20060102-150405.000000")
	rootDir := filepath.Join(m.baseDir, fmt.Sprintf("docpipe-%s", timestamp))

	if err := os.MkdirAll(rootDir, 0o750); err != nil {
		return fmt.Errorf("failed to create workspace directory: %w", err)
	}

	m.rootDir = rootDir
	slog.Debug("Created workspace", logfields.Path(rootDir))
	return nil
}

// Path returns the workspace root directory.
func (m *Manager) Path() string {
	return m.rootDir
}

// Subdir returns the path of a named subdirectory, creating it if needed.
func (m *Manager) Subdir(name string) (string, error) {
	if m.rootDir == "" {
		return "", fmt.Errorf("workspace not created")
	}
	subdir := filepath.Join(m.rootDir, name)
	if err := os.MkdirAll(subdir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create subdirectory: %w", err)
	}
	return subdir, nil
}

// Cleanup removes the workspace root directory.
func (m *Manager) Cleanup() error {
	if m.rootDir == "" {
		return nil
	}
	if err := os.RemoveAll(m.rootDir); err != nil {
		return fmt.Errorf("failed to cleanup workspace: %w", err)
	}
	slog.Debug("Cleaned up workspace", logfields.Path(m.rootDir))
	m.rootDir = ""
	return nil
}
