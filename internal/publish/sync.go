package publish

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// MarkerFile disables third-party preprocessing on the hosting side; the
// publish branch serves the rendered files as-is.
const MarkerFile = ".nojekyll"

// syncWorkspace fully overwrites the publish workspace contents with the
// rendered site, keeping only the git metadata, and ensures the marker file
// exists. Holds even on a first publish onto an empty branch.
func syncWorkspace(workspaceDir, siteDir string) error {
	entries, err := os.ReadDir(workspaceDir)
	if err != nil {
		return fmt.Errorf("failed to read publish workspace: %w", err)
	}
	for _, entry := range entries {
		if entry.Name() == ".git" {
			continue
		}
		if err := os.RemoveAll(filepath.Join(workspaceDir, entry.Name())); err != nil {
			return fmt.Errorf("failed to clear publish workspace: %w", err)
		}
	}

	if err := copyTree(siteDir, workspaceDir); err != nil {
		return err
	}

	markerPath := filepath.Join(workspaceDir, MarkerFile)
	if err := os.WriteFile(markerPath, nil, 0o640); err != nil {
		return fmt.Errorf("failed to write marker file: %w", err)
	}
	return nil
}

// copyTree copies the contents of src into dst.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0o750)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return out.Close()
}
