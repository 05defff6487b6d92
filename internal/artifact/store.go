// Package artifact packages the rendered site as a named, retrievable build
// artifact. Uploads are side effects only: a failed upload never invalidates
// the run's correctness, it just loses auditability.
package artifact

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/docpipe/internal/logfields"
)

// Recorder indexes uploaded artifacts. *runstore.Store satisfies it.
type Recorder interface {
	RecordArtifact(ctx context.Context, runID, name, path string, sizeBytes int64) error
}

// Store writes artifacts into a directory and indexes them.
type Store struct {
	dir      string
	name     string
	recorder Recorder
}

// NewStore creates an artifact store. recorder may be nil.
func NewStore(dir, name string, recorder Recorder) *Store {
	return &Store{dir: dir, name: name, recorder: recorder}
}

// Upload packages siteDir as <name>-<runID>.tar.gz in the store directory and
// records it. Returns the artifact path.
func (s *Store) Upload(ctx context.Context, runID, siteDir string) (string, error) {
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create artifact directory: %w", err)
	}

	artifactPath := filepath.Join(s.dir, fmt.Sprintf("%s-%s.tar.gz", s.name, runID))
	if err := writeTarball(artifactPath, siteDir); err != nil {
		return "", err
	}

	info, err := os.Stat(artifactPath)
	if err != nil {
		return "", fmt.Errorf("failed to stat artifact: %w", err)
	}

	if s.recorder != nil {
		if err := s.recorder.RecordArtifact(ctx, runID, s.name, artifactPath, info.Size()); err != nil {
			return "", fmt.Errorf("failed to index artifact: %w", err)
		}
	}

	slog.Info("Artifact uploaded",
		logfields.RunID(runID),
		logfields.Artifact(s.name),
		logfields.Path(artifactPath),
		slog.Int64("size_bytes", info.Size()))
	return artifactPath, nil
}

// writeTarball archives the contents of dir into a gzipped tarball.
func writeTarball(artifactPath, dir string) error {
	out, err := os.Create(artifactPath)
	if err != nil {
		return fmt.Errorf("failed to create artifact file: %w", err)
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)

	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}

		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(rel)
		if err := tw.WriteHeader(header); err != nil {
			return err
		}

		file, err := os.Open(filepath.Clean(path))
		if err != nil {
			return err
		}
		defer file.Close()
		_, err = io.Copy(tw, file)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to archive site: %w", err)
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("failed to finalize tar: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("failed to finalize gzip: %w", err)
	}
	return nil
}
