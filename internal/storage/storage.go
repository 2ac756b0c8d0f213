// Package storage provides file persistence for stage artifacts and access
// to job audio sources.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonathan/transcript-pipeline/internal/job"
)

// FileStorage reads and writes stage artifacts by relative path.
type FileStorage interface {
	Save(ctx context.Context, data []byte, path string) error
	Read(ctx context.Context, path string) ([]byte, error)
}

// FileLoader fetches the original audio bytes for a job source. Concrete
// loaders (HTTP download, platform file API) are supplied by the front-end;
// the local-path loader below covers development and tests.
type FileLoader interface {
	Load(ctx context.Context, src job.Source) (data []byte, filename string, err error)
}

// Local is a FileStorage rooted at a directory on the local filesystem.
type Local struct {
	root string
}

// NewLocal creates a Local storage rooted at root.
func NewLocal(root string) *Local {
	return &Local{root: root}
}

// Save writes data under the storage root, creating parent directories.
func (l *Local) Save(_ context.Context, data []byte, path string) error {
	full := filepath.Join(l.root, path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Read returns the contents of a stored file.
func (l *Local) Read(_ context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(l.root, path))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// Abs returns the absolute path of a stored file, for stages that shell out
// to external tools.
func (l *Local) Abs(path string) string {
	return filepath.Join(l.root, path)
}

// LocalLoader loads job sources of kind local-path from disk.
type LocalLoader struct{}

// Load reads the file named by the source value.
func (LocalLoader) Load(_ context.Context, src job.Source) ([]byte, string, error) {
	if src.Kind != job.SourceLocalPath {
		return nil, "", fmt.Errorf("local loader cannot handle source kind %q", src.Kind)
	}
	data, err := os.ReadFile(src.Value)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load %s: %w", src.Value, err)
	}
	return data, filepath.Base(src.Value), nil
}
