package record

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

// FileRepository stores run journals as YAML files.
type FileRepository struct{}

// NewFileRepository creates a new FileRepository.
func NewFileRepository() *FileRepository {
	return &FileRepository{}
}

// Load reads a journal from the given path. A missing file yields nil, nil.
func (r *FileRepository) Load(ctx context.Context, path string) (*Run, error) {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	root, err := os.OpenRoot(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open directory %q: %w", dir, err)
	}
	defer func() { _ = root.Close() }()

	file, err := root.Open(base)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open journal %q: %w", base, err)
	}
	defer func() { _ = file.Close() }()

	var run Run
	decoder := yaml.NewDecoder(file)
	if err := decoder.DecodeContext(ctx, &run); err != nil {
		return nil, fmt.Errorf("decoding journal YAML: %w", err)
	}

	if err := run.Validate(); err != nil {
		return nil, fmt.Errorf("invalid journal: %w", err)
	}

	return &run, nil
}

// Save writes a journal to the given path, creating the directory if needed.
func (r *FileRepository) Save(ctx context.Context, run *Run, path string) error {
	dir := filepath.Dir(path)

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating directory %q: %w", dir, err)
	}

	root, err := os.OpenRoot(dir)
	if err != nil {
		return fmt.Errorf("opening directory for write %q: %w", dir, err)
	}
	defer func() { _ = root.Close() }()

	base := filepath.Base(path)

	file, err := root.OpenFile(base, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating journal %q: %w", base, err)
	}
	defer func() { _ = file.Close() }()

	encoder := yaml.NewEncoder(file)
	defer func() { _ = encoder.Close() }()

	if err := encoder.EncodeContext(ctx, run); err != nil {
		return fmt.Errorf("encoding journal: %w", err)
	}

	return nil
}
