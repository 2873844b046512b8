package storage

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"github.com/emiliopalmerini/mpylon/internal/util"
)

var validRunID = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ResultStorage keeps gzip-compressed analysis results, one file per run.
type ResultStorage struct {
	baseDir string
}

// NewResultStorage stores results under the XDG data directory.
func NewResultStorage() (*ResultStorage, error) {
	baseDir, err := util.GetXDGDataDir()
	if err != nil {
		return nil, err
	}
	return NewResultStorageAt(filepath.Join(baseDir, "results"))
}

// NewResultStorageAt stores results under dir, creating it if needed.
func NewResultStorageAt(dir string) (*ResultStorage, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create results directory: %w", err)
	}
	return &ResultStorage{baseDir: dir}, nil
}

// Store compresses data into the file for runID and returns its path.
func (s *ResultStorage) Store(ctx context.Context, runID string, data []byte) (string, error) {
	destPath, err := s.getPath(runID)
	if err != nil {
		return "", err
	}

	dest, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("failed to create result file: %w", err)
	}
	defer func() { _ = dest.Close() }()

	gw := gzip.NewWriter(dest)
	if _, err := gw.Write(data); err != nil {
		_ = gw.Close()
		return "", fmt.Errorf("failed to compress results: %w", err)
	}
	if err := gw.Close(); err != nil {
		return "", fmt.Errorf("failed to close gzip writer: %w", err)
	}

	return destPath, nil
}

func (s *ResultStorage) Get(ctx context.Context, runID string) ([]byte, error) {
	path, err := s.getPath(runID)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open result file: %w", err)
	}
	defer func() { _ = file.Close() }()

	gr, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer func() { _ = gr.Close() }()

	data, err := io.ReadAll(gr)
	if err != nil {
		return nil, fmt.Errorf("failed to read results: %w", err)
	}

	return data, nil
}

func (s *ResultStorage) Delete(ctx context.Context, runID string) error {
	path, err := s.getPath(runID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete results: %w", err)
	}
	return nil
}

func (s *ResultStorage) Exists(ctx context.Context, runID string) (bool, error) {
	path, err := s.getPath(runID)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (s *ResultStorage) getPath(runID string) (string, error) {
	if !validRunID.MatchString(runID) {
		return "", fmt.Errorf("invalid run id %q", runID)
	}
	return filepath.Join(s.baseDir, runID+".json.gz"), nil
}
