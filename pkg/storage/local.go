package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const publicPrefix = "uploads"

var (
	ErrExtensionNotAllowed = errors.New("extensión de archivo no permitida")
	ErrOutsideStore        = errors.New("la ruta apunta fuera del directorio de archivos")
)

// FileStore is the contract for binary blob storage referenced by path
// strings in catalog rows.
type FileStore interface {
	// Save writes the uploaded content under destDir with a generated
	// collision-resistant name and returns the relative path to persist.
	// A nil reader is a no-op and returns an empty path.
	Save(ctx context.Context, r io.Reader, originalName, destDir string, allowedExts []string) (string, error)
	// Delete removes a previously stored blob. Missing files are not errors.
	Delete(ctx context.Context, relPath string) error
	// Resolve maps a stored relative path back to an absolute filesystem path.
	Resolve(relPath string) (string, error)
}

type localStore struct {
	baseDir string
}

// NewLocalStore creates a disk-backed FileStore rooted at baseDir,
// creating it if needed.
func NewLocalStore(baseDir string) (FileStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, err
	}
	return &localStore{baseDir: abs}, nil
}

func (s *localStore) Save(ctx context.Context, r io.Reader, originalName, destDir string, allowedExts []string) (string, error) {
	if r == nil {
		return "", nil
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(originalName), "."))
	if !extAllowed(ext, allowedExts) {
		return "", ErrExtensionNotAllowed
	}

	dir := filepath.Join(s.baseDir, destDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create dest dir: %w", err)
	}

	name := uuid.New().String() + "." + ext

	// Write to a temp file in the same directory so the final rename is atomic
	// and half-written blobs never become visible.
	tmp, err := os.CreateTemp(dir, "upload_tmp_")
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()
	defer func() {
		tmp.Close()
		os.Remove(tmpPath)
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	finalPath := filepath.Join(dir, name)
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return "", err
	}

	return filepath.ToSlash(filepath.Join(publicPrefix, destDir, name)), nil
}

func (s *localStore) Delete(ctx context.Context, relPath string) error {
	if relPath == "" {
		return nil
	}
	abs, err := s.Resolve(relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *localStore) Resolve(relPath string) (string, error) {
	trimmed := strings.TrimPrefix(filepath.ToSlash(relPath), publicPrefix+"/")
	abs := filepath.Join(s.baseDir, filepath.FromSlash(trimmed))

	// Reject traversal out of the store.
	clean, err := filepath.Abs(abs)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(clean, s.baseDir+string(os.PathSeparator)) {
		return "", ErrOutsideStore
	}
	return clean, nil
}

func extAllowed(ext string, allowed []string) bool {
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}
