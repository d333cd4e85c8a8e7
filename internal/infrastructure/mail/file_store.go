package mail

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/yourusername/article-stock-bot/internal/domain/repository"
)

// WriteFileAtomic faylni vaqtinchalik nusxa orqali almashtirish.
// Xato bo'lsa eski fayl o'zgarmay qoladi.
func WriteFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err = os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

type fileDatasetStore struct {
	path string
}

// NewDatasetStore diskdagi dataset fayli
func NewDatasetStore(path string) repository.DatasetStore {
	return &fileDatasetStore{path: path}
}

func (s *fileDatasetStore) Path() string { return s.path }

// Save faylni atomik almashtirish
func (s *fileDatasetStore) Save(data []byte) error {
	return WriteFileAtomic(s.path, data)
}
