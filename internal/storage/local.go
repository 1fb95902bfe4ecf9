package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"archivist/internal/domain"
	"archivist/internal/domain/services"
)

// LocalStorage keeps files under a root directory on the local filesystem
type LocalStorage struct {
	root   string
	logger *slog.Logger
}

// NewLocalStorage creates the root directory if needed
func NewLocalStorage(root string, logger *slog.Logger) (*LocalStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &LocalStorage{root: root, logger: logger}, nil
}

var _ services.FileStorage = (*LocalStorage)(nil)

// Store copies the file under root and returns its path relative to root
func (s *LocalStorage) Store(_ context.Context, localPath, code string) (string, error) {
	key := objectKey(code, localPath, time.Now())
	dest, err := s.resolve(key)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", domain.WrapStorage("store file", err)
	}
	if err := copyFile(localPath, dest); err != nil {
		return "", domain.WrapStorage("store file", err)
	}

	s.logger.Debug("file stored", "key", key, "source", localPath)
	return key, nil
}

// Retrieve copies a stored file to destPath
func (s *LocalStorage) Retrieve(_ context.Context, serverPath, destPath string) error {
	src, err := s.resolve(serverPath)
	if err != nil {
		return err
	}
	if err := copyFile(src, destPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.NewNotFoundError("file", serverPath)
		}
		return domain.WrapStorage("retrieve file", err)
	}
	return nil
}

// Exists reports whether serverPath is present under root
func (s *LocalStorage) Exists(_ context.Context, serverPath string) (bool, error) {
	path, err := s.resolve(serverPath)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, domain.WrapStorage("stat file", err)
}

// Delete removes a stored file; a missing file is not an error
func (s *LocalStorage) Delete(_ context.Context, serverPath string) error {
	path, err := s.resolve(serverPath)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return domain.WrapStorage("delete file", err)
	}
	return nil
}

func (s *LocalStorage) Hash(localPath string) (string, error) {
	return hashFile(localPath)
}

func (s *LocalStorage) LocalExists(localPath string) bool {
	return localExists(localPath)
}

// resolve maps a storage key to a path, refusing keys that escape root
func (s *LocalStorage) resolve(key string) (string, error) {
	path := filepath.Join(s.root, filepath.FromSlash(key))
	rel, err := filepath.Rel(s.root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", domain.NewValidationError("server_path", "path escapes storage root")
	}
	return path, nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
