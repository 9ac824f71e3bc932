package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// DiskStorage keeps uploads in a local directory that is also served statically.
// Locators have the form "<urlPrefix>/<name>".
type DiskStorage struct {
	dir       string
	urlPrefix string
}

// NewDiskStorage creates dir if needed. urlPrefix is the locator prefix, e.g. "uploads".
func NewDiskStorage(dir, urlPrefix string) (*DiskStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir %s: %w", dir, err)
	}
	return &DiskStorage{dir: dir, urlPrefix: strings.Trim(urlPrefix, "/")}, nil
}

// Dir returns the directory files are written to.
func (s *DiskStorage) Dir() string { return s.dir }

// Store writes r to a new file and returns its locator.
func (s *DiskStorage) Store(ctx context.Context, fieldName, originalName string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := ObjectName(fieldName, originalName)
	dst, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create file %s: %w", name, err)
	}
	if _, err := io.Copy(dst, r); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", fmt.Errorf("failed to write file %s: %w", name, err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("failed to close file %s: %w", name, err)
	}
	return path.Join(s.urlPrefix, name), nil
}

// Remove deletes the file behind locator.
func (s *DiskStorage) Remove(ctx context.Context, locator string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.resolve(locator)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete file %s: %w", p, err)
	}
	return nil
}

// resolve maps a locator back to a path inside dir.
func (s *DiskStorage) resolve(locator string) (string, error) {
	name := strings.TrimPrefix(path.Clean("/"+locator), "/")
	if s.urlPrefix != "" {
		name = strings.TrimPrefix(name, s.urlPrefix+"/")
	}
	if name == "" || name == "." || strings.Contains(name, "/") {
		return "", fmt.Errorf("invalid locator %q", locator)
	}
	return filepath.Join(s.dir, name), nil
}
