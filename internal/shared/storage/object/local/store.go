package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"review-analyzer/internal/shared/storage/object"
)

// Store implements ObjectStore on the local filesystem. Objects live under
// baseDir/bucket and are served by the HTTP router below publicBase.
type Store struct {
	baseDir    string
	bucket     string
	publicBase string
}

// New creates a local object store rooted at baseDir/bucket.
func New(baseDir, bucket, publicBase string) *Store {
	return &Store{baseDir: baseDir, bucket: bucket, publicBase: publicBase}
}

// Root is the directory holding the bucket's objects.
func (s *Store) Root() string {
	return filepath.Join(s.baseDir, s.bucket)
}

// Put writes r to the key, failing with object.ErrExists if it is taken.
func (s *Store) Put(ctx context.Context, key, _ string, r io.Reader, size int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return object.ErrExists
		}
		return fmt.Errorf("open file: %w", err)
	}
	written, err := io.Copy(f, r)
	closeErr := f.Close()
	if err != nil {
		_ = os.Remove(fullPath)
		return fmt.Errorf("write body: %w", err)
	}
	if closeErr != nil {
		return fmt.Errorf("close file: %w", closeErr)
	}
	if size >= 0 && written != size {
		_ = os.Remove(fullPath)
		return fmt.Errorf("short write: wrote %d of %d bytes", written, size)
	}
	return nil
}

// PublicURL returns the URL the router serves the object under.
func (s *Store) PublicURL(key string) string {
	return object.JoinURL(s.publicBase, s.bucket, key)
}

func (s *Store) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid storage key")
	}
	return filepath.Join(s.Root(), clean), nil
}

var _ object.ObjectStore = (*Store)(nil)
