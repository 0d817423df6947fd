// Package fs stores uploaded product images on local disk and serves them
// back by public URL path.
package fs

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// ImageStore writes images under a root directory and maps them to URLs
// below a public base path.
type ImageStore struct {
	root     string
	basePath string
}

// NewImageStore ensures the root directory exists and returns the store.
// basePath is the URL prefix stored files are served from, e.g.
// "/uploads/products".
func NewImageStore(root, basePath string) (*ImageStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrap(err, "create upload directory")
	}
	return &ImageStore{root: root, basePath: basePath}, nil
}

// Save writes the image under a fresh UUID name, keeping the original
// extension, and returns its public URL path.
func (s *ImageStore) Save(ctx context.Context, originalName string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	name := uuid.New().String() + ext

	f, err := os.Create(filepath.Join(s.root, name))
	if err != nil {
		return "", errors.Wrap(err, "create image file")
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		// Best effort cleanup of the partial file.
		_ = os.Remove(f.Name())
		return "", errors.Wrap(err, "write image file")
	}
	if err := f.Close(); err != nil {
		return "", errors.Wrap(err, "close image file")
	}

	return path.Join(s.basePath, name), nil
}

// Root returns the directory files are written to, for static serving.
func (s *ImageStore) Root() string { return s.root }
