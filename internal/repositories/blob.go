package repositories

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// BlobStore is the durable byte storage behind uploaded assets, addressed
// by relative paths of the shape games/{gameID}/assets/...
type BlobStore interface {
	// Store writes the stream under key and returns the relative path
	// the blob ended up at.
	Store(ctx context.Context, key string, r io.Reader) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

// LocalBlobStore keeps blobs on the local filesystem under a content root.
// It is the default backend; extraction and test-serving share the same
// root, so bundles land next to their source archives.
type LocalBlobStore struct {
	root    string
	baseURL string
}

func NewLocalBlobStore(root, baseURL string) (*LocalBlobStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve content root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create content root: %w", err)
	}
	return &LocalBlobStore{root: abs, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Root returns the absolute content root directory.
func (s *LocalBlobStore) Root() string {
	return s.root
}

func (s *LocalBlobStore) resolve(key string) (string, error) {
	clean := path.Clean("/" + key)
	full := filepath.Join(s.root, filepath.FromSlash(clean))
	if full != s.root && !strings.HasPrefix(full, s.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("blob key escapes content root: %q", key)
	}
	return full, nil
}

func (s *LocalBlobStore) Store(ctx context.Context, key string, r io.Reader) (string, error) {
	full, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	dst, err := os.Create(full)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, r); err != nil {
		dst.Close()
		_ = os.Remove(full)
		return "", err
	}
	if err := dst.Close(); err != nil {
		return "", err
	}
	return strings.TrimPrefix(path.Clean("/"+key), "/"), nil
}

func (s *LocalBlobStore) Exists(ctx context.Context, key string) (bool, error) {
	full, err := s.resolve(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(full)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (s *LocalBlobStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	full, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("blob %q: %w", key, ErrBlobNotFound)
		}
		return nil, err
	}
	return f, nil
}

func (s *LocalBlobStore) Delete(ctx context.Context, key string) error {
	full, err := s.resolve(key)
	if err != nil {
		return err
	}
	return os.Remove(full)
}

func (s *LocalBlobStore) PublicURL(key string) string {
	return s.baseURL + "/storage/" + strings.TrimPrefix(path.Clean("/"+key), "/")
}
