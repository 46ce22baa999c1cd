// Package fs implements the export sink on the local filesystem. Keys map to
// relative paths under the root, so an export lands as a plain BIDS tree.
package fs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/example/aspen/internal/ports/secondary"
)

// Driver is the name of this backend.
const Driver = "fs"

// Store implements secondary.BlobStore using the local filesystem. Content
// type and metadata are not persisted; Get derives the type from the extension.
type Store struct {
	root string
}

// New returns a filesystem-backed store rooted at root, creating it if needed.
func New(root string) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("fs export root required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export root: %w", err)
	}
	return &Store{root: root}, nil
}

var _ secondary.BlobStore = (*Store)(nil)

// Driver returns the blob driver identifier.
func (s *Store) Driver() string { return Driver }

// Root returns the directory the store writes under.
func (s *Store) Root() string { return s.root }

// sanitizeKey keeps keys relative and inside the root.
func sanitizeKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("empty key")
	}
	if strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("invalid absolute key %q", key)
	}
	clean := filepath.ToSlash(filepath.Clean(key))
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("invalid key traversal %q", key)
	}
	return clean, nil
}

func (s *Store) pathFor(key string) (string, error) {
	k, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(k)), nil
}

// Put writes a new file; it fails if key already exists.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, opts secondary.BlobPutOptions) (secondary.BlobInfo, error) {
	path, err := s.pathFor(key)
	if err != nil {
		return secondary.BlobInfo{}, err
	}
	if _, err := os.Stat(path); err == nil {
		return secondary.BlobInfo{}, fmt.Errorf("blob %s already exists", key)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return secondary.BlobInfo{}, err
	}

	// stream to a temp file first so a failed copy leaves nothing behind
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return secondary.BlobInfo{}, err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	h := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, h), r)
	if err != nil {
		_ = tmp.Close()
		return secondary.BlobInfo{}, err
	}
	if err := tmp.Close(); err != nil {
		return secondary.BlobInfo{}, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return secondary.BlobInfo{}, err
	}

	st, err := os.Stat(path)
	if err != nil {
		return secondary.BlobInfo{}, err
	}
	return secondary.BlobInfo{
		Key:          key,
		Size:         size,
		ContentType:  opts.ContentType,
		ETag:         hex.EncodeToString(h.Sum(nil)),
		LastModified: st.ModTime().UTC(),
	}, nil
}

// Get opens the file stored under key.
func (s *Store) Get(ctx context.Context, key string) (secondary.BlobInfo, io.ReadCloser, error) {
	path, err := s.pathFor(key)
	if err != nil {
		return secondary.BlobInfo{}, nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return secondary.BlobInfo{}, nil, err
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return secondary.BlobInfo{}, nil, err
	}
	return s.info(key, st), f, nil
}

// Delete removes the file, reporting whether it existed.
func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	path, err := s.pathFor(key)
	if err != nil {
		return false, err
	}
	err = os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// List walks the root and returns every file whose key starts with prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]secondary.BlobInfo, error) {
	var infos []secondary.BlobInfo
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		st, err := d.Info()
		if err != nil {
			return err
		}
		infos = append(infos, s.info(key, st))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

func (s *Store) info(key string, st fs.FileInfo) secondary.BlobInfo {
	return secondary.BlobInfo{
		Key:          key,
		Size:         st.Size(),
		ContentType:  contentType(key),
		LastModified: st.ModTime().UTC(),
	}
}

func contentType(key string) string {
	switch filepath.Ext(key) {
	case ".tsv":
		return "text/tab-separated-values"
	case ".json":
		return "application/json"
	}
	return mime.TypeByExtension(filepath.Ext(key))
}
