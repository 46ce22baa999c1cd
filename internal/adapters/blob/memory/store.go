// Package memory implements an in-memory export sink, used for dry runs and tests.
package memory

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/aspen/internal/ports/secondary"
)

// Driver is the name of this backend.
const Driver = "memory"

type blobEntry struct {
	info secondary.BlobInfo
	data []byte
}

// Store implements secondary.BlobStore backed by process memory.
type Store struct {
	mu   sync.RWMutex
	objs map[string]blobEntry
}

// New returns an empty in-memory store.
func New() *Store { return &Store{objs: make(map[string]blobEntry)} }

var _ secondary.BlobStore = (*Store)(nil)

// Driver returns the blob driver identifier.
func (s *Store) Driver() string { return Driver }

// Put stores a new blob; errors if key exists.
func (s *Store) Put(_ context.Context, key string, r io.Reader, opts secondary.BlobPutOptions) (secondary.BlobInfo, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return secondary.BlobInfo{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.objs[key]; exists {
		return secondary.BlobInfo{}, fmt.Errorf("blob %s already exists", key)
	}
	sum := sha256.Sum256(b)
	info := secondary.BlobInfo{
		Key:          key,
		Size:         int64(len(b)),
		ContentType:  opts.ContentType,
		ETag:         hex.EncodeToString(sum[:]),
		Metadata:     maps.Clone(opts.Metadata),
		LastModified: time.Now().UTC(),
	}
	s.objs[key] = blobEntry{info: info, data: b}
	return info, nil
}

// Get returns blob metadata and a reader over a copy of its content.
func (s *Store) Get(_ context.Context, key string) (secondary.BlobInfo, io.ReadCloser, error) {
	s.mu.RLock()
	obj, ok := s.objs[key]
	s.mu.RUnlock()
	if !ok {
		return secondary.BlobInfo{}, nil, fmt.Errorf("blob %s not found", key)
	}
	info := obj.info
	info.Metadata = maps.Clone(info.Metadata)
	return info, io.NopCloser(bytes.NewReader(bytes.Clone(obj.data))), nil
}

// Delete removes the blob returning true if it existed.
func (s *Store) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objs[key]
	delete(s.objs, key)
	return ok, nil
}

// List returns all blobs matching prefix.
func (s *Store) List(_ context.Context, prefix string) ([]secondary.BlobInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]secondary.BlobInfo, 0, len(s.objs))
	for k, v := range s.objs {
		if strings.HasPrefix(k, prefix) {
			info := v.info
			info.Metadata = maps.Clone(info.Metadata)
			out = append(out, info)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}
