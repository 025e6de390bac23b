// Package blobs stores motivational media on the local filesystem.
package blobs

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Kind values for stored media.
const (
	KindPhoto     = "photo"
	KindVideo     = "video"
	KindAnimation = "animation"
)

// Ref points at a stored media file.
type Ref struct {
	Kind string
	Path string
}

// Store is a directory-backed blob store. Files live under
// <dir>/<kind>/<owner>-<timestamp>, one file per saved blob.
type Store struct {
	dir string
}

// New creates a Store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("blobs: dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("blobs: create dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// validKind reports whether kind is one of the supported media kinds.
func validKind(kind string) bool {
	switch kind {
	case KindPhoto, KindVideo, KindAnimation:
		return true
	}
	return false
}

// Save writes a blob and returns its path.
func (s *Store) Save(kind string, ownerID int64, data []byte) (string, error) {
	if !validKind(kind) {
		return "", fmt.Errorf("blobs: unsupported kind %q", kind)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("blobs: empty payload")
	}

	kindDir := filepath.Join(s.dir, kind)
	if err := os.MkdirAll(kindDir, 0o755); err != nil {
		return "", fmt.Errorf("blobs: create dir %s: %w", kindDir, err)
	}

	name := fmt.Sprintf("%d-%d", ownerID, time.Now().UnixNano())
	path := filepath.Join(kindDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("blobs: write %s: %w", path, err)
	}
	return path, nil
}

// ListAll returns refs for every stored blob of the given kind,
// sorted by file name (i.e. save order).
func (s *Store) ListAll(kind string) ([]Ref, error) {
	if !validKind(kind) {
		return nil, fmt.Errorf("blobs: unsupported kind %q", kind)
	}
	entries, err := os.ReadDir(filepath.Join(s.dir, kind))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("blobs: list %s: %w", kind, err)
	}

	var refs []Ref
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		refs = append(refs, Ref{Kind: kind, Path: filepath.Join(s.dir, kind, e.Name())})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Path < refs[j].Path })
	return refs, nil
}

// PickRandom returns one blob chosen uniformly at random across all
// kinds. The second return is false when the store is empty.
func (s *Store) PickRandom() (Ref, bool) {
	var all []Ref
	for _, kind := range []string{KindPhoto, KindVideo, KindAnimation} {
		refs, err := s.ListAll(kind)
		if err != nil {
			continue
		}
		all = append(all, refs...)
	}
	if len(all) == 0 {
		return Ref{}, false
	}
	return all[rand.Intn(len(all))], true
}
