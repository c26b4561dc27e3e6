// Package cache is the content-addressed blob store backing the transform
// service. Source blobs live under the hex hash of their source identifier,
// transformed blobs under {hash}_{tallestSide}.{format}, all in one flat
// directory the store exclusively owns. Blobs are never deleted or
// overwritten; the cache grows without bound.
package cache

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"lukechampine.com/blake3"

	"github.com/imagecask/imagecask/internal/domain"
	"github.com/imagecask/imagecask/internal/fault"
)

// ErrMiss reports that no blob exists for the requested key.
var ErrMiss = errors.New("cache miss")

// ComputeKey derives the content address for a source identifier: the
// BLAKE3-256 digest of the identifier, hex encoded. Pure, no I/O.
func ComputeKey(source string) string {
	sum := blake3.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// TransformedFilename names a transformed blob for a (key, size, format)
// triple.
func TransformedFilename(key string, tallestSide uint32, format domain.Format) string {
	return fmt.Sprintf("%s_%d.%s", key, tallestSide, format.Ext())
}

type Store struct {
	dir string
}

// NewStore opens a store rooted at dir, creating the directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fault.New(fault.KindDirectoryCreation, fmt.Errorf("create cache dir %s: %w", dir, err))
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) SourcePath(key string) string {
	return filepath.Join(s.dir, key)
}

func (s *Store) TransformedPath(key string, tallestSide uint32, format domain.Format) string {
	return filepath.Join(s.dir, TransformedFilename(key, tallestSide, format))
}

// LookupTransformed reports whether a transformed blob already exists. Its
// presence alone is proof of a prior successful transform; no content
// verification happens.
func (s *Store) LookupTransformed(key string, tallestSide uint32, format domain.Format) bool {
	_, err := os.Stat(s.TransformedPath(key, tallestSide, format))
	return err == nil
}

// LookupSource reads a cached source blob. A missing blob is ErrMiss; a
// zero-length blob is corruption, never a valid cache entry.
func (s *Store) LookupSource(key string) ([]byte, error) {
	data, err := os.ReadFile(s.SourcePath(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrMiss
		}
		return nil, fault.New(fault.KindFileRead, fmt.Errorf("read source blob %s: %w", key, err))
	}
	if len(data) == 0 {
		return nil, fault.Errorf(fault.KindFileCorrupt, "source blob %s is empty", key)
	}
	return data, nil
}

// StoreSource persists downloaded source bytes under the key.
func (s *Store) StoreSource(key string, data []byte) error {
	return s.writeBlob(s.SourcePath(key), data)
}

// StoreTransformed persists encoded output bytes for a (key, size, format)
// triple.
func (s *Store) StoreTransformed(key string, tallestSide uint32, format domain.Format, data []byte) error {
	return s.writeBlob(s.TransformedPath(key, tallestSide, format), data)
}

// writeBlob is a whole-file create-then-write, not an atomic rename. A crash
// mid-write can leave a partial file; the store accepts that risk.
func (s *Store) writeBlob(path string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return fault.New(fault.KindFileCreation, fmt.Errorf("create blob %s: %w", path, err))
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fault.New(fault.KindFileWrite, fmt.Errorf("write blob %s: %w", path, err))
	}
	return nil
}
