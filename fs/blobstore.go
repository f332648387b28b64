// Package fs provides content-addressed file storage for downloaded
// documents.
package fs

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fwojciec/docdex"
)

// Ensure BlobStore implements docdex.BlobStore at compile time.
var _ docdex.BlobStore = (*BlobStore)(nil)

// BlobStore stores blobs under baseDir keyed by content hash, fanned out as
// ab/cd/<hash><ext> to avoid huge single directories. Writes go through a
// temporary file and a rename, so a blob is either fully present or absent.
type BlobStore struct {
	baseDir string
}

// NewBlobStore creates a BlobStore rooted at baseDir. The directory is
// created on first write.
func NewBlobStore(baseDir string) *BlobStore {
	return &BlobStore{baseDir: baseDir}
}

// Hash returns the hex sha256 of data: the content address used as
// document ID.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Put stores data under its content hash. If the blob already exists its
// path is returned unchanged and nothing is rewritten: at most one stored
// copy exists per distinct content.
func (s *BlobStore) Put(id, ext string, data []byte) (string, bool, error) {
	if len(id) < 4 {
		return "", false, docdex.Errorf(docdex.EINVALID, "blob ID %q too short", id)
	}

	path := s.blobPath(id, ext)
	if _, err := os.Stat(path); err == nil {
		return path, true, nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", false, fmt.Errorf("create blob dir: %w", err)
	}

	// Temp file in the destination directory so the rename cannot cross
	// filesystems.
	tmp, err := os.CreateTemp(dir, "."+id[:8]+".part-")
	if err != nil {
		return "", false, fmt.Errorf("create temp blob: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", false, fmt.Errorf("write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", false, fmt.Errorf("close blob: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", false, fmt.Errorf("commit blob: %w", err)
	}

	return path, false, nil
}

// Has reports whether a blob with the given content hash exists.
func (s *BlobStore) Has(id, ext string) bool {
	if len(id) < 4 {
		return false
	}
	_, err := os.Stat(s.blobPath(id, ext))
	return err == nil
}

func (s *BlobStore) blobPath(id, ext string) string {
	return filepath.Join(s.baseDir, id[:2], id[2:4], id+ext)
}
