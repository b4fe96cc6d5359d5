package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"census/internal/summary"
)

// Digest keys a cached tree, normally the hash of the ingest root.
type Digest [32]byte

// KeyFor derives the cache key for an ingest root path.
func KeyFor(root string) Digest {
	return sha256.Sum256([]byte(filepath.ToSlash(filepath.Clean(root))))
}

// DiskCache stores summary trees by Digest on disk.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// OpenDiskCache initializes and returns a disk cache at the standard
// location.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// OpenDiskCacheAt uses an explicit directory, for tests and for callers
// that keep state next to their input.
func OpenDiskCacheAt(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) pathFor(key Digest) string {
	hexKey := hex.EncodeToString(key[:])
	// Subdirectory keeps the cache dir listable and easy to clear.
	return filepath.Join(c.dir, "trees", hexKey+".mp")
}

// Put serializes and writes a tree to the disk cache atomically.
func (c *DiskCache) Put(key Digest, g *summary.GlobalSummary) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		// Best-effort cleanup; gone already after a successful rename.
		_ = os.Remove(f.Name())
	}()

	enc := msgpack.NewEncoder(f)
	if err := enc.Encode(flatten(g)); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get reads a tree from the disk cache. A missing entry or a snapshot
// with a stale schema reports ok=false without error.
func (c *DiskCache) Get(key Digest) (*summary.GlobalSummary, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			panic(closeErr)
		}
	}()

	var p payload
	dec := msgpack.NewDecoder(f)
	if err := dec.Decode(&p); err != nil {
		return nil, false, fmt.Errorf("snapshot: cache decode: %w", err)
	}
	if p.Schema != snapshotSchemaVersion {
		return nil, false, nil
	}
	return rebuild(&p), true, nil
}

// DropAll invalidates the cache, useful after format changes.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		return err
	}
	return os.RemoveAll(old)
}
