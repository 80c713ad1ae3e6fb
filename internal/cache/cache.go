// Package cache persists a single snapshot of the liked-track
// collection between analysis requests.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jonjanego/spotify-library-curation/internal/analysis"
)

const (
	configDirName    = "spotify-library-curation"
	snapshotFileName = "library.json"

	// DefaultTTL is how long a snapshot counts as fresh.
	DefaultTTL = 1 * time.Hour
)

// Snapshot is one cached copy of the full liked-track collection.
type Snapshot struct {
	Entries   []analysis.LikedEntry `json:"entries"`
	FetchedAt time.Time             `json:"fetched_at"`
}

// SnapshotCache stores the latest library snapshot on disk. There is a
// single global snapshot; a stale snapshot and a missing one are
// indistinguishable to callers.
type SnapshotCache struct {
	mu   sync.Mutex
	path string
	ttl  time.Duration
	now  func() time.Time
	memo *Snapshot
}

// Option configures a SnapshotCache.
type Option func(*SnapshotCache)

// WithClock replaces the time source, so tests can age snapshots
// without sleeping.
func WithClock(now func() time.Time) Option {
	return func(c *SnapshotCache) {
		c.now = now
	}
}

// WithTTL overrides the freshness window.
func WithTTL(ttl time.Duration) Option {
	return func(c *SnapshotCache) {
		c.ttl = ttl
	}
}

// DefaultCache returns a SnapshotCache at the default location:
// ~/.config/spotify-library-curation/library.json
func DefaultCache(opts ...Option) (*SnapshotCache, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("getting user config dir: %w", err)
	}
	path := filepath.Join(configDir, configDirName, snapshotFileName)
	return New(path, opts...), nil
}

// New creates a SnapshotCache backed by the given file path.
func New(path string, opts ...Option) *SnapshotCache {
	c := &SnapshotCache{
		path: path,
		ttl:  DefaultTTL,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Path returns the file path where the snapshot is stored.
func (c *SnapshotCache) Path() string {
	return c.path
}

// Get returns the cached snapshot if one exists and is still fresh.
// The second return value is false on a miss, a stale snapshot, or an
// unreadable file.
func (c *SnapshotCache) Get() (*Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := c.memo
	if snap == nil {
		loaded, err := c.load()
		if err != nil || loaded == nil {
			return nil, false
		}
		c.memo = loaded
		snap = loaded
	}

	if c.now().Sub(snap.FetchedAt) > c.ttl {
		return nil, false
	}
	return snap, true
}

// Put replaces the snapshot with the given collection, stamped with the
// current time, and writes it to disk.
func (c *SnapshotCache) Put(entries []analysis.LikedEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := &Snapshot{
		Entries:   entries,
		FetchedAt: c.now(),
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	if err := os.WriteFile(c.path, data, 0600); err != nil {
		return fmt.Errorf("writing snapshot file: %w", err)
	}

	c.memo = snap
	return nil
}

// Invalidate discards the snapshot. Every successful write mutation
// must call this so the next analysis sees the change.
func (c *SnapshotCache) Invalidate() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.memo = nil
	err := os.Remove(c.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing snapshot file: %w", err)
	}
	return nil
}

// load reads the snapshot file from disk.
// Returns (nil, nil) if the file does not exist.
func (c *SnapshotCache) load() (*Snapshot, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading snapshot file: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing snapshot file: %w", err)
	}
	return &snap, nil
}
