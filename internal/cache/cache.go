package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// Entry is a cached review.
type Entry struct {
	Key       string    `json:"key"`
	Provider  string    `json:"provider"`
	Model     string    `json:"model"`
	Language  string    `json:"language"`
	Markdown  string    `json:"markdown"`
	CreatedAt time.Time `json:"createdAt"`
}

// Cache is a file-backed TTL cache of reviews. The zero value is a disabled
// cache.
type Cache struct {
	dir     string
	ttl     time.Duration
	enabled bool
	now     func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates a Cache rooted at dir. An empty dir selects the default cache
// directory; a ttlSeconds of 0 disables expiry.
func New(enabled bool, dir string, ttlSeconds int, opts ...Option) (*Cache, error) {
	c := &Cache{now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	if !enabled {
		return c, nil
	}
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	c.dir = dir
	c.ttl = time.Duration(ttlSeconds) * time.Second
	c.enabled = true
	return c, nil
}

// Get returns the entry stored under key. Expired entries are removed and
// reported as a miss.
func (c *Cache) Get(key string) (Entry, bool) {
	if c == nil || !c.enabled {
		return Entry{}, false
	}
	path := c.entryPath(key)
	entry, err := readEntry(path)
	if err != nil {
		return Entry{}, false
	}
	if c.expired(entry) {
		_ = os.Remove(path)
		return Entry{}, false
	}
	return entry, true
}

// Put stores entry under key, stamping Key and CreatedAt.
func (c *Cache) Put(key string, entry Entry) error {
	if c == nil || !c.enabled {
		return nil
	}
	entry.Key = key
	entry.CreatedAt = c.now().UTC()
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}

	tmp, err := os.CreateTemp(c.dir, ".entry-*.tmp")
	if err != nil {
		return fmt.Errorf("creating cache entry: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing cache entry: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.entryPath(key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("committing cache entry: %w", err)
	}
	return nil
}

// Clear removes all cache entries and returns how many were deleted.
func (c *Cache) Clear() (int, error) {
	return c.remove(func(Entry, error) bool { return true })
}

// Prune removes expired and unreadable entries.
func (c *Cache) Prune() (int, error) {
	return c.remove(func(e Entry, err error) bool { return err != nil || c.expired(e) })
}

func (c *Cache) remove(match func(Entry, error) bool) (int, error) {
	if c == nil || !c.enabled {
		return 0, nil
	}
	names, err := c.entryNames()
	if err != nil {
		return 0, err
	}
	var removed int
	for _, name := range names {
		path := filepath.Join(c.dir, name)
		if !match(readEntry(path)) {
			continue
		}
		if err := os.Remove(path); err == nil {
			removed++
		}
	}
	return removed, nil
}

// Stats summarises the cache directory.
type Stats struct {
	Dir        string `json:"dir"`
	Enabled    bool   `json:"enabled"`
	Entries    int    `json:"entries"`
	TotalBytes int64  `json:"totalBytes"`
	Expired    int    `json:"expired"`
}

// GetStats returns information about the cache.
func (c *Cache) GetStats() (Stats, error) {
	if c == nil || !c.enabled {
		return Stats{}, nil
	}
	stats := Stats{Dir: c.dir, Enabled: true}
	names, err := c.entryNames()
	if err != nil {
		return stats, err
	}
	for _, name := range names {
		path := filepath.Join(c.dir, name)
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		stats.Entries++
		stats.TotalBytes += info.Size()
		if entry, err := readEntry(path); err == nil && c.expired(entry) {
			stats.Expired++
		}
	}
	return stats, nil
}

// Dir returns the cache directory path.
func (c *Cache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

// Enabled reports whether caching is enabled.
func (c *Cache) Enabled() bool {
	return c != nil && c.enabled
}

// HashKey returns the hex SHA-256 of key material.
func HashKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:])
}

// BuildKey derives a cache key from the inputs that determine a review.
func BuildKey(provider, model, language, prompt string) string {
	return HashKey(strings.Join([]string{provider, model, language, prompt}, "\x00"))
}

// DefaultDir returns the OS-appropriate cache directory for critic.
func DefaultDir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "critic"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Caches", "critic"), nil
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, "critic", "cache"), nil
		}
		return filepath.Join(home, "AppData", "Local", "critic", "cache"), nil
	default:
		return filepath.Join(home, ".cache", "critic"), nil
	}
}

func (c *Cache) expired(e Entry) bool {
	return c.ttl > 0 && c.now().Sub(e.CreatedAt) > c.ttl
}

func (c *Cache) entryPath(key string) string {
	return filepath.Join(c.dir, HashKey(key)+".json")
}

func (c *Cache) entryNames() ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading cache directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

func readEntry(path string) (Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Entry{}, err
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return Entry{}, err
	}
	return entry, nil
}
