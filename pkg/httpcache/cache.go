// Package httpcache caches successful GET responses from the victim feed,
// in memory with an optional gob snapshot on disk.
package httpcache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/maypok86/otter/v2"
)

const snapshotName = "rwtz-cache.gob"

// Entry is one cached response body.
type Entry struct {
	ExpiresAt time.Time
	ETag      string
	Data      []byte
}

// Cache is an otter-backed response cache. When dir is set the contents are
// loaded at start, saved periodically, and saved again on Close.
type Cache struct {
	cache      *otter.Cache[string, Entry]
	logger     *slog.Logger
	saveCancel context.CancelFunc
	dir        string
	saveWg     sync.WaitGroup
	ttl        time.Duration
	mu         sync.Mutex
}

// New creates a disk-backed cache in dir.
func New(ctx context.Context, dir string, ttl time.Duration, logger *slog.Logger) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	c := newCache(dir, ttl, logger)
	if err := c.loadFromDisk(); err != nil {
		logger.Warn("failed to load cache from disk", "error", err)
	}
	logger.Info("cache initialized", "dir", dir, "entries_loaded", c.cache.EstimatedSize())

	c.startPeriodicSave(ctx)
	return c, nil
}

// NewMemoryOnly creates a cache that never touches disk.
func NewMemoryOnly(ttl time.Duration, logger *slog.Logger) *Cache {
	return newCache("", ttl, logger)
}

func newCache(dir string, ttl time.Duration, logger *slog.Logger) *Cache {
	return &Cache{
		cache: otter.Must(&otter.Options[string, Entry]{
			MaximumSize:      10_000,
			InitialCapacity:  256,
			ExpiryCalculator: otter.ExpiryWriting[string, Entry](ttl),
		}),
		dir:    dir,
		ttl:    ttl,
		logger: logger,
	}
}

func key(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached body and ETag for url.
func (c *Cache) Get(url string) (data []byte, etag string, found bool) {
	k := key(url)
	entry, ok := c.cache.GetIfPresent(k)
	if !ok {
		c.logger.Debug("cache miss", "url", url)
		return nil, "", false
	}
	if time.Now().After(entry.ExpiresAt) {
		c.logger.Debug("cache miss", "url", url, "reason", "expired", "expired_at", entry.ExpiresAt)
		c.cache.Invalidate(k)
		return nil, "", false
	}
	return entry.Data, entry.ETag, true
}

// Set stores body for url until the cache TTL elapses.
func (c *Cache) Set(url string, data []byte, etag string) {
	entry := Entry{
		Data:      data,
		ETag:      etag,
		ExpiresAt: time.Now().Add(c.ttl),
	}
	c.cache.Set(key(url), entry)
	c.logger.Debug("cache set", "url", url, "expires_at", entry.ExpiresAt, "size", len(data))
}

// Len is the approximate number of cached entries.
func (c *Cache) Len() int {
	return c.cache.EstimatedSize()
}

func (c *Cache) loadFromDisk() error {
	path := filepath.Join(c.dir, snapshotName)
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			c.logger.Debug("no existing cache file found", "path", path)
			return nil
		}
		return fmt.Errorf("opening cache file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			c.logger.Debug("failed to close cache file", "error", err)
		}
	}()

	var entries map[string]Entry
	if err := gob.NewDecoder(file).Decode(&entries); err != nil {
		return fmt.Errorf("decoding cache file: %w", err)
	}

	now := time.Now()
	valid := 0
	for k, entry := range entries {
		if now.Before(entry.ExpiresAt) {
			c.cache.Set(k, entry)
			valid++
		}
	}
	c.logger.Debug("loaded cache from disk", "path", path, "total_entries", len(entries), "valid_entries", valid)
	return nil
}

func (c *Cache) saveToDisk() error {
	if c.dir == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	path := filepath.Join(c.dir, snapshotName)
	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating temp cache file: %w", err)
	}
	defer func() {
		if err := os.Remove(tmp); err != nil && !os.IsNotExist(err) {
			c.logger.Debug("failed to remove temp file", "error", err)
		}
	}()

	entries := make(map[string]Entry)
	now := time.Now()
	for k, entry := range c.cache.All() {
		if now.Before(entry.ExpiresAt) {
			entries[k] = entry
		}
	}

	if err := gob.NewEncoder(file).Encode(entries); err != nil {
		_ = file.Close() //nolint:errcheck // already failing
		return fmt.Errorf("encoding cache to file: %w", err)
	}
	if err := file.Sync(); err != nil {
		_ = file.Close() //nolint:errcheck // already failing
		return fmt.Errorf("syncing cache file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing cache file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing cache file: %w", err)
	}

	c.logger.Debug("cache saved to disk", "entries", len(entries), "path", path)
	return nil
}

func (c *Cache) startPeriodicSave(ctx context.Context) {
	saveCtx, cancel := context.WithCancel(ctx)
	c.saveCancel = cancel

	c.saveWg.Add(1)
	go func() {
		defer c.saveWg.Done()
		ticker := time.NewTicker(15 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-saveCtx.Done():
				return
			case <-ticker.C:
				if err := c.saveToDisk(); err != nil {
					c.logger.Error("periodic cache save failed", "error", err)
				}
			}
		}
	}()
}

// Close stops periodic saving and writes a final snapshot.
func (c *Cache) Close() error {
	if c.saveCancel != nil {
		c.saveCancel()
	}
	c.saveWg.Wait()
	if err := c.saveToDisk(); err != nil {
		return fmt.Errorf("final cache save: %w", err)
	}
	return nil
}

// HTTPClient is the subset of *http.Client used by Client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client serves GET requests from the cache and stores 200 responses.
// Other methods pass straight through.
type Client struct {
	cache      *Cache
	httpClient HTTPClient
	logger     *slog.Logger
}

// NewClient wraps httpClient. A nil cache disables caching.
func NewClient(cache *Cache, httpClient HTTPClient, logger *slog.Logger) *Client {
	return &Client{cache: cache, httpClient: httpClient, logger: logger}
}

// Do performs req, answering from the cache when possible. Cached responses
// carry an X-From-Cache header.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.cache == nil || req.Method != http.MethodGet {
		return c.httpClient.Do(req)
	}

	url := req.URL.String()
	if data, etag, found := c.cache.Get(url); found {
		resp := &http.Response{
			StatusCode: http.StatusOK,
			Status:     "200 OK",
			Body:       io.NopCloser(bytes.NewReader(data)),
			Header:     make(http.Header),
			Request:    req,
		}
		resp.Header.Set("X-From-Cache", "true")
		if etag != "" {
			resp.Header.Set("ETag", etag)
		}
		return resp, nil
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return resp, nil
	}

	body, err := io.ReadAll(resp.Body)
	if closeErr := resp.Body.Close(); closeErr != nil {
		c.logger.Debug("failed to close response body", "error", closeErr)
	}
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	c.cache.Set(url, body, resp.Header.Get("ETag"))
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}
