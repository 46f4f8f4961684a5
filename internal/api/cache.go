package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tidwall/buntdb"
)

// Cache holds recent crack results in an in-memory buntdb store. Entries
// expire after the configured TTL; a zero TTL keeps them until Close.
type Cache struct {
	db  *buntdb.DB
	ttl time.Duration
}

// OpenCache opens an empty in-memory cache.
func OpenCache(ttl time.Duration) (*Cache, error) {
	db, err := buntdb.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	return &Cache{db: db, ttl: ttl}, nil
}

// cacheKey identifies the result for a checksum and verification mode.
func cacheKey(sum uint32, verify bool) string {
	return fmt.Sprintf("crack:%08x:%t", sum, verify)
}

// Get returns the cached candidates for key, if present and unexpired.
func (c *Cache) Get(key string) ([]Candidate, bool, error) {
	var value string
	err := c.db.View(func(tx *buntdb.Tx) error {
		v, err := tx.Get(key)
		if err != nil {
			return err
		}
		value = v
		return nil
	})
	if errors.Is(err, buntdb.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache: %w", err)
	}

	var candidates []Candidate
	if err := json.Unmarshal([]byte(value), &candidates); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached candidates: %w", err)
	}
	return candidates, true, nil
}

// Put stores candidates under key.
func (c *Cache) Put(key string, candidates []Candidate) error {
	data, err := json.Marshal(candidates)
	if err != nil {
		return fmt.Errorf("failed to encode candidates: %w", err)
	}

	var opts *buntdb.SetOptions
	if c.ttl > 0 {
		opts = &buntdb.SetOptions{Expires: true, TTL: c.ttl}
	}
	return c.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(key, string(data), opts)
		return err
	})
}

// Len reports the number of cached entries, including any that have
// expired but not yet been evicted.
func (c *Cache) Len() (int, error) {
	var n int
	err := c.db.View(func(tx *buntdb.Tx) error {
		var err error
		n, err = tx.Len()
		return err
	})
	return n, err
}

// Close releases the cache.
func (c *Cache) Close() error {
	return c.db.Close()
}
