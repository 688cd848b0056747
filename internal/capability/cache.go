package capability

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	bucketCapabilities = "capabilities"
	keyCurrent         = "current"

	// DefaultTTL matches the original Rust pt-core/capabilities module's
	// cache lifetime.
	DefaultTTL = 24 * time.Hour
)

type cachedEntry struct {
	Capabilities Capabilities `json:"capabilities"`
	ExpiresAt    int64        `json:"expires_at_unix"`
}

// Cache is a bbolt-backed, single-writer TTL cache of detected
// Capabilities (spec §4.J "TTL cache backed by bbolt"). Reads after load
// never touch bbolt: Get returns the in-memory handle, and Refresh swaps
// it atomically, so concurrent readers never observe a torn value (spec
// §5 "Capability cache is read-only after load; refresh replaces the
// in-memory handle atomically").
type Cache struct {
	db  *bolt.DB
	ttl time.Duration

	handle atomic.Pointer[Capabilities]
}

// OpenCache opens (or creates) the bbolt database at path and loads any
// unexpired cached Capabilities into the in-memory handle. If the cache
// is empty, expired, or absent, the in-memory handle starts nil and the
// caller should call Refresh before first use.
func OpenCache(path string, ttl time.Duration, now time.Time) (*Cache, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening capability cache: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketCapabilities))
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing capability cache: %w", err)
	}

	c := &Cache{db: db, ttl: ttl}
	entry, ok, err := c.load()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if ok && entry.ExpiresAt > now.Unix() {
		caps := entry.Capabilities
		c.handle.Store(&caps)
	}
	return c, nil
}

// Close closes the underlying database file.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the current in-memory Capabilities handle, or ok=false if
// nothing has been loaded or refreshed yet.
func (c *Cache) Get() (Capabilities, bool) {
	p := c.handle.Load()
	if p == nil {
		return Capabilities{}, false
	}
	return *p, true
}

// Refresh re-detects Capabilities, persists them with a fresh TTL, and
// atomically swaps the in-memory handle. Concurrent Get calls always see
// either the old or the new value, never a partial one.
func (c *Cache) Refresh(now time.Time) (Capabilities, error) {
	caps := Detect(now.Unix())
	entry := cachedEntry{Capabilities: caps, ExpiresAt: now.Add(c.ttl).Unix()}
	if err := c.save(entry); err != nil {
		return Capabilities{}, err
	}
	c.handle.Store(&caps)
	return caps, nil
}

func (c *Cache) load() (cachedEntry, bool, error) {
	var entry cachedEntry
	var found bool
	err := c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketCapabilities))
		raw := b.Get([]byte(keyCurrent))
		if raw == nil {
			return nil
		}
		found = true
		return json.Unmarshal(raw, &entry)
	})
	if err != nil {
		return cachedEntry{}, false, fmt.Errorf("loading capability cache: %w", err)
	}
	return entry, found, nil
}

func (c *Cache) save(entry cachedEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling capability cache entry: %w", err)
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketCapabilities))
		return b.Put([]byte(keyCurrent), raw)
	})
}
