package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/epeers/ownership/internal/models"
	log "github.com/sirupsen/logrus"
)

// ErrMiss is returned by a Store when no entry exists for a key
var ErrMiss = errors.New("cache miss")

// Store persists opaque cache entries by key. Implementations must make a
// Save visible atomically: a concurrent Load sees the old entry or the new
// one, never a partial write.
type Store interface {
	Load(key string) ([]byte, error)
	Save(key string, data []byte) error
	Delete(key string) error
}

// Payload is the envelope persisted for every cached parse result
type Payload struct {
	ParserVersion int             `json:"parser_version"`
	CacheTime     time.Time       `json:"cache_time"`
	Rows          json.RawMessage `json:"rows"`
}

// ResultCache caches per-accession parse results, invalidated by parser version.
// Each namespace (one per parser) carries its own current version.
type ResultCache struct {
	store    Store
	versions map[string]int

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewResultCache creates a result cache over store. versions maps each
// namespace to the current parser version; unknown namespaces are version 1.
func NewResultCache(store Store, versions map[string]int) *ResultCache {
	v := make(map[string]int, len(versions))
	for ns, n := range versions {
		v[ns] = n
	}
	return &ResultCache{
		store:    store,
		versions: v,
		locks:    make(map[string]*sync.Mutex),
	}
}

// cacheKey generates the storage key for an accession within a namespace
func cacheKey(namespace, accession string) string {
	return namespace + "/" + models.NormalizeAccession(accession)
}

// Version returns the current parser version for a namespace
func (c *ResultCache) Version(namespace string) int {
	if v, ok := c.versions[namespace]; ok {
		return v
	}
	return 1
}

// keyLock returns the mutex serializing writes to one key
func (c *ResultCache) keyLock(key string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[key]
	if !ok {
		l = &sync.Mutex{}
		c.locks[key] = l
	}
	return l
}

// Get returns the cached payload for an accession. Entries written by an older
// parser version are reported absent; unreadable entries are deleted and
// reported absent.
func (c *ResultCache) Get(namespace, accession string) (*Payload, bool) {
	key := cacheKey(namespace, accession)
	data, err := c.store.Load(key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			log.Warnf("cache: failed to load %s: %v", key, err)
		}
		return nil, false
	}

	var p Payload
	if err := json.Unmarshal(data, &p); err != nil || p.Rows == nil {
		c.heal(key, data)
		return nil, false
	}
	if p.ParserVersion < c.Version(namespace) {
		log.Debugf("cache: %s has parser version %d, current is %d", key, p.ParserVersion, c.Version(namespace))
		return nil, false
	}
	return &p, true
}

// GetInto decodes the cached rows for an accession into dest. A payload whose
// rows do not decode into dest is treated as corrupt.
func (c *ResultCache) GetInto(namespace, accession string, dest any) bool {
	p, ok := c.Get(namespace, accession)
	if !ok {
		return false
	}
	if err := json.Unmarshal(p.Rows, dest); err != nil {
		c.heal(cacheKey(namespace, accession), nil)
		return false
	}
	return true
}

// heal deletes a corrupt entry unless a writer replaced it in the meantime
func (c *ResultCache) heal(key string, seen []byte) {
	l := c.keyLock(key)
	l.Lock()
	defer l.Unlock()

	if seen != nil {
		current, err := c.store.Load(key)
		if err != nil || string(current) != string(seen) {
			return
		}
	}
	log.Warnf("cache: removing corrupt entry %s", key)
	if err := c.store.Delete(key); err != nil && !errors.Is(err, ErrMiss) {
		log.Errorf("cache: failed to remove corrupt entry %s: %v", key, err)
	}
}

// Set stores rows for an accession at the namespace's current parser version
func (c *ResultCache) Set(namespace, accession string, rows any) error {
	raw, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to marshal cache rows: %w", err)
	}
	data, err := json.Marshal(Payload{
		ParserVersion: c.Version(namespace),
		CacheTime:     time.Now().UTC(),
		Rows:          raw,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal cache payload: %w", err)
	}

	key := cacheKey(namespace, accession)
	l := c.keyLock(key)
	l.Lock()
	defer l.Unlock()

	if err := c.store.Save(key, data); err != nil {
		return fmt.Errorf("failed to save cache entry %s: %w", key, err)
	}
	return nil
}

// Invalidate removes the entry for an accession
func (c *ResultCache) Invalidate(namespace, accession string) error {
	key := cacheKey(namespace, accession)
	l := c.keyLock(key)
	l.Lock()
	defer l.Unlock()

	if err := c.store.Delete(key); err != nil && !errors.Is(err, ErrMiss) {
		return fmt.Errorf("failed to delete cache entry %s: %w", key, err)
	}
	return nil
}

// OpenStore opens the store for a configured backend ("file", "sqlite" or
// "memory") rooted at dir
func OpenStore(backend, dir string) (Store, error) {
	switch backend {
	case "", "file":
		return NewFileStore(dir)
	case "sqlite":
		return NewSQLiteStore(filepath.Join(dir, "results.db"))
	case "memory":
		return NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown cache backend %q", backend)
}
