package cache

import (
	"errors"
	"fmt"
	"time"

	"augments/internal/apperr"
	"augments/internal/artifact"
)

// Stater is the slice of the store the cache needs to validate entries.
type Stater interface {
	Stat(path string) (artifact.Artifact, error)
}

// Cache is the validated lookup layer over the index. A lookup only hits
// when the index has the key, the referenced artifact still exists on
// disk, and (when MaxAge > 0) the artifact is younger than MaxAge.
//
// The cache holds weak references: artifact lifetime belongs to the store
// and the eviction sweep, never to the index. There is no request
// coalescing; racing callers may regenerate the same artifact redundantly
// and the last Put wins.
type Cache struct {
	index *Index
	store Stater

	// MaxAge is the staleness bound. Zero means entries never go stale.
	MaxAge time.Duration
}

// New builds a Cache over the index and store.
func New(ix *Index, store Stater) *Cache {
	return &Cache{index: ix, store: store}
}

// WithMaxAge returns a view of the cache with an operation-specific
// staleness bound.
func (c *Cache) WithMaxAge(d time.Duration) *Cache {
	return &Cache{index: c.index, store: c.store, MaxAge: d}
}

// Lookup returns the cached artifact for key, or (nil, nil) on a miss.
// A miss is silent: the caller proceeds to acquisition and must Put the
// fresh artifact afterwards. Dead index rows (artifact gone from disk,
// or past the staleness bound) are dropped on the way out.
func (c *Cache) Lookup(key string) (*artifact.Artifact, error) {
	e, err := c.index.Get(key)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, nil
	}

	a, err := c.store.Stat(e.Path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			_ = c.index.Delete(key)
			return nil, nil
		}
		return nil, err
	}
	if c.MaxAge > 0 && a.Age(time.Now()) > c.MaxAge {
		_ = c.index.Delete(key)
		return nil, nil
	}

	a.Checksum = e.Checksum
	return &a, nil
}

// Put records key → artifact in the index.
func (c *Cache) Put(key string, a artifact.Artifact) error {
	if a.Path == "" {
		return fmt.Errorf("cache: artifact for %s has no path", key)
	}
	return c.index.Put(Entry{
		SourceKey: key,
		Category:  string(a.Category),
		Name:      a.Name,
		Path:      a.Path,
		Checksum:  a.Checksum,
		CreatedAt: a.CreatedAt,
	})
}
