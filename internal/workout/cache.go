package workout

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type cachedWeights struct {
	weights  ExerciseWeights
	// found is false for names without history so that they aren't looked up again.
	found    bool
	storedAt time.Time
}

// weightCache remembers batch lookups by normalized name. Storage matches names regardless of case, so entries
// are keyed by the case-folded name. Concurrent lookups of the same names share one storage call, and results of
// a lookup that started before an invalidation are not stored. Entries expire after ttl so that writes by other
// processes show up eventually. A ttl of zero keeps entries until they are invalidated.
type weightCache struct {
	mu         sync.Mutex
	entries    map[string]cachedWeights
	generation uint64
	inFlight   singleflight.Group
	now        func() time.Time
	ttl        time.Duration
}

func newWeightCache(now func() time.Time, ttl time.Duration) *weightCache {
	return &weightCache{entries: make(map[string]cachedWeights), now: now, ttl: ttl}
}

// cacheKey folds ASCII letters only, like the NOCASE collation names are matched with.
func cacheKey(name string) string {
	return strings.Map(func(r rune) rune {
		if 'A' <= r && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}, name)
}

func (c *weightCache) fresh(entry cachedWeights, now time.Time) bool {
	return c.ttl <= 0 || now.Sub(entry.storedAt) < c.ttl
}

// fill copies cached names into result and returns the names that need a lookup.
func (c *weightCache) fill(names []string, result map[string]ExerciseWeights) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	var missing []string
	for _, name := range names {
		entry, ok := c.entries[cacheKey(name)]
		switch {
		case !ok || !c.fresh(entry, now):
			missing = append(missing, name)
		case entry.found:
			result[name] = entry.weights
		}
	}
	return missing
}

type fetchWeightsFunc func(ctx context.Context, names []string) (map[string]ExerciseWeights, error)

func (c *weightCache) load(ctx context.Context, names []string, fetch fetchWeightsFunc) (map[string]ExerciseWeights, error) {
	key := slices.Clone(names)
	slices.Sort(key)
	v, err, _ := c.inFlight.Do(strings.Join(key, "\x00"), func() (any, error) {
		c.mu.Lock()
		generation := c.generation
		c.mu.Unlock()

		fetched, err := fetch(ctx, names)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if generation == c.generation {
			storedAt := c.now()
			for _, name := range names {
				w, ok := fetched[name]
				c.entries[cacheKey(name)] = cachedWeights{weights: w, found: ok, storedAt: storedAt}
			}
		}
		return fetched, nil
	})
	if err != nil {
		return nil, err //nolint:wrapcheck // wrapped by the fetch function
	}
	return v.(map[string]ExerciseWeights), nil //nolint:forcetypeassert // only this type is stored
}

// invalidate forgets names in any letter case, typically after new sets for them were saved.
func (c *weightCache) invalidate(names ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	for _, name := range names {
		delete(c.entries, cacheKey(name))
	}
}
