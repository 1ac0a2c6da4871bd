package navigation

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/nano/citypath/pkg/astar"
	"github.com/nano/citypath/pkg/coord"
)

// MaxCachedPathLen is the exclusive upper bound on cached path length in cells.
const MaxCachedPathLen = 512

// CacheKey renders the query signature. Terrain is not part of the key: a
// cache is only valid for the grid in effect when it was populated.
func CacheKey(start, goal coord.Cell, rows, cols int) string {
	return fmt.Sprintf("%d_%d_%d_%d_%d_%d", start.R, start.C, goal.R, goal.C, rows, cols)
}

// PathCache memoizes found paths. Entries are written once and never mutated;
// values are cloned on the way in and on every hit.
type PathCache struct {
	mu     sync.RWMutex
	paths  map[string]astar.Result
	hits   int64
	misses int64
}

func NewPathCache() *PathCache {
	return &PathCache{paths: make(map[string]astar.Result)}
}

func (pc *PathCache) Get(key string) (astar.Result, bool) {
	pc.mu.RLock()
	res, ok := pc.paths[key]
	pc.mu.RUnlock()
	if !ok {
		atomic.AddInt64(&pc.misses, 1)
		return astar.Result{}, false
	}
	atomic.AddInt64(&pc.hits, 1)
	return res.Clone(), true
}

// Put stores res under key unless the key is present, the path was not found
// or it has MaxCachedPathLen cells or more. It reports whether res was stored.
func (pc *PathCache) Put(key string, res astar.Result) bool {
	if !res.Found || len(res.Path) >= MaxCachedPathLen {
		return false
	}
	pc.mu.Lock()
	defer pc.mu.Unlock()
	if _, ok := pc.paths[key]; ok {
		return false
	}
	pc.paths[key] = res.Clone()
	return true
}

func (pc *PathCache) Len() int {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return len(pc.paths)
}

func (pc *PathCache) Clear() {
	pc.mu.Lock()
	pc.paths = make(map[string]astar.Result)
	pc.mu.Unlock()
	atomic.StoreInt64(&pc.hits, 0)
	atomic.StoreInt64(&pc.misses, 0)
}

// CacheStats is a point-in-time view of a PathCache.
type CacheStats struct {
	Size   int   `json:"size"`
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

func (pc *PathCache) Stats() CacheStats {
	return CacheStats{
		Size:   pc.Len(),
		Hits:   atomic.LoadInt64(&pc.hits),
		Misses: atomic.LoadInt64(&pc.misses),
	}
}

func (s CacheStats) String() string {
	rate := 0.0
	if total := s.Hits + s.Misses; total > 0 {
		rate = float64(s.Hits) / float64(total) * 100
	}
	return fmt.Sprintf("PathCache[size=%d, hits=%d, misses=%d, hitRate=%.1f%%]", s.Size, s.Hits, s.Misses, rate)
}
