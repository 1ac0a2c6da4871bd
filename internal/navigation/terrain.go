package navigation

import "github.com/nano/citypath/pkg/astar"

// Predicate decides whether a search may enter a cell holding the terrain.
type Predicate func(t astar.Terrain) bool

// DefaultPredicate lets agents move over empty ground, road-like cells and
// cells occupied by vehicles.
func DefaultPredicate(t astar.Terrain) bool {
	return t == astar.Empty || astar.IsRoadLike(t) || astar.IsVehicle(t)
}

// AllowSet builds a predicate accepting empty cells plus the listed terrain.
func AllowSet(allowed ...astar.Terrain) Predicate {
	set := make(map[astar.Terrain]struct{}, len(allowed))
	for _, t := range allowed {
		set[t] = struct{}{}
	}
	return func(t astar.Terrain) bool {
		if t == astar.Empty {
			return true
		}
		_, ok := set[t]
		return ok
	}
}

// BuildPassabilityMask evaluates pred on every cell and returns the 0/1 mask.
// A nil predicate uses DefaultPredicate.
func BuildPassabilityMask(g *Grid, pred Predicate) []uint8 {
	if pred == nil {
		pred = DefaultPredicate
	}
	mask := make([]uint8, len(g.cells))
	for i, t := range g.cells {
		if pred(t) {
			mask[i] = 1
		}
	}
	return mask
}
