package astar

// Frontier is the open set of one search. Pop returns the entry with the
// smallest f; among equal f the entry pushed first wins, so every
// implementation pops the same sequence for the same pushes.
type Frontier interface {
	Push(node int32, f float64)
	Pop() (int32, bool)
	Len() int
	Reset()
}

// FrontierKind selects a Frontier implementation.
type FrontierKind uint8

const (
	FrontierAuto FrontierKind = iota
	FrontierLinear
	FrontierHeap
)

// LinearFrontierMaxCells is the largest grid FrontierAuto serves with a linear scan.
const LinearFrontierMaxCells = 1024

func ParseFrontierKind(s string) (FrontierKind, bool) {
	switch s {
	case "", "auto":
		return FrontierAuto, true
	case "linear":
		return FrontierLinear, true
	case "heap":
		return FrontierHeap, true
	}
	return FrontierAuto, false
}

func (k FrontierKind) String() string {
	switch k {
	case FrontierLinear:
		return "linear"
	case FrontierHeap:
		return "heap"
	}
	return "auto"
}

// Resolve maps FrontierAuto to a concrete kind for a grid of the given size.
func (k FrontierKind) Resolve(cells int) FrontierKind {
	if k != FrontierAuto {
		return k
	}
	if cells <= LinearFrontierMaxCells {
		return FrontierLinear
	}
	return FrontierHeap
}

func newFrontier(k FrontierKind, cells int) Frontier {
	if k.Resolve(cells) == FrontierLinear {
		return &LinearFrontier{}
	}
	return NewHeapFrontier(64)
}

type frontierEntry struct {
	node int32
	f    float64
	seq  uint32
}

// LinearFrontier keeps entries unordered in insertion order and scans for the
// minimum on every Pop. Cheap for tiny grids.
type LinearFrontier struct {
	items []frontierEntry
}

func (l *LinearFrontier) Push(node int32, f float64) {
	l.items = append(l.items, frontierEntry{node: node, f: f})
}

func (l *LinearFrontier) Pop() (int32, bool) {
	if len(l.items) == 0 {
		return -1, false
	}
	best := 0
	for i := 1; i < len(l.items); i++ {
		if l.items[i].f < l.items[best].f {
			best = i
		}
	}
	node := l.items[best].node
	// keep insertion order for the tie-break
	copy(l.items[best:], l.items[best+1:])
	l.items = l.items[:len(l.items)-1]
	return node, true
}

func (l *LinearFrontier) Len() int { return len(l.items) }

func (l *LinearFrontier) Reset() { l.items = l.items[:0] }
