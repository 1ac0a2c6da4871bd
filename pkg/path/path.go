package path

import "github.com/nano/citypath/pkg/coord"

// PointPath is one pre-computed route between two cells.
type PointPath struct {
	Start coord.Cell   `json:"start"`
	Goal  coord.Cell   `json:"goal"`
	Cost  float64      `json:"cost"`
	Paths []coord.Cell `json:"paths"`
}

// SerialPaths is a chain of routes where each goal is the next start.
type SerialPaths struct {
	Id    int         `json:"id"`
	Paths []PointPath `json:"paths"`
}

// Len returns the number of cells across all routes of the chain.
func (s *SerialPaths) Len() int {
	n := 0
	for _, p := range s.Paths {
		n += len(p.Paths)
	}
	return n
}
