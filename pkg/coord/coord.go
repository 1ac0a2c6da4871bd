package coord

import "fmt"

// Cell addresses one grid cell by row and column.
type Cell struct {
	R int `json:"r"`
	C int `json:"c"`
}

func New(r, c int) Cell {
	return Cell{R: r, C: c}
}

// FromIndex is the inverse of Index for a grid with the given column count.
func FromIndex(idx, cols int) Cell {
	return Cell{R: idx / cols, C: idx % cols}
}

// Index returns the row-major offset r*cols + c.
func (c Cell) Index(cols int) int {
	return c.R*cols + c.C
}

func (c Cell) In(rows, cols int) bool {
	return c.R >= 0 && c.R < rows && c.C >= 0 && c.C < cols
}

// IsDiagonal reports whether a single step from c to o changes both row and column.
func (c Cell) IsDiagonal(o Cell) bool {
	return c.R != o.R && c.C != o.C
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.R, c.C)
}

// ClonePath returns a copy of p that shares no memory with it.
func ClonePath(p []Cell) []Cell {
	if p == nil {
		return nil
	}
	out := make([]Cell, len(p))
	copy(out, p)
	return out
}
