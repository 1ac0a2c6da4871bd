package navigation

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math/rand"
	"strings"

	"github.com/nano/citypath/pkg/astar"
	"github.com/nano/citypath/pkg/coord"
	"github.com/nano/citypath/pkg/errutil"
)

// maxGridSide bounds each dimension; the file header stores them as uint16.
const maxGridSide = 1<<16 - 1

type terrainCode struct {
	terrain astar.Terrain
	code    byte
	glyph   byte
}

var terrainCodes = []terrainCode{
	{astar.Empty, 0, '.'},
	{astar.Road, 1, 'R'},
	{astar.Bridge, 2, '='},
	{astar.Crossing, 3, '+'},
	{astar.Park, 4, 'P'},
	{astar.Tree, 5, 'T'},
	{astar.Grass, 6, 'G'},
	{astar.Industrial, 7, 'I'},
	{astar.Building, 8, 'B'},
	{astar.Factory, 9, 'F'},
	{astar.Vehicle, 10, 'V'},
	{astar.Car, 11, 'C'},
	{astar.Bus, 12, 'U'},
	{astar.Water, 13, '#'},
}

func terrainByCode(code byte) (astar.Terrain, bool) {
	for _, tc := range terrainCodes {
		if tc.code == code {
			return tc.terrain, true
		}
	}
	return astar.Empty, false
}

func terrainByGlyph(g byte) (astar.Terrain, bool) {
	for _, tc := range terrainCodes {
		if tc.glyph == g {
			return tc.terrain, true
		}
	}
	return astar.Empty, false
}

func codeOf(t astar.Terrain) (terrainCode, bool) {
	for _, tc := range terrainCodes {
		if tc.terrain == t {
			return tc, true
		}
	}
	return terrainCode{}, false
}

// Grid is a row-major terrain map. The owner may edit it freely; a PathFinder
// works on its own clone.
type Grid struct {
	rows  int
	cols  int
	cells []astar.Terrain
}

// NewGrid copies cells into a rows×cols grid. A nil cells slice yields an
// empty grid.
func NewGrid(rows, cols int, cells []astar.Terrain) (*Grid, error) {
	if rows <= 0 || cols <= 0 || rows > maxGridSide || cols > maxGridSide {
		return nil, fmt.Errorf("%w: %dx%d", errutil.ErrInvalidDimensions, rows, cols)
	}
	g := &Grid{rows: rows, cols: cols, cells: make([]astar.Terrain, rows*cols)}
	if cells != nil {
		if len(cells) != rows*cols {
			return nil, fmt.Errorf("%w: %d cells for %dx%d", errutil.ErrMaskSize, len(cells), rows, cols)
		}
		copy(g.cells, cells)
	}
	return g, nil
}

// ParseGrid reads one string per row using the single-byte glyph table
// ('.' empty, 'R' road, '#' water, ...).
func ParseGrid(lines []string) (*Grid, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: no rows", errutil.ErrInvalidDimensions)
	}
	cols := len(lines[0])
	cells := make([]astar.Terrain, 0, len(lines)*cols)
	for r, line := range lines {
		if len(line) != cols {
			return nil, fmt.Errorf("%w: row %d has %d cols, want %d", errutil.ErrInvalidParameter, r, len(line), cols)
		}
		for c := 0; c < cols; c++ {
			t, ok := terrainByGlyph(line[c])
			if !ok {
				return nil, fmt.Errorf("%w: unknown glyph %q at (%d,%d)", errutil.ErrInvalidParameter, line[c], r, c)
			}
			cells = append(cells, t)
		}
	}
	return NewGrid(len(lines), cols, cells)
}

func (g *Grid) Rows() int { return g.rows }

func (g *Grid) Cols() int { return g.cols }

func (g *Grid) Len() int { return len(g.cells) }

func (g *Grid) In(c coord.Cell) bool { return c.In(g.rows, g.cols) }

// At returns the terrain at c, or Empty and false when c is outside the grid.
func (g *Grid) At(c coord.Cell) (astar.Terrain, bool) {
	if !g.In(c) {
		return astar.Empty, false
	}
	return g.cells[c.Index(g.cols)], true
}

func (g *Grid) Set(c coord.Cell, t astar.Terrain) error {
	if !g.In(c) {
		return fmt.Errorf("%w: %v not in %dx%d", errutil.ErrOutOfBounds, c, g.rows, g.cols)
	}
	g.cells[c.Index(g.cols)] = t
	return nil
}

// Cells returns a copy of the row-major terrain values.
func (g *Grid) Cells() []astar.Terrain {
	out := make([]astar.Terrain, len(g.cells))
	copy(out, g.cells)
	return out
}

func (g *Grid) Clone() *Grid {
	return &Grid{rows: g.rows, cols: g.cols, cells: g.Cells()}
}

// Lines renders the grid with the glyph table; unknown terrain renders as '?'.
func (g *Grid) Lines() []string {
	out := make([]string, g.rows)
	var sb strings.Builder
	for r := 0; r < g.rows; r++ {
		sb.Reset()
		for c := 0; c < g.cols; c++ {
			tc, ok := codeOf(g.cells[r*g.cols+c])
			if !ok {
				sb.WriteByte('?')
				continue
			}
			sb.WriteByte(tc.glyph)
		}
		out[r] = sb.String()
	}
	return out
}

func (g *Grid) String() string {
	return strings.Join(g.Lines(), "\n")
}

// ReadFrom decodes the .grid format: big-endian uint16 cols, uint16 rows, then
// one terrain code byte per cell in row-major order.
func (g *Grid) ReadFrom(r io.Reader) (int64, error) {
	var header struct {
		Cols uint16
		Rows uint16
	}
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return 0, fmt.Errorf("read grid header: %w", err)
	}
	read := int64(binary.Size(header))
	if header.Cols == 0 || header.Rows == 0 {
		return read, fmt.Errorf("%w: %dx%d", errutil.ErrInvalidDimensions, header.Rows, header.Cols)
	}
	raw := make([]byte, int(header.Cols)*int(header.Rows))
	n, err := io.ReadFull(r, raw)
	read += int64(n)
	if err != nil {
		return read, fmt.Errorf("read grid cells: %w", err)
	}
	cells := make([]astar.Terrain, len(raw))
	for i, b := range raw {
		t, ok := terrainByCode(b)
		if !ok {
			return read, fmt.Errorf("%w: terrain code %d at cell %d", errutil.ErrInvalidParameter, b, i)
		}
		cells[i] = t
	}
	g.rows, g.cols, g.cells = int(header.Rows), int(header.Cols), cells
	return read, nil
}

// WriteTo encodes the grid in the .grid format.
func (g *Grid) WriteTo(w io.Writer) (int64, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 4+len(g.cells)))
	_ = binary.Write(buf, binary.BigEndian, uint16(g.cols))
	_ = binary.Write(buf, binary.BigEndian, uint16(g.rows))
	for i, t := range g.cells {
		tc, ok := codeOf(t)
		if !ok {
			return 0, fmt.Errorf("%w: terrain %q at cell %d has no file code", errutil.ErrInvalidParameter, t, i)
		}
		buf.WriteByte(tc.code)
	}
	return buf.WriteTo(w)
}

// LoadGrid decodes a .grid buffer.
func LoadGrid(buf []byte) (*Grid, error) {
	g := &Grid{}
	if _, err := g.ReadFrom(bytes.NewReader(buf)); err != nil {
		return nil, err
	}
	return g, nil
}

// RandomCell samples up to tries cells in the inclusive rectangle [from, to],
// clipped to the grid, and returns the first one accepted by pred.
func (g *Grid) RandomCell(rng *rand.Rand, from, to coord.Cell, pred Predicate, tries int) (coord.Cell, error) {
	r0, r1 := clamp(min(from.R, to.R), 0, g.rows-1), clamp(max(from.R, to.R), 0, g.rows-1)
	c0, c1 := clamp(min(from.C, to.C), 0, g.cols-1), clamp(max(from.C, to.C), 0, g.cols-1)
	for i := 0; i < tries; i++ {
		c := coord.New(r0+rng.Intn(r1-r0+1), c0+rng.Intn(c1-c0+1))
		if pred == nil || pred(g.cells[c.Index(g.cols)]) {
			return c, nil
		}
	}
	return coord.Cell{}, fmt.Errorf("%w: no accepted cell in %v..%v after %d tries", errutil.ErrNotFound, from, to, tries)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ParseTerrain accepts a terrain name ("road") or its single-glyph form ("R").
// "" and "empty" both mean no terrain.
func ParseTerrain(s string) (astar.Terrain, bool) {
	if s == "empty" {
		return astar.Empty, true
	}
	if len(s) == 1 {
		return terrainByGlyph(s[0])
	}
	t := astar.Terrain(s)
	_, ok := codeOf(t)
	return t, ok
}
