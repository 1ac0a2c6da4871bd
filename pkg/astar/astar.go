package astar

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/nano/citypath/pkg/coord"
	"github.com/nano/citypath/pkg/errutil"
)

// ctxPollInterval is how many expansions run between context checks.
const ctxPollInterval = 256

// Problem is one self-contained search input: grid dimensions, a 0/1
// passability mask and an optional per-cell weight buffer, all row-major.
// A nil Weights means every cell weighs 1.
type Problem struct {
	Rows     int
	Cols     int
	Passable []uint8
	Weights  []float64
}

// Validate checks dimensions and buffer sizes.
func (p *Problem) Validate() error {
	if p.Rows <= 0 || p.Cols <= 0 {
		return fmt.Errorf("%w: %dx%d", errutil.ErrInvalidDimensions, p.Rows, p.Cols)
	}
	// cells are indexed with int32
	if int64(p.Rows)*int64(p.Cols) > math.MaxInt32 {
		return fmt.Errorf("%w: %dx%d exceeds %d cells", errutil.ErrInvalidDimensions, p.Rows, p.Cols, math.MaxInt32)
	}
	n := p.Rows * p.Cols
	if len(p.Passable) != n {
		return fmt.Errorf("%w: mask %d, grid %d", errutil.ErrMaskSize, len(p.Passable), n)
	}
	if p.Weights != nil {
		if len(p.Weights) != n {
			return fmt.Errorf("%w: weights %d, grid %d", errutil.ErrMaskSize, len(p.Weights), n)
		}
		for i, w := range p.Weights {
			if !validWeight(w) {
				return fmt.Errorf("%w: cell %d weight %v", errutil.ErrInvalidWeight, i, w)
			}
		}
	}
	return nil
}

// CheckCell rejects a cell outside the problem's grid.
func (p *Problem) CheckCell(c coord.Cell) error {
	if !c.In(p.Rows, p.Cols) {
		return fmt.Errorf("%w: %v not in %dx%d", errutil.ErrOutOfBounds, c, p.Rows, p.Cols)
	}
	return nil
}

func (p *Problem) weight(i int32) float64 {
	if p.Weights == nil {
		return 1
	}
	return p.Weights[i]
}

// Result is the outcome of a search. Found is false when the goal is unreachable.
type Result struct {
	Path     []coord.Cell `json:"path"`
	Cost     float64      `json:"cost"`
	Expanded int          `json:"expanded"`
	Found    bool         `json:"found"`
}

// Clone returns a copy of r whose path shares no memory with r.
func (r Result) Clone() Result {
	r.Path = coord.ClonePath(r.Path)
	return r
}

// Options defines parameters for an Engine.
type Options struct {
	Movement  Movement
	Frontier  FrontierKind
	Heuristic *Heuristic
}

// Option is a function that modifies Options.
type Option func(*Options)

func WithMovement(m Movement) Option {
	return func(o *Options) { o.Movement = m }
}

func WithFrontier(k FrontierKind) Option {
	return func(o *Options) { o.Frontier = k }
}

// WithHeuristic overrides the default unit-scale heuristic for the movement.
func WithHeuristic(h Heuristic) Option {
	return func(o *Options) { o.Heuristic = &h }
}

type step struct {
	dr, dc int
	cost   float64
}

var (
	orthogonalSteps = []step{{-1, 0, OrthogonalCost}, {1, 0, OrthogonalCost}, {0, -1, OrthogonalCost}, {0, 1, OrthogonalCost}}
	allSteps        = append(append([]step{}, orthogonalSteps...),
		step{-1, -1, DiagonalCost}, step{-1, 1, DiagonalCost}, step{1, -1, DiagonalCost}, step{1, 1, DiagonalCost})
)

type searchState struct {
	g      []float64
	came   []int32
	closed []bool
}

func (s *searchState) clean(n int) {
	if cap(s.g) < n {
		s.g = make([]float64, n)
		s.came = make([]int32, n)
		s.closed = make([]bool, n)
	}
	s.g = s.g[:n]
	s.came = s.came[:n]
	s.closed = s.closed[:n]
	inf := math.Inf(1)
	for i := 0; i < n; i++ {
		s.g[i] = inf
		s.came[i] = -1
		s.closed[i] = false
	}
}

// Engine runs A* over Problems. It is safe for concurrent use; per-search
// state is pooled.
type Engine struct {
	movement  Movement
	frontier  FrontierKind
	heuristic Heuristic
	steps     []step
	pool      sync.Pool
}

// NewEngine validates the options. A heuristic built for a different movement
// mode is rejected.
func NewEngine(options ...Option) (*Engine, error) {
	opts := Options{Movement: EightWay, Frontier: FrontierAuto}
	for _, o := range options {
		o(&opts)
	}
	if !opts.Movement.Valid() {
		return nil, fmt.Errorf("%w: %d", errutil.ErrInvalidMovement, opts.Movement)
	}
	h := NewHeuristic(opts.Movement, 1)
	if opts.Heuristic != nil {
		if opts.Heuristic.Movement != opts.Movement {
			return nil, fmt.Errorf("%w: heuristic %d, engine %d",
				errutil.ErrHeuristicMismatch, opts.Heuristic.Movement, opts.Movement)
		}
		h = NewHeuristic(opts.Heuristic.Movement, opts.Heuristic.Scale)
	}
	e := &Engine{
		movement:  opts.Movement,
		frontier:  opts.Frontier,
		heuristic: h,
		steps:     orthogonalSteps,
	}
	if e.movement == EightWay {
		e.steps = allSteps
	}
	e.pool.New = func() any { return &searchState{} }
	return e, nil
}

func (e *Engine) Movement() Movement { return e.movement }

func (e *Engine) Heuristic() Heuristic { return e.heuristic }

func (e *Engine) FrontierKind() FrontierKind { return e.frontier }

// Search finds a minimum-cost path from start to goal. An unreachable goal is
// reported with Found == false and a nil error; errors are reserved for
// invalid input and context cancellation.
//
// The start cell is expanded even when impassable and the goal cell may be
// entered even when impassable; every other cell must be passable.
func (e *Engine) Search(ctx context.Context, p *Problem, start, goal coord.Cell) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, err
	}
	if err := p.CheckCell(start); err != nil {
		return Result{}, err
	}
	if err := p.CheckCell(goal); err != nil {
		return Result{}, err
	}
	if start == goal {
		return Result{Path: []coord.Cell{start}, Found: true}, nil
	}

	n := p.Rows * p.Cols
	st := e.pool.Get().(*searchState)
	defer e.pool.Put(st)
	st.clean(n)

	open := newFrontier(e.frontier, n)
	s := int32(start.Index(p.Cols))
	t := int32(goal.Index(p.Cols))
	st.g[s] = 0
	open.Push(s, e.heuristic.Estimate(start, goal))

	expanded := 0
	for open.Len() > 0 {
		cur, _ := open.Pop()
		if st.closed[cur] {
			continue
		}
		if cur == t {
			return Result{
				Path:     reconstructPath(st.came, t, s, p.Cols),
				Cost:     st.g[t],
				Expanded: expanded,
				Found:    true,
			}, nil
		}
		st.closed[cur] = true
		expanded++
		if expanded%ctxPollInterval == 0 {
			if err := ctx.Err(); err != nil {
				return Result{Expanded: expanded}, err
			}
		}

		cr, cc := int(cur)/p.Cols, int(cur)%p.Cols
		for _, d := range e.steps {
			nr, nc := cr+d.dr, cc+d.dc
			if nr < 0 || nr >= p.Rows || nc < 0 || nc >= p.Cols {
				continue
			}
			ni := int32(nr*p.Cols + nc)
			if st.closed[ni] {
				continue
			}
			if ni != t && p.Passable[ni] == 0 {
				continue
			}
			tentative := st.g[cur] + d.cost*p.weight(ni)
			if tentative < st.g[ni] {
				st.g[ni] = tentative
				st.came[ni] = cur
				open.Push(ni, tentative+e.heuristic.Estimate(coord.Cell{R: nr, C: nc}, goal))
			}
		}
	}
	return Result{Expanded: expanded}, nil
}

func reconstructPath(came []int32, current, start int32, cols int) []coord.Cell {
	path := []coord.Cell{coord.FromIndex(int(current), cols)}
	for current != start {
		prev := came[current]
		if prev < 0 {
			break
		}
		path = append(path, coord.FromIndex(int(prev), cols))
		current = prev
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// PathCost sums the step costs of path under the problem's weights.
func PathCost(p *Problem, path []coord.Cell) float64 {
	total := 0.0
	for i := 1; i < len(path); i++ {
		a, b := path[i-1], path[i]
		total += BaseCost(a.R, a.C, b.R, b.C) * p.weight(int32(b.Index(p.Cols)))
	}
	return total
}
