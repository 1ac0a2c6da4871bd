package editor

import (
	"fmt"

	"github.com/nano/citypath/internal/navigation"
	"github.com/nano/citypath/pkg/astar"
	"github.com/nano/citypath/pkg/coord"
	"github.com/nano/citypath/pkg/errutil"
)

// DefaultHistoryLimit is the number of actions kept before the oldest are
// folded into the base grid.
const DefaultHistoryLimit = 256

type ActionKind uint8

const (
	// ActionPaint sets a single cell.
	ActionPaint ActionKind = iota
	// ActionFill sets every cell of the inclusive rectangle [From, To].
	ActionFill
)

func (k ActionKind) String() string {
	if k == ActionFill {
		return "fill"
	}
	return "paint"
}

type Action struct {
	Kind    ActionKind
	From    coord.Cell
	To      coord.Cell
	Terrain astar.Terrain
}

// Paint returns an action setting c to t.
func Paint(c coord.Cell, t astar.Terrain) Action {
	return Action{Kind: ActionPaint, From: c, To: c, Terrain: t}
}

// Fill returns an action setting the rectangle spanned by a and b to t.
func Fill(a, b coord.Cell, t astar.Terrain) Action {
	return Action{Kind: ActionFill, From: a, To: b, Terrain: t}
}

func (a Action) apply(g *navigation.Grid) error {
	if !g.In(a.From) || !g.In(a.To) {
		return fmt.Errorf("%w: %s %v..%v", errutil.ErrOutOfBounds, a.Kind, a.From, a.To)
	}
	r0, r1 := min(a.From.R, a.To.R), max(a.From.R, a.To.R)
	c0, c1 := min(a.From.C, a.To.C), max(a.From.C, a.To.C)
	for r := r0; r <= r1; r++ {
		for c := c0; c <= c1; c++ {
			if err := g.Set(coord.New(r, c), a.Terrain); err != nil {
				return err
			}
		}
	}
	return nil
}

// History is a linear edit log over a base grid. Undo replays the log from the
// base up to the new cursor; applying an action discards anything redoable.
type History struct {
	base    *navigation.Grid
	current *navigation.Grid
	actions []Action
	cursor  int
	limit   int
}

func NewHistory(base *navigation.Grid, limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{
		base:    base.Clone(),
		current: base.Clone(),
		limit:   limit,
	}
}

func (h *History) Apply(a Action) error {
	if t, ok := navigation.ParseTerrain(string(a.Terrain)); !ok || t != a.Terrain {
		return fmt.Errorf("%w: unknown terrain %q", errutil.ErrInvalidParameter, a.Terrain)
	}
	next := h.current.Clone()
	if err := a.apply(next); err != nil {
		return err
	}
	actions := append(h.actions[:h.cursor:h.cursor], a)
	base := h.base
	if len(actions) > h.limit {
		// fold the oldest action into the base
		base = h.base.Clone()
		if err := actions[0].apply(base); err != nil {
			return fmt.Errorf("fold %s into base: %w", actions[0].Kind, err)
		}
		actions = actions[1:]
	}
	h.base = base
	h.current = next
	h.actions = actions
	h.cursor = len(actions)
	return nil
}

func (h *History) Undo() error {
	if !h.CanUndo() {
		return errutil.ErrNoUndo
	}
	h.cursor--
	g := h.base.Clone()
	for _, a := range h.actions[:h.cursor] {
		if err := a.apply(g); err != nil {
			return err
		}
	}
	h.current = g
	return nil
}

func (h *History) Redo() error {
	if !h.CanRedo() {
		return errutil.ErrNoRedo
	}
	if err := h.actions[h.cursor].apply(h.current); err != nil {
		return err
	}
	h.cursor++
	return nil
}

func (h *History) CanUndo() bool { return h.cursor > 0 }

func (h *History) CanRedo() bool { return h.cursor < len(h.actions) }

// Len returns the number of applied actions.
func (h *History) Len() int { return h.cursor }

// Snapshot returns a copy of the grid with every applied action in effect.
func (h *History) Snapshot() *navigation.Grid { return h.current.Clone() }
