package editor

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/nano/citypath/internal/navigation"
)

var logger = log.WithField("component", "editor")

// Workspace couples an editable grid with the PathFinder searching it. Every
// change to the grid reloads the finder, which drops its cached paths.
type Workspace struct {
	mu      sync.Mutex
	history *History
	finder  *navigation.PathFinder
	limit   int
}

func NewWorkspace(grid *navigation.Grid, cfg navigation.Config, limit int) (*Workspace, error) {
	finder, err := navigation.NewPathFinder(grid, cfg)
	if err != nil {
		return nil, err
	}
	return &Workspace{
		history: NewHistory(grid, limit),
		finder:  finder,
		limit:   limit,
	}, nil
}

// Finder returns the workspace's PathFinder. It stays the same across edits.
func (w *Workspace) Finder() *navigation.PathFinder { return w.finder }

func (w *Workspace) Grid() *navigation.Grid {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.history.Snapshot()
}

func (w *Workspace) Apply(a Action) error {
	return w.change(func() error { return w.history.Apply(a) })
}

func (w *Workspace) Undo() error {
	return w.change(w.history.Undo)
}

func (w *Workspace) Redo() error {
	return w.change(w.history.Redo)
}

// Replace swaps in a new grid and starts an empty history for it.
func (w *Workspace) Replace(grid *navigation.Grid) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.finder.Reload(grid); err != nil {
		return err
	}
	w.history = NewHistory(grid, w.limit)
	logger.Infof("grid replaced: %dx%d", grid.Rows(), grid.Cols())
	return nil
}

// State reports whether undo and redo are currently possible.
func (w *Workspace) State() (canUndo, canRedo bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.history.CanUndo(), w.history.CanRedo()
}

func (w *Workspace) Close() { w.finder.Close() }

func (w *Workspace) change(fn func() error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := fn(); err != nil {
		return err
	}
	logger.Debugf("grid edited, %d actions applied", w.history.Len())
	return w.finder.Reload(w.history.Snapshot())
}
