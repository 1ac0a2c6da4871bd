package navigation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/nano/citypath/pkg/astar"
	"github.com/nano/citypath/pkg/coord"
	"github.com/nano/citypath/pkg/errutil"
)

var logger = log.WithField("component", "navigation")

// ExecMode selects where uncached searches run.
type ExecMode uint8

const (
	// ExecSync searches on the caller's goroutine.
	ExecSync ExecMode = iota
	// ExecWorker ships each search as a frame to the finder's worker.
	ExecWorker
)

func ParseExecMode(s string) (ExecMode, bool) {
	switch s {
	case "", "sync":
		return ExecSync, true
	case "worker":
		return ExecWorker, true
	}
	return ExecSync, false
}

func (m ExecMode) String() string {
	if m == ExecWorker {
		return "worker"
	}
	return "sync"
}

type Config struct {
	Movement       astar.Movement
	Exec           ExecMode
	Frontier       astar.FrontierKind
	Predicate      Predicate
	Costs          *astar.CostModel
	FallbackToSync bool
	WorkerBacklog  int
	Recorder       Recorder
}

func DefaultConfig() Config {
	return Config{
		Movement:       astar.EightWay,
		Exec:           ExecSync,
		Frontier:       astar.FrontierAuto,
		Predicate:      DefaultPredicate,
		Costs:          astar.DefaultCostModel(),
		FallbackToSync: true,
		WorkerBacklog:  DefaultWorkerBacklog,
	}
}

// Route is a search result plus whether it came from the cache.
type Route struct {
	astar.Result
	Cached bool `json:"cached"`
}

// Reply is delivered by FindPathAsync.
type Reply struct {
	Route *Route
	Err   error
}

type snapshot struct {
	gen     uint64
	grid    *Grid
	problem *astar.Problem
	cache   *PathCache
}

// PathFinder answers path queries against a frozen copy of a grid. Each grid
// snapshot owns its own PathCache; Reload installs a new snapshot and a fresh
// cache, so the cache is only valid for the grid in effect when it was filled.
type PathFinder struct {
	cfg       Config
	heuristic astar.Heuristic
	engine    *astar.Engine
	state     atomic.Pointer[snapshot]
	gen       atomic.Uint64
	group     singleflight.Group

	workerMu sync.Mutex
	worker   *Worker
	closed   bool
}

func NewPathFinder(grid *Grid, cfg Config) (*PathFinder, error) {
	if cfg.Costs == nil {
		cfg.Costs = astar.DefaultCostModel()
	}
	if cfg.Predicate == nil {
		cfg.Predicate = DefaultPredicate
	}
	if cfg.Movement == 0 {
		cfg.Movement = astar.EightWay
	}
	h := astar.NewHeuristic(cfg.Movement, cfg.Costs.MinMultiplier())
	engine, err := astar.NewEngine(
		astar.WithMovement(cfg.Movement),
		astar.WithHeuristic(h),
		astar.WithFrontier(cfg.Frontier),
	)
	if err != nil {
		return nil, err
	}
	f := &PathFinder{cfg: cfg, heuristic: h, engine: engine}
	if err := f.Reload(grid); err != nil {
		return nil, err
	}
	if cfg.Exec == ExecWorker {
		f.worker = NewWorker(cfg.WorkerBacklog)
	}
	return f, nil
}

// Reload freezes a copy of grid and starts a fresh cache for it. Searches
// already in flight finish against the previous snapshot.
func (f *PathFinder) Reload(grid *Grid) error {
	if grid == nil {
		return fmt.Errorf("%w: nil grid", errutil.ErrInvalidDimensions)
	}
	g := grid.Clone()
	snap := &snapshot{
		gen:  f.gen.Add(1),
		grid: g,
		problem: &astar.Problem{
			Rows:     g.rows,
			Cols:     g.cols,
			Passable: BuildPassabilityMask(g, f.cfg.Predicate),
			Weights:  f.cfg.Costs.Weights(g.cells),
		},
		cache: NewPathCache(),
	}
	f.state.Store(snap)
	logger.Debugf("grid %dx%d loaded (generation %d)", g.rows, g.cols, snap.gen)
	return nil
}

// Grid returns a copy of the grid currently searched.
func (f *PathFinder) Grid() *Grid { return f.state.Load().grid.Clone() }

func (f *PathFinder) Mode() ExecMode { return f.cfg.Exec }

func (f *PathFinder) Movement() astar.Movement { return f.cfg.Movement }

func (f *PathFinder) CacheSize() int { return f.state.Load().cache.Len() }

func (f *PathFinder) ClearCache() { f.state.Load().cache.Clear() }

func (f *PathFinder) CacheStats() CacheStats { return f.state.Load().cache.Stats() }

// FindPath returns the cheapest route from start to goal. An unreachable goal
// yields a Route with Found == false and a nil error. The call waits for the
// search or ctx, whichever comes first; a search shared with concurrent
// identical queries keeps running when one of its callers gives up.
func (f *PathFinder) FindPath(ctx context.Context, start, goal coord.Cell) (*Route, error) {
	snap := f.state.Load()
	if err := checkEndpoints(snap, start, goal); err != nil {
		return nil, err
	}
	return f.findPath(ctx, snap, start, goal)
}

// FindPathAsync returns a channel that receives exactly one Reply. Invalid
// endpoints are rejected before anything is scheduled. In sync mode the reply
// is already buffered when FindPathAsync returns.
func (f *PathFinder) FindPathAsync(ctx context.Context, start, goal coord.Cell) <-chan Reply {
	out := make(chan Reply, 1)
	snap := f.state.Load()
	if err := checkEndpoints(snap, start, goal); err != nil {
		out <- Reply{Err: err}
		return out
	}
	if f.cfg.Exec == ExecSync {
		route, err := f.findPath(ctx, snap, start, goal)
		out <- Reply{Route: route, Err: err}
		return out
	}
	go func() {
		defer func() {
			if err := recover(); err != nil {
				logger.Errorf("async path %v->%v panic: %v", start, goal, err)
				out <- Reply{Err: fmt.Errorf("%w: %v", errutil.ErrWorkerTransport, err)}
			}
		}()
		route, err := f.findPath(ctx, snap, start, goal)
		out <- Reply{Route: route, Err: err}
	}()
	return out
}

func checkEndpoints(snap *snapshot, start, goal coord.Cell) error {
	if err := snap.problem.CheckCell(start); err != nil {
		return err
	}
	return snap.problem.CheckCell(goal)
}

func (f *PathFinder) findPath(ctx context.Context, snap *snapshot, start, goal coord.Cell) (*Route, error) {
	begin := time.Now()
	key := CacheKey(start, goal, snap.problem.Rows, snap.problem.Cols)
	if res, ok := snap.cache.Get(key); ok {
		cacheLookups.WithLabelValues("hit").Inc()
		route := &Route{Result: res, Cached: true}
		f.record(snap, start, goal, route, begin)
		return route, nil
	}
	cacheLookups.WithLabelValues("miss").Inc()

	// the shared search outlives any single caller; each caller waits on its own ctx
	shared := context.WithoutCancel(ctx)
	ch := f.group.DoChan(strconv.FormatUint(snap.gen, 10)+"/"+key, func() (any, error) {
		res, err := f.compute(shared, snap, start, goal)
		if err != nil {
			return nil, err
		}
		snap.cache.Put(key, res)
		return res, nil
	})
	var out singleflight.Result
	select {
	case out = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if out.Err != nil {
		return nil, out.Err
	}
	// the result may be shared with coalesced callers
	route := &Route{Result: out.Val.(astar.Result).Clone()}
	f.record(snap, start, goal, route, begin)
	return route, nil
}

func (f *PathFinder) compute(ctx context.Context, snap *snapshot, start, goal coord.Cell) (astar.Result, error) {
	begin := time.Now()
	mode := f.cfg.Exec
	var (
		res astar.Result
		err error
	)
	if mode == ExecWorker {
		res, err = f.computeRemote(ctx, snap, start, goal)
		if err != nil && isTransport(err) {
			if !f.cfg.FallbackToSync {
				workerFailures.WithLabelValues("surfaced").Inc()
				return res, err
			}
			workerFailures.WithLabelValues("fallback").Inc()
			logger.Warnf("worker failed for %v->%v, searching synchronously: %v", start, goal, err)
			mode = ExecSync
			res, err = f.engine.Search(ctx, snap.problem, start, goal)
		}
	} else {
		res, err = f.engine.Search(ctx, snap.problem, start, goal)
	}
	if err != nil {
		return res, err
	}
	searchDuration.WithLabelValues(mode.String(), strconv.FormatBool(res.Found)).Observe(time.Since(begin).Seconds())
	return res, nil
}

func isTransport(err error) bool {
	return errors.Is(err, errutil.ErrWorkerTransport) || errors.Is(err, errutil.ErrWorkerClosed)
}

func (f *PathFinder) computeRemote(ctx context.Context, snap *snapshot, start, goal coord.Cell) (astar.Result, error) {
	w, err := f.currentWorker()
	if err != nil {
		return astar.Result{}, err
	}
	frontier := f.cfg.Frontier
	if frontier == astar.FrontierAuto {
		frontier = astar.FrontierHeap
	}
	ch, err := w.submit(&findRequest{
		ID:        uuid.New(),
		Heuristic: f.heuristic,
		Frontier:  frontier,
		Start:     start,
		Goal:      goal,
		Problem:   *snap.problem,
	})
	if err != nil {
		return astar.Result{}, err
	}
	select {
	case reply := <-ch:
		if reply.err != nil {
			return astar.Result{}, reply.err
		}
		return reply.resp.Result, nil
	case <-ctx.Done():
		// the worker still answers; the listener's buffer absorbs it
		return astar.Result{}, ctx.Err()
	}
}

// currentWorker returns the live worker, replacing one that has shut down.
func (f *PathFinder) currentWorker() (*Worker, error) {
	f.workerMu.Lock()
	defer f.workerMu.Unlock()
	if f.closed {
		return nil, errutil.ErrWorkerClosed
	}
	if f.worker == nil || f.worker.Closed() {
		if f.worker != nil {
			logger.Warn("path worker was shut down, starting a new one")
		}
		f.worker = NewWorker(f.cfg.WorkerBacklog)
	}
	return f.worker, nil
}

// Close stops the worker, if any. Later worker-mode queries fall back to the
// synchronous engine when FallbackToSync is set and fail otherwise.
func (f *PathFinder) Close() {
	f.workerMu.Lock()
	defer f.workerMu.Unlock()
	f.closed = true
	if f.worker != nil {
		f.worker.Close()
	}
}

func (f *PathFinder) record(snap *snapshot, start, goal coord.Cell, route *Route, begin time.Time) {
	if f.cfg.Recorder == nil {
		return
	}
	f.cfg.Recorder.RecordQuery(QueryStat{
		Start:    start,
		Goal:     goal,
		Rows:     snap.problem.Rows,
		Cols:     snap.problem.Cols,
		Mode:     f.cfg.Exec,
		Found:    route.Found,
		Cached:   route.Cached,
		Length:   len(route.Path),
		Cost:     route.Cost,
		Expanded: route.Expanded,
		Elapsed:  time.Since(begin),
		At:       begin,
	})
}

// FindPath is a one-shot synchronous query with the default cost model and
// passability predicate.
func FindPath(grid *Grid, start, goal coord.Cell, movement astar.Movement) (*Route, error) {
	cfg := DefaultConfig()
	cfg.Movement = movement
	f, err := NewPathFinder(grid, cfg)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.FindPath(context.Background(), start, goal)
}
