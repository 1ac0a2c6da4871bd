package navigation

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nano/citypath/pkg/astar"
	"github.com/nano/citypath/pkg/coord"
	"github.com/nano/citypath/pkg/errutil"
)

func newFinder(t *testing.T, g *Grid, mutate func(*Config)) *PathFinder {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	f, err := NewPathFinder(g, cfg)
	require.NoError(t, err)
	t.Cleanup(f.Close)
	return f
}

func workerMode(cfg *Config) { cfg.Exec = ExecWorker }

func TestFindPathDiagonal(t *testing.T) {
	for _, mode := range []func(*Config){nil, workerMode} {
		f := newFinder(t, mustParse(t, "...", "...", "..."), mode)
		route, err := f.FindPath(context.Background(), coord.New(0, 0), coord.New(2, 2))
		require.NoError(t, err)
		require.True(t, route.Found)
		assert.Len(t, route.Path, 3)
		assert.InDelta(t, 2*math.Sqrt2, route.Cost, 1e-9)
	}
}

func TestFindPathBlockedCenter(t *testing.T) {
	for _, mode := range []func(*Config){nil, workerMode} {
		f := newFinder(t, mustParse(t, "...", ".#.", "..."), mode)
		route, err := f.FindPath(context.Background(), coord.New(0, 0), coord.New(2, 2))
		require.NoError(t, err)
		require.True(t, route.Found)
		assert.Len(t, route.Path, 4)
		assert.InDelta(t, 2+math.Sqrt2, route.Cost, 1e-9)
		assert.NotContains(t, route.Path, coord.New(1, 1))
	}
}

func TestFindPathStartEqualsGoal(t *testing.T) {
	f := newFinder(t, mustParse(t, "R.", ".."), nil)
	route, err := f.FindPath(context.Background(), coord.New(0, 0), coord.New(0, 0))
	require.NoError(t, err)
	assert.True(t, route.Found)
	assert.Equal(t, []coord.Cell{{0, 0}}, route.Path)
	assert.Equal(t, 0.0, route.Cost)
}

func TestFindPathPreconditions(t *testing.T) {
	f := newFinder(t, mustParse(t, "...", "..."), workerMode)
	_, err := f.FindPath(context.Background(), coord.New(2, 0), coord.New(0, 0))
	assert.ErrorIs(t, err, errutil.ErrOutOfBounds)
	_, err = f.FindPath(context.Background(), coord.New(0, 0), coord.New(0, -1))
	assert.ErrorIs(t, err, errutil.ErrOutOfBounds)

	reply := <-f.FindPathAsync(context.Background(), coord.New(0, 3), coord.New(0, 0))
	assert.ErrorIs(t, reply.Err, errutil.ErrOutOfBounds)

	_, err = NewPathFinder(nil, DefaultConfig())
	assert.ErrorIs(t, err, errutil.ErrInvalidDimensions)

	cfg := DefaultConfig()
	cfg.Movement = 6
	_, err = NewPathFinder(mustParse(t, "."), cfg)
	assert.ErrorIs(t, err, errutil.ErrInvalidMovement)
}

func TestFindPathIdempotentAndCached(t *testing.T) {
	f := newFinder(t, mustParse(t,
		"RRRRR",
		".###.",
		".....",
	), nil)
	ctx := context.Background()
	first, err := f.FindPath(ctx, coord.New(2, 0), coord.New(2, 4))
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, 1, f.CacheSize())

	want := coord.ClonePath(first.Path)
	first.Path[1] = coord.New(9, 9)

	second, err := f.FindPath(ctx, coord.New(2, 0), coord.New(2, 4))
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, want, second.Path)
	assert.Equal(t, first.Cost, second.Cost)

	second.Path[0] = coord.New(8, 8)
	third, err := f.FindPath(ctx, coord.New(2, 0), coord.New(2, 4))
	require.NoError(t, err)
	assert.Equal(t, want, third.Path)

	stats := f.CacheStats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)

	f.ClearCache()
	assert.Equal(t, 0, f.CacheSize())
}

// serpentine builds open rows joined by walls with one gap, alternating sides.
func serpentine(t *testing.T, rows, cols int) *Grid {
	g, err := NewGrid(rows, cols, nil)
	require.NoError(t, err)
	for r := 1; r < rows; r += 2 {
		gap := cols - 1
		if (r/2)%2 == 1 {
			gap = 0
		}
		for c := 0; c < cols; c++ {
			if c != gap {
				require.NoError(t, g.Set(coord.New(r, c), astar.Water))
			}
		}
	}
	return g
}

func TestLongPathsAreNotCached(t *testing.T) {
	g := serpentine(t, 27, 40)
	for _, mode := range []func(*Config){nil, workerMode} {
		f := newFinder(t, g, mode)
		route, err := f.FindPath(context.Background(), coord.New(0, 0), coord.New(26, 0))
		require.NoError(t, err)
		require.True(t, route.Found)
		assert.GreaterOrEqual(t, len(route.Path), MaxCachedPathLen)
		assert.Equal(t, 0, f.CacheSize())

		p := &astar.Problem{Rows: 27, Cols: 40, Passable: BuildPassabilityMask(g, nil)}
		assert.InDelta(t, astar.PathCost(p, route.Path), route.Cost, 1e-6)

		again, err := f.FindPath(context.Background(), coord.New(0, 0), coord.New(26, 0))
		require.NoError(t, err)
		assert.False(t, again.Cached)
		assert.InDelta(t, route.Cost, again.Cost, 1e-9)
	}
}

func randomCityGrid(t *testing.T, rng *rand.Rand, rows, cols int) *Grid {
	kinds := []astar.Terrain{astar.Empty, astar.Empty, astar.Road, astar.Road, astar.Bridge,
		astar.Vehicle, astar.Park, astar.Building, astar.Water}
	cells := make([]astar.Terrain, rows*cols)
	for i := range cells {
		cells[i] = kinds[rng.Intn(len(kinds))]
	}
	g, err := NewGrid(rows, cols, cells)
	require.NoError(t, err)
	return g
}

func TestSyncAndWorkerAgree(t *testing.T) {
	rng := rand.New(rand.NewSource(2024))
	for _, size := range []int{8, 40} {
		g := randomCityGrid(t, rng, size, size)
		for _, mv := range []astar.Movement{astar.EightWay, astar.FourWay} {
			local := newFinder(t, g, func(c *Config) { c.Movement = mv })
			worker := newFinder(t, g, func(c *Config) { c.Movement = mv; c.Exec = ExecWorker })
			found := 0
			for k := 0; k < 40; k++ {
				a := coord.New(rng.Intn(size), rng.Intn(size))
				b := coord.New(rng.Intn(size), rng.Intn(size))
				r1, err := local.FindPath(context.Background(), a, b)
				require.NoError(t, err)
				r2, err := worker.FindPath(context.Background(), a, b)
				require.NoError(t, err)
				require.Equal(t, r1.Found, r2.Found, "%v->%v", a, b)
				assert.InDelta(t, r1.Cost, r2.Cost, 1e-9, "%v->%v", a, b)
				if r1.Found {
					found++
				}
			}
			assert.Positive(t, found)
		}
	}
}

func TestUnreachableUntilGap(t *testing.T) {
	lines := []string{
		"..#..",
		"..#..",
		"..#..",
	}
	f := newFinder(t, mustParse(t, lines...), workerMode)
	route, err := f.FindPath(context.Background(), coord.New(0, 0), coord.New(0, 4))
	require.NoError(t, err)
	assert.False(t, route.Found)
	assert.Equal(t, 0, f.CacheSize())

	lines[2] = "..R.."
	require.NoError(t, f.Reload(mustParse(t, lines...)))
	route, err = f.FindPath(context.Background(), coord.New(0, 0), coord.New(0, 4))
	require.NoError(t, err)
	require.True(t, route.Found)
	assert.Contains(t, route.Path, coord.New(2, 2))
}

func TestReloadInstallsFreshCache(t *testing.T) {
	g := mustParse(t, "....", "....")
	f := newFinder(t, g, nil)
	_, err := f.FindPath(context.Background(), coord.New(0, 0), coord.New(1, 3))
	require.NoError(t, err)
	assert.Equal(t, 1, f.CacheSize())

	// editing the caller's grid does not reach the finder
	require.NoError(t, g.Set(coord.New(0, 1), astar.Water))
	tr, _ := f.Grid().At(coord.New(0, 1))
	assert.Equal(t, astar.Empty, tr)

	require.NoError(t, f.Reload(g))
	assert.Equal(t, 0, f.CacheSize())
	route, err := f.FindPath(context.Background(), coord.New(0, 0), coord.New(1, 3))
	require.NoError(t, err)
	assert.False(t, route.Cached)
}

func TestFindPathAsync(t *testing.T) {
	g := mustParse(t, "R...", "....")

	syncFinder := newFinder(t, g, nil)
	ch := syncFinder.FindPathAsync(context.Background(), coord.New(0, 0), coord.New(1, 3))
	assert.Equal(t, 1, len(ch), "sync mode replies before returning")
	reply := <-ch
	require.NoError(t, reply.Err)
	assert.True(t, reply.Route.Found)

	workerFinder := newFinder(t, g, workerMode)
	select {
	case reply := <-workerFinder.FindPathAsync(context.Background(), coord.New(0, 0), coord.New(1, 3)):
		require.NoError(t, reply.Err)
		assert.True(t, reply.Route.Found)
	case <-time.After(5 * time.Second):
		t.Fatal("no async reply")
	}
}

func TestWorkerFallbackToSync(t *testing.T) {
	g := mustParse(t, "....", "....")
	f := newFinder(t, g, workerMode)
	f.Close()
	route, err := f.FindPath(context.Background(), coord.New(0, 0), coord.New(1, 3))
	require.NoError(t, err)
	assert.True(t, route.Found)

	strict := newFinder(t, g, func(c *Config) { c.Exec = ExecWorker; c.FallbackToSync = false })
	strict.Close()
	_, err = strict.FindPath(context.Background(), coord.New(0, 0), coord.New(1, 3))
	assert.ErrorIs(t, err, errutil.ErrWorkerClosed)
}

func TestWorkerRestartedAfterShutdown(t *testing.T) {
	f := newFinder(t, mustParse(t, "....", "...."), workerMode)
	old := f.worker
	old.Close()

	route, err := f.FindPath(context.Background(), coord.New(0, 0), coord.New(1, 3))
	require.NoError(t, err)
	assert.True(t, route.Found)

	f.workerMu.Lock()
	assert.NotSame(t, old, f.worker)
	assert.False(t, f.worker.Closed())
	f.workerMu.Unlock()
}

func TestConcurrentQueriesShareCache(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	g := randomCityGrid(t, rng, 30, 30)
	f := newFinder(t, g, workerMode)
	a, b := coord.New(0, 0), coord.New(29, 29)
	want, err := newFinder(t, g, nil).FindPath(context.Background(), a, b)
	require.NoError(t, err)

	var wg sync.WaitGroup
	routes := make([]*Route, 16)
	for i := range routes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := f.FindPath(context.Background(), a, b)
			assert.NoError(t, err)
			routes[i] = r
		}(i)
	}
	wg.Wait()
	for _, r := range routes {
		require.NotNil(t, r)
		assert.Equal(t, want.Found, r.Found)
		assert.InDelta(t, want.Cost, r.Cost, 1e-9)
	}
	if want.Found && len(want.Path) < MaxCachedPathLen {
		assert.Equal(t, 1, f.CacheSize())
	}
}

func TestRecorder(t *testing.T) {
	var mu sync.Mutex
	var stats []QueryStat
	rec := RecorderFunc(func(s QueryStat) {
		mu.Lock()
		stats = append(stats, s)
		mu.Unlock()
	})
	f := newFinder(t, mustParse(t, "...", "..."), func(c *Config) { c.Recorder = rec })
	for i := 0; i < 2; i++ {
		_, err := f.FindPath(context.Background(), coord.New(0, 0), coord.New(1, 2))
		require.NoError(t, err)
	}
	require.Len(t, stats, 2)
	assert.False(t, stats[0].Cached)
	assert.True(t, stats[1].Cached)
	assert.Equal(t, 3, stats[0].Length)
	assert.Equal(t, 2, stats[0].Rows)
	assert.Equal(t, 3, stats[0].Cols)
	assert.Equal(t, ExecSync, stats[0].Mode)

	var n int
	MultiRecorder{
		LogRecorder{},
		RecorderFunc(func(QueryStat) { n++ }),
		RecorderFunc(func(QueryStat) { n++ }),
	}.RecordQuery(stats[0])
	assert.Equal(t, 2, n)
}

func TestPackageFindPath(t *testing.T) {
	route, err := FindPath(mustParse(t, "...", "...", "..."), coord.New(0, 0), coord.New(2, 2), astar.FourWay)
	require.NoError(t, err)
	assert.Len(t, route.Path, 5)
	assert.Equal(t, 4.0, route.Cost)
}

func TestParseExecMode(t *testing.T) {
	m, ok := ParseExecMode("worker")
	assert.True(t, ok)
	assert.Equal(t, ExecWorker, m)
	assert.Equal(t, "worker", m.String())
	_, ok = ParseExecMode("thread")
	assert.False(t, ok)
}

// walledGoal is an open grid whose bottom-right corner is sealed off, so a
// search for it exhausts every cell.
func walledGoal(t *testing.T, n int) (*Grid, coord.Cell) {
	g, err := NewGrid(n, n, nil)
	require.NoError(t, err)
	for _, c := range []coord.Cell{{R: n - 2, C: n - 2}, {R: n - 2, C: n - 1}, {R: n - 1, C: n - 2}} {
		require.NoError(t, g.Set(c, astar.Water))
	}
	return g, coord.New(n-1, n-1)
}

func TestCoalescedCallersKeepTheirOwnContext(t *testing.T) {
	g, goal := walledGoal(t, 1000)
	for _, mode := range []func(*Config){nil, workerMode} {
		f := newFinder(t, g, func(c *Config) {
			if mode != nil {
				mode(c)
			}
			c.FallbackToSync = false
		})

		gone, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := f.FindPath(gone, coord.New(0, 0), goal)
		assert.ErrorIs(t, err, context.Canceled)

		// joins the search started for the cancelled caller
		route, err := f.FindPath(context.Background(), coord.New(0, 0), goal)
		require.NoError(t, err)
		assert.False(t, route.Found)
	}
}

func TestCallerDeadlineDoesNotFailOthers(t *testing.T) {
	g, goal := walledGoal(t, 1000)
	f := newFinder(t, g, func(c *Config) { c.FallbackToSync = false })

	short, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	var (
		wg         sync.WaitGroup
		errA, errB error
		routeB     *Route
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errA = f.FindPath(short, coord.New(0, 0), goal)
	}()
	go func() {
		defer wg.Done()
		time.Sleep(time.Millisecond)
		routeB, errB = f.FindPath(context.Background(), coord.New(0, 0), goal)
	}()
	wg.Wait()

	require.NoError(t, errB)
	assert.False(t, routeB.Found)
	if errA != nil {
		assert.ErrorIs(t, errA, context.DeadlineExceeded)
	}
}
