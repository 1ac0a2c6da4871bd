package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	"golang.org/x/sync/errgroup"

	"github.com/nano/citypath/internal/navigation"
	"github.com/nano/citypath/pkg/astar"
	"github.com/nano/citypath/pkg/coord"
	"github.com/nano/citypath/pkg/fileutil"
	"github.com/nano/citypath/pkg/path"
)

func main() {
	app := cli.NewApp()

	// base application info
	app.Name = "path prepare tool"
	app.Version = "0.0.1"
	app.Usage = "pre-compute chained random routes on a grid"

	// flags
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "gridfile,g",
			Value: "configs/city.grid",
			Usage: "load the grid from `FILE`",
		},
		cli.StringFlag{
			Name:  "rect,r",
			Value: "32,32,24",
			Usage: "row,col,range of the area routes stay in",
		},
		cli.IntFlag{
			Name:  "count,c",
			Value: 100,
			Usage: "number of chains",
		},
		cli.IntFlag{
			Name:  "steps",
			Value: 20,
			Usage: "routes per chain",
		},
		cli.IntFlag{
			Name:  "hop",
			Value: 5,
			Usage: "max distance between consecutive waypoints",
		},
		cli.IntFlag{
			Name:  "movement",
			Value: 8,
			Usage: "4 or 8 directional movement",
		},
		cli.Int64Flag{
			Name:  "seed",
			Value: 1,
			Usage: "random seed",
		},
		cli.StringFlag{
			Name:  "out,o",
			Value: "",
			Usage: "write routes to `FILE`",
		},
	}

	app.Action = serve
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

type prepareOptions struct {
	area  [2]coord.Cell
	count int
	steps int
	hop   int
	seed  int64
}

func parseRect(s string) ([2]coord.Cell, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return [2]coord.Cell{}, fmt.Errorf("rect %q: want row,col,range", s)
	}
	v := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return [2]coord.Cell{}, fmt.Errorf("rect %q: %v", s, err)
		}
		v[i] = n
	}
	r, c, span := v[0], v[1], v[2]
	return [2]coord.Cell{coord.New(max(r-span, 0), max(c-span, 0)), coord.New(r+span, c+span)}, nil
}

func serve(c *cli.Context) error {
	gridFile := c.String("gridfile")
	area, err := parseRect(c.String("rect"))
	if err != nil {
		return err
	}
	movement, err := astar.ParseMovement(c.Int("movement"))
	if err != nil {
		return err
	}
	pth := gridFile
	if !fileutil.FileExists(pth) {
		pth = fileutil.FindResourcePth(gridFile)
	}
	buf, err := fileutil.ReadFile(pth)
	if err != nil {
		return err
	}
	grid, err := navigation.LoadGrid(buf)
	if err != nil {
		return err
	}
	cfg := navigation.DefaultConfig()
	cfg.Movement = movement
	finder, err := navigation.NewPathFinder(grid, cfg)
	if err != nil {
		return err
	}
	defer finder.Close()

	log.Infof("preparing routes on %s (%dx%d), area %v..%v", gridFile, grid.Rows(), grid.Cols(), area[0], area[1])
	chains, err := prepare(context.Background(), finder, grid, prepareOptions{
		area:  area,
		count: c.Int("count"),
		steps: c.Int("steps"),
		hop:   c.Int("hop"),
		seed:  c.Int64("seed"),
	})
	if err != nil {
		return err
	}
	content, err := json.Marshal(chains)
	if err != nil {
		return err
	}
	out := c.String("out")
	if out == "" {
		out = fmt.Sprintf("./%s_%s.paths", strings.TrimSuffix(gridFile, ".grid"), c.String("rect"))
	}
	if err := fileutil.WriteFile(content, out); err != nil {
		return err
	}
	log.Infof("%d chains written to %s, %s", len(chains), out, finder.CacheStats())
	return nil
}

// prepare builds opts.count chains of consecutive routes. Each chain starts on
// a random passable cell in the area and hops at most opts.hop cells per route.
func prepare(ctx context.Context, finder *navigation.PathFinder, grid *navigation.Grid, opts prepareOptions) ([]*path.SerialPaths, error) {
	chains := make([]*path.SerialPaths, opts.count)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i := range chains {
		id := i + 1
		g.Go(func() error {
			sp, err := prepareChain(ctx, finder, grid, id, opts)
			if err != nil {
				return err
			}
			chains[id-1] = sp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return chains, nil
}

func prepareChain(ctx context.Context, finder *navigation.PathFinder, grid *navigation.Grid, id int, opts prepareOptions) (*path.SerialPaths, error) {
	rng := rand.New(rand.NewSource(opts.seed + int64(id)))
	sp := &path.SerialPaths{Id: id, Paths: make([]path.PointPath, 0, opts.steps)}
	from, to := opts.area[0], opts.area[1]
	start, err := grid.RandomCell(rng, from, to, navigation.DefaultPredicate, 1000)
	if err != nil {
		return nil, fmt.Errorf("chain %d: no start cell: %w", id, err)
	}
	for i := 0; i < opts.steps; i++ {
		lo := coord.New(max(start.R-opts.hop, from.R), max(start.C-opts.hop, from.C))
		hi := coord.New(min(start.R+opts.hop, to.R), min(start.C+opts.hop, to.C))
		goal, err := grid.RandomCell(rng, lo, hi, navigation.DefaultPredicate, 100)
		if err != nil {
			log.Debugf("chain %d step %d: %v", id, i, err)
			continue
		}
		if goal == start {
			continue
		}
		route, err := finder.FindPath(ctx, start, goal)
		if err != nil {
			return nil, err
		}
		if !route.Found {
			continue
		}
		log.Debugf("chain %d step %d: %v->%v %d cells", id, i, start, goal, len(route.Path))
		sp.Paths = append(sp.Paths, path.PointPath{
			Start: start,
			Goal:  goal,
			Cost:  route.Cost,
			Paths: route.Path,
		})
		// chains are contiguous
		start = goal
	}
	return sp, nil
}
