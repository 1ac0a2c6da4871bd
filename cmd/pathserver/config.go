package main

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/nano/citypath/internal/navigation"
	"github.com/nano/citypath/pkg/astar"
	"github.com/nano/citypath/pkg/errutil"
	"github.com/nano/citypath/pkg/fileutil"
)

// finderConfig reads the [pathfinder] and [cost] sections.
func finderConfig(v *viper.Viper) (navigation.Config, error) {
	cfg := navigation.DefaultConfig()
	if v.IsSet("pathfinder.movement") {
		m, err := astar.ParseMovement(v.GetInt("pathfinder.movement"))
		if err != nil {
			return cfg, err
		}
		cfg.Movement = m
	}
	exec, ok := navigation.ParseExecMode(strings.ToLower(v.GetString("pathfinder.exec")))
	if !ok {
		return cfg, fmt.Errorf("%w: pathfinder.exec %q", errutil.ErrInvalidParameter, v.GetString("pathfinder.exec"))
	}
	cfg.Exec = exec
	frontier, ok := astar.ParseFrontierKind(strings.ToLower(v.GetString("pathfinder.frontier")))
	if !ok {
		return cfg, fmt.Errorf("%w: pathfinder.frontier %q", errutil.ErrInvalidParameter, v.GetString("pathfinder.frontier"))
	}
	cfg.Frontier = frontier
	if v.IsSet("pathfinder.fallback_to_sync") {
		cfg.FallbackToSync = v.GetBool("pathfinder.fallback_to_sync")
	}
	if n := v.GetInt("pathfinder.worker_backlog"); n > 0 {
		cfg.WorkerBacklog = n
	}

	overrides := map[astar.Terrain]float64{}
	// viper lowercases keys, so glyphs like "R" cannot be told apart; only names are accepted
	for name, raw := range v.GetStringMap("cost.multipliers") {
		t, ok := navigation.ParseTerrain(name)
		if !ok || len(name) < 2 {
			return cfg, fmt.Errorf("%w: cost.multipliers.%s is not a terrain name", errutil.ErrInvalidParameter, name)
		}
		w, ok := toFloat(raw)
		if !ok {
			return cfg, fmt.Errorf("%w: cost.multipliers.%s = %v", errutil.ErrInvalidWeight, name, raw)
		}
		overrides[t] = w
	}
	costs, err := astar.NewCostModel(overrides)
	if err != nil {
		return cfg, err
	}
	cfg.Costs = costs
	return cfg, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}

// loadGrid reads pathfinder.grid_file when set, otherwise builds an empty
// pathfinder.rows × pathfinder.cols grid.
func loadGrid(v *viper.Viper) (*navigation.Grid, error) {
	if name := v.GetString("pathfinder.grid_file"); name != "" {
		pth := name
		if !fileutil.FileExists(pth) {
			pth = fileutil.FindResourcePth(name)
		}
		buf, err := fileutil.ReadFile(pth)
		if err != nil {
			return nil, err
		}
		return navigation.LoadGrid(buf)
	}
	return navigation.NewGrid(v.GetInt("pathfinder.rows"), v.GetInt("pathfinder.cols"), nil)
}
