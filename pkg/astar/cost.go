package astar

import (
	"fmt"
	"math"

	"github.com/nano/citypath/pkg/errutil"
)

// Terrain is an opaque per-cell symbol. The empty string means no terrain.
type Terrain string

const (
	Empty      Terrain = ""
	Road       Terrain = "road"
	Bridge     Terrain = "bridge"
	Crossing   Terrain = "crossing"
	Park       Terrain = "park"
	Tree       Terrain = "tree"
	Grass      Terrain = "grass"
	Industrial Terrain = "industrial"
	Building   Terrain = "building"
	Factory    Terrain = "factory"
	Vehicle    Terrain = "vehicle"
	Car        Terrain = "car"
	Bus        Terrain = "bus"
	Water      Terrain = "water"
)

const (
	OrthogonalCost = 1.0
	DiagonalCost   = math.Sqrt2

	RoadMultiplier       = 0.7
	VegetationMultiplier = 1.15
	HeavyMultiplier      = 1.3
	VehicleMultiplier    = 1.2
)

var (
	roadLike   = []Terrain{Road, Bridge, Crossing}
	vegetation = []Terrain{Park, Tree, Grass}
	heavy      = []Terrain{Industrial, Building, Factory}
	vehicles   = []Terrain{Vehicle, Car, Bus}
)

// DefaultMultipliers returns a fresh copy of the built-in terrain multiplier table.
func DefaultMultipliers() map[Terrain]float64 {
	m := make(map[Terrain]float64, 12)
	for _, t := range roadLike {
		m[t] = RoadMultiplier
	}
	for _, t := range vegetation {
		m[t] = VegetationMultiplier
	}
	for _, t := range heavy {
		m[t] = HeavyMultiplier
	}
	for _, t := range vehicles {
		m[t] = VehicleMultiplier
	}
	return m
}

func IsRoadLike(t Terrain) bool { return contains(roadLike, t) }

func IsVehicle(t Terrain) bool { return contains(vehicles, t) }

func contains(set []Terrain, t Terrain) bool {
	for _, s := range set {
		if s == t {
			return true
		}
	}
	return false
}

// CostModel prices a single grid step from the step geometry and the terrain
// of the destination cell. Unknown terrain costs ×1.0.
type CostModel struct {
	multipliers map[Terrain]float64
	min         float64
}

// NewCostModel builds a cost model from the default table with overrides applied
// on top. Every multiplier must be positive and finite.
func NewCostModel(overrides map[Terrain]float64) (*CostModel, error) {
	m := DefaultMultipliers()
	for t, v := range overrides {
		m[t] = v
	}
	cm := &CostModel{multipliers: m, min: 1}
	for t, v := range m {
		if !validWeight(v) {
			return nil, fmt.Errorf("%w: terrain %q multiplier %v", errutil.ErrInvalidWeight, t, v)
		}
		if v < cm.min {
			cm.min = v
		}
	}
	return cm, nil
}

// DefaultCostModel uses the built-in table only.
func DefaultCostModel() *CostModel {
	cm, _ := NewCostModel(nil)
	return cm
}

func (m *CostModel) Multiplier(t Terrain) float64 {
	if v, ok := m.multipliers[t]; ok {
		return v
	}
	return 1
}

// MinMultiplier is the smallest multiplier any cell can carry, never above 1.
func (m *CostModel) MinMultiplier() float64 {
	return m.min
}

// Cost returns base × multiplier for a step onto a cell holding dest.
func (m *CostModel) Cost(fromR, fromC, toR, toC int, dest Terrain) float64 {
	return BaseCost(fromR, fromC, toR, toC) * m.Multiplier(dest)
}

// Weights flattens the per-cell multiplier of cells into a buffer aligned with them.
func (m *CostModel) Weights(cells []Terrain) []float64 {
	w := make([]float64, len(cells))
	for i, t := range cells {
		w[i] = m.Multiplier(t)
	}
	return w
}

// BaseCost is 1 for a step sharing a row or column, √2 otherwise.
func BaseCost(fromR, fromC, toR, toC int) float64 {
	if fromR != toR && fromC != toC {
		return DiagonalCost
	}
	return OrthogonalCost
}

func validWeight(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
