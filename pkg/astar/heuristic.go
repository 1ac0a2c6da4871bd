package astar

import (
	"fmt"

	"github.com/nano/citypath/pkg/coord"
	"github.com/nano/citypath/pkg/errutil"
)

// Movement selects the neighbourhood expanded per cell.
type Movement uint8

const (
	FourWay  Movement = 4
	EightWay Movement = 8
)

func (m Movement) Valid() bool {
	return m == FourWay || m == EightWay
}

func ParseMovement(n int) (Movement, error) {
	m := Movement(n)
	if n < 0 || n > 255 || !m.Valid() {
		return 0, fmt.Errorf("%w: %d", errutil.ErrInvalidMovement, n)
	}
	return m, nil
}

// Heuristic estimates the remaining cost between two cells. Scale must not
// exceed the cheapest step multiplier, otherwise the estimate is no longer
// admissible.
type Heuristic struct {
	Movement Movement
	Scale    float64
}

func NewHeuristic(m Movement, scale float64) Heuristic {
	if scale <= 0 || scale > 1 {
		scale = 1
	}
	return Heuristic{Movement: m, Scale: scale}
}

// Estimate is Chebyshev distance for 8-way movement and Manhattan for 4-way.
func (h Heuristic) Estimate(a, b coord.Cell) float64 {
	dr := abs(a.R - b.R)
	dc := abs(a.C - b.C)
	if h.Movement == FourWay {
		return float64(dr+dc) * h.Scale
	}
	if dr > dc {
		return float64(dr) * h.Scale
	}
	return float64(dc) * h.Scale
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
