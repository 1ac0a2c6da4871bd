package astar

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func drain(f Frontier) []int32 {
	var out []int32
	for f.Len() > 0 {
		n, ok := f.Pop()
		if !ok {
			break
		}
		out = append(out, n)
	}
	return out
}

func TestFrontierOrderAndTies(t *testing.T) {
	for _, f := range []Frontier{&LinearFrontier{}, NewHeapFrontier(4)} {
		f.Push(10, 3)
		f.Push(11, 1)
		f.Push(12, 2)
		f.Push(13, 1)
		f.Push(14, 2)
		assert.Equal(t, []int32{11, 13, 12, 14, 10}, drain(f))

		_, ok := f.Pop()
		assert.False(t, ok)
	}
}

func TestFrontierRandomAgreement(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	linear, hp := &LinearFrontier{}, NewHeapFrontier(0)
	for i := 0; i < 500; i++ {
		f := float64(rng.Intn(20))
		linear.Push(int32(i), f)
		hp.Push(int32(i), f)
		if rng.Intn(3) == 0 {
			a, _ := linear.Pop()
			b, _ := hp.Pop()
			assert.Equal(t, a, b)
		}
	}
	assert.Equal(t, drain(linear), drain(hp))
}

func TestFrontierReset(t *testing.T) {
	for _, f := range []Frontier{&LinearFrontier{}, NewHeapFrontier(1)} {
		f.Push(1, 1)
		f.Reset()
		assert.Equal(t, 0, f.Len())
	}
}

func TestFrontierKindResolve(t *testing.T) {
	assert.Equal(t, FrontierLinear, FrontierAuto.Resolve(LinearFrontierMaxCells))
	assert.Equal(t, FrontierHeap, FrontierAuto.Resolve(LinearFrontierMaxCells+1))
	assert.Equal(t, FrontierLinear, FrontierLinear.Resolve(1<<20))

	k, ok := ParseFrontierKind("heap")
	assert.True(t, ok)
	assert.Equal(t, FrontierHeap, k)
	_, ok = ParseFrontierKind("fib")
	assert.False(t, ok)
	assert.Equal(t, "linear", FrontierLinear.String())
}
