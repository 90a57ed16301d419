package pml

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantizedDistance(t *testing.T) {
	testCases := []struct {
		a, x, y, want float64
	}{
		{1, 0, 0, 0},
		{1, 0.2, 0, 0},
		{1, 0.3, 0, 0.5},
		{1, 0, 1.1, 1},
		{2, 3, 2.6, 0.5},
		{10, 1, 0.93, 0.05},
	}
	for _, tc := range testCases {
		assert.InDelta(t, tc.want, QuantizedDistance(tc.a, tc.x, tc.y), 1e-12,
			"a=%g x=%g y=%g", tc.a, tc.x, tc.y)
	}
}

func TestOverlaps(t *testing.T) {
	// chunk covering [2,5] on a unit grid, layer 1 thick
	assert.True(t, Overlaps(3, 2, 5, 1, 1))
	assert.True(t, Overlaps(7, 2, 5, 1, 1))
	assert.True(t, Overlaps(0, 2, 5, 1, 1))
	assert.False(t, Overlaps(7.01, 2, 5, 1, 1))
	assert.False(t, Overlaps(-0.01, 2, 5, 1, 1))
}

func TestConductivity_Ramp(t *testing.T) {
	const (
		thickness = 2.0
		a         = 10.0
	)
	// zero at and beyond the inner edge of the layer
	for _, dist := range []float64{2, 2.04, 3, 100} {
		assert.Equal(t, 0.0, Conductivity(DefaultCmax, thickness, a, dist), "dist=%g", dist)
	}
	assert.InDelta(t, DefaultCmax, Conductivity(DefaultCmax, thickness, a, 0), 1e-15)

	// strictly increasing with depth into the layer
	prev := 0.0
	for step := 1; step <= 40; step++ {
		dist := thickness - float64(step)*0.5/a
		sigma := Conductivity(DefaultCmax, thickness, a, dist)
		assert.Greater(t, sigma, prev, "dist=%g", dist)
		prev = sigma
	}
}

func TestDecay(t *testing.T) {
	assert.Equal(t, 1.0, MagneticDecay(0))
	assert.InDelta(t, 0.8, MagneticDecay(0.5), 1e-15)
	assert.Equal(t, 0.25, ElectricDecay(0.25, 0))
	assert.InDelta(t, 0.25/(1+0.5*0.5*0.25), ElectricDecay(0.25, 0.5), 1e-15)
	assert.Less(t, ElectricDecay(1, 0.5), ElectricDecay(1, 0.1))
}

func TestQuadraticProfile(t *testing.T) {
	sig := QuadraticProfile(8, DefaultCmax)
	require.Len(t, sig, 8)
	for i := range sig {
		assert.InDelta(t, DefaultCmax*math.Pow((float64(i)+0.5)/8, 2), sig[i], 1e-15)
		if i > 0 {
			assert.Greater(t, sig[i], sig[i-1])
		}
	}
	assert.Empty(t, QuadraticProfile(0, DefaultCmax))
	assert.Empty(t, QuadraticProfile(-3, DefaultCmax))
}

func TestBadness_Bounds(t *testing.T) {
	profiles := map[string][]float64{
		"zero":      make([]float64, 6),
		"quadratic": QuadraticProfile(6, DefaultCmax),
		"steep":     {0, 10, 0, 10, 0, 10},
		"huge":      {1e6, 1e6, 1e6},
		"negative":  {-1, -2, 3},
	}
	for name, sig := range profiles {
		t.Run(name, func(t *testing.T) {
			for _, thickness := range []int{-1, 0} {
				assert.Equal(t, 1.0, Badness(sig, thickness, 1, 0.2))
			}
			for thickness := 1; thickness <= len(sig); thickness++ {
				for _, eps := range []float64{1, 2.25, 12} {
					b := Badness(sig, thickness, eps, 0.2)
					assert.GreaterOrEqual(t, b, 0.0)
					assert.LessOrEqual(t, b, 1.0)
				}
			}
		})
	}
}

func TestBadness_Absorbs(t *testing.T) {
	// a transparent layer reflects everything back off the outer wall
	assert.Equal(t, 1.0, Badness(make([]float64, 10), 10, 1, 0.2))
	assert.Less(t, Badness(QuadraticProfile(10, DefaultCmax), 10, 1, 0.2), 0.5)
	assert.Panics(t, func() { Badness(make([]float64, 2), 3, 1, 0.2) })
}

func TestMinimizeBadness(t *testing.T) {
	for _, n := range []int{2, 5, 10} {
		t.Run(fmt.Sprintf("layers_%d", n), func(t *testing.T) {
			sig := QuadraticProfile(n, DefaultCmax)
			start := Badness(sig, n, 1, 0.2)
			for i := range sig {
				before := Badness(sig, n, 1, 0.2)
				after := MinimizeBadness(sig, n, 1, 0.2, i)
				assert.LessOrEqual(t, after, before)
				assert.Equal(t, Badness(sig, n, 1, 0.2), after)
			}
			assert.LessOrEqual(t, Badness(sig, n, 1, 0.2), start)
		})
	}
}

func TestOptimize(t *testing.T) {
	sig := QuadraticProfile(6, DefaultCmax)
	start := Badness(sig, len(sig), 2.25, 0.2)
	b := Optimize(sig, 2.25, 0.2, 3)
	assert.LessOrEqual(t, b, start)
	assert.Equal(t, Badness(sig, len(sig), 2.25, 0.2), b)
	for _, s := range sig {
		assert.GreaterOrEqual(t, s, 0.0)
	}
}

func TestOptimizeNelderMead(t *testing.T) {
	start := QuadraticProfile(6, DefaultCmax)
	orig := append([]float64(nil), start...)
	startBadness := Badness(start, len(start), 1, 0.2)

	sig, b, err := OptimizeNelderMead(start, 1, 0.2)
	require.NoError(t, err)
	require.Len(t, sig, len(start))
	assert.LessOrEqual(t, b, startBadness)
	assert.InDelta(t, Badness(sig, len(sig), 1, 0.2), b, 1e-15)
	for _, s := range sig {
		assert.GreaterOrEqual(t, s, 0.0)
	}
	// the caller's profile is left alone
	assert.Equal(t, orig, start)

	empty, b, err := OptimizeNelderMead(nil, 1, 0.2)
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.Equal(t, 1.0, b)
}
