package pml

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
)

const (
	// Multiplicative step of the coordinate search
	hillStep = 1.001
	// Bound on steps taken in one direction by MinimizeBadness
	maxHillSteps = 1 << 16
	// Bound on badness evaluations by OptimizeNelderMead
	maxNelderMeadEvals = 20000
)

// Badness estimates the fraction of an incident wave reflected by the first
// thickness layers of the conductivity profile sig, for a medium of
// permittivity eps and frequencies down to fmin. Interfaces reflect in
// proportion to the square of the conductivity jump across them and the
// layers between them attenuate. The result lies in [0,1]; 1 is returned
// when thickness < 1.
func Badness(sig []float64, thickness int, eps, fmin float64) float64 {
	if thickness < 1 {
		return 1
	}
	if thickness > len(sig) {
		panic(fmt.Sprintf("profile of %d layers evaluated with thickness %d", len(sig), thickness))
	}
	var (
		reflScale = .0001 / fmin * .1 / fmin
		decayRate = 6.0 / eps * 2.25 / eps
	)
	sofar := 1.0
	for i := 0; i < thickness-1; i++ {
		jump := math.Abs(sig[i] - sig[i+1])
		refl := math.Min(reflScale*jump*jump, 1)
		trans := math.Exp(-decayRate*sig[i]) * math.Exp(-decayRate*sig[i+1])
		sofar = math.Min(refl+(1-refl)*trans*sofar, 1)
	}
	last := math.Min(reflScale*math.Abs(sig[thickness-1]), 1)
	return last + (1-last)*sofar
}

// MinimizeBadness tunes sig[i] in place. It scales the entry up by a fixed
// factor while the badness of the whole profile keeps falling, then scales it
// down the same way, and returns the resulting badness. This is a local
// search over one coordinate; it stops at the first minimum it meets.
func MinimizeBadness(sig []float64, thickness int, eps, fmin float64, i int) float64 {
	descend := func(scale float64) {
		now := Badness(sig, thickness, eps, fmin)
		for n := 0; n < maxHillSteps; n++ {
			prev := sig[i]
			sig[i] *= scale
			tried := Badness(sig, thickness, eps, fmin)
			if tried >= now {
				sig[i] = prev
				return
			}
			now = tried
		}
	}
	descend(hillStep)
	descend(1 / hillStep)
	return Badness(sig, thickness, eps, fmin)
}

// Optimize runs sweeps passes of MinimizeBadness over every layer of sig and
// returns the final badness
func Optimize(sig []float64, eps, fmin float64, sweeps int) float64 {
	b := Badness(sig, len(sig), eps, fmin)
	for s := 0; s < sweeps; s++ {
		for i := range sig {
			b = MinimizeBadness(sig, len(sig), eps, fmin, i)
		}
	}
	return b
}

// OptimizeNelderMead searches for a profile of the same thickness as start
// with lower badness using a simplex search over all layers at once. Negative
// conductivities are rejected by scoring them as total reflection. The
// returned profile is never worse than start.
func OptimizeNelderMead(start []float64, eps, fmin float64) ([]float64, float64, error) {
	best := append([]float64(nil), start...)
	bestBadness := Badness(best, len(best), eps, fmin)
	if len(start) == 0 {
		return best, bestBadness, nil
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			for _, s := range x {
				if s < 0 {
					return 1
				}
			}
			return Badness(x, len(x), eps, fmin)
		},
	}
	settings := &optimize.Settings{
		FuncEvaluations: maxNelderMeadEvals,
	}
	method := &optimize.NelderMead{
		SimplexSize: 0.1 * math.Max(start[len(start)-1], 1e-3),
	}

	result, err := optimize.Minimize(problem, append([]float64(nil), start...), settings, method)
	if err != nil {
		return best, bestBadness, fmt.Errorf("profile optimization failed: %w", err)
	}
	if result.F < bestBadness {
		copy(best, result.X)
		bestBadness = result.F
	}
	return best, bestBadness, nil
}
