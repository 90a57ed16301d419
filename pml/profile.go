package pml

import "math"

// DefaultCmax scales the peak conductivity of a layer of unit thickness
const DefaultCmax = 0.5

// QuantizedDistance returns |x-y| rounded to the nearest half cell of a grid
// with resolution a
func QuantizedDistance(a, x, y float64) float64 {
	return (0.5 / a) * float64(int(2*a*math.Abs(x-y)+0.5))
}

// Overlaps reports whether a layer of the given thickness at bloc can reach
// the extent [lo,hi] of a chunk. One extra cell of slack is allowed on
// either side.
func Overlaps(bloc, lo, hi, thickness, a float64) bool {
	return bloc <= hi+thickness+1/a && bloc >= lo-thickness-1/a
}

// Conductivity is the quadratic ramp of a layer with the given thickness,
// evaluated dist away from the outer boundary. It is zero outside the layer
// and grows as (thickness-dist)^2 toward the boundary, reaching cmax at it.
func Conductivity(cmax, thickness, a, dist float64) float64 {
	x := thickness - QuantizedDistance(a, dist, 0)
	if x <= 0 {
		return 0
	}
	prefac := cmax / (thickness * thickness)
	return prefac * x * x
}

// MagneticDecay is the implicit half-step damping factor of a magnetic
// component under conductivity sigma
func MagneticDecay(sigma float64) float64 {
	return 1 / (1 + 0.5*sigma)
}

// ElectricDecay folds the inverse permittivity into the implicit damping
// factor of an electric component
func ElectricDecay(invEps, sigma float64) float64 {
	return invEps / (1 + 0.5*sigma*invEps)
}

// QuadraticProfile samples the default ramp at the centres of n layers of
// unit width, ordered from the interior toward the outer boundary
func QuadraticProfile(n int, cmax float64) []float64 {
	sig := make([]float64, max(n, 0))
	for i := range sig {
		sig[i] = Conductivity(cmax, float64(n), 1, float64(n-i)-0.5)
	}
	return sig
}
