package material

import (
	"github.com/notargets/FDTDMaterial/grid"
	"gonum.org/v1/gonum/floats"
)

// Polarizability is one Lorentzian term of a dispersive material. Sigma holds
// the oscillator strength at every cell for each electric component the grid
// carries; the other entries are nil.
type Polarizability struct {
	Omega float64 // resonance frequency
	Gamma float64 // damping rate
	Sigma [grid.NumComponents][]float64
}

// NewPolarizability samples sigma at the location of every electric
// component of v
func NewPolarizability(v grid.Volume, sigma EpsFunc, omega, gamma float64) *Polarizability {
	p := &Polarizability{Omega: omega, Gamma: gamma}
	for _, c := range grid.Fields(v.Dim) {
		if !c.IsElectric() {
			continue
		}
		s := make([]float64, v.NTot())
		for i := range s {
			s[i] = sigma(v.Loc(c, i))
		}
		p.Sigma[c] = s
	}
	return p
}

func (p *Polarizability) clone() *Polarizability {
	out := &Polarizability{Omega: p.Omega, Gamma: p.Gamma}
	for c, s := range p.Sigma {
		if s != nil {
			out.Sigma[c] = append([]float64(nil), s...)
		}
	}
	return out
}

// mix moves the strengths a fraction f of the way toward o
func (p *Polarizability) mix(o *Polarizability, f float64) {
	for c, s := range p.Sigma {
		if s == nil {
			continue
		}
		diff := floats.SubTo(make([]float64, len(s)), o.Sigma[c], s)
		floats.AddScaled(s, f, diff)
	}
}

func (p *Polarizability) matches(o *Polarizability) bool {
	for c := range p.Sigma {
		if len(p.Sigma[c]) != len(o.Sigma[c]) {
			return false
		}
	}
	return true
}
