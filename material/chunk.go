package material

import (
	"fmt"
	"math"

	"github.com/notargets/FDTDMaterial/grid"
	"github.com/notargets/FDTDMaterial/pml"
	"gonum.org/v1/gonum/floats"
)

// DefaultPMLFmin is the lowest frequency an absorbing layer is tuned for
const DefaultPMLFmin = 0.2

// EpsFunc samples a material property at a position
type EpsFunc func(pos grid.Vec) float64

// Chunk holds the material coefficients of one piece of the grid. Every
// rank knows the topology of every chunk, but only the owner allocates and
// updates the arrays; on other ranks they stay nil. All arrays are indexed
// by the flat cell index of Volume.
type Chunk struct {
	ID     int
	Volume grid.Volume
	Owner  int
	rank   int

	// Permittivity at the EpsComponent location of each cell
	Eps []float64

	// InvEps[c][d] is the inverse permittivity seen by electric component c
	// along d. Only the diagonal entries d == c.Direction() are filled at
	// construction.
	InvEps [grid.NumComponents][grid.NumDirections][]float64

	// Conductivity[d][c] is the absorbing layer strength along d felt by
	// component c, nil until a layer along d is requested
	Conductivity [grid.NumDirections][grid.NumComponents][]float64

	// Decay[d][c][d2] is the implicit damping factor for c derived from
	// Conductivity[d][c]; nil means no damping
	Decay [grid.NumDirections][grid.NumComponents][grid.NumDirections][]float64

	// Dispersive terms, applied in order
	Polarizabilities []*Polarizability

	PMLFmin float64
}

// NewChunk builds the chunk covering v for owner as seen from rank. Owned
// chunks sample eps at every cell and derive the face-averaged inverse
// permittivity of each electric component.
func NewChunk(v grid.Volume, eps EpsFunc, owner, rank int) (*Chunk, error) {
	switch v.Dim {
	case grid.D1, grid.D2, grid.Dcyl:
	default:
		return nil, fmt.Errorf("%w: cannot sample permittivity on %s grid",
			grid.ErrUnsupportedDimension, v.Dim)
	}
	c := &Chunk{
		Volume:  v,
		Owner:   owner,
		rank:    rank,
		PMLFmin: DefaultPMLFmin,
	}
	if !c.IsMine() {
		return c, nil
	}

	n := v.NTot()
	c.Eps = make([]float64, n)
	for i := range c.Eps {
		c.Eps[i] = eps(v.Loc(v.EpsComponent(), i))
	}
	for _, comp := range grid.Fields(v.Dim) {
		if comp.IsElectric() {
			c.InvEps[comp][comp.Direction()] = make([]float64, n)
		}
	}

	switch v.Dim {
	case grid.D1:
		inv := c.InvEps[grid.Ex][grid.X]
		for i := range inv {
			inv[i] = 1 / c.Eps[i]
		}
	case grid.D2:
		inv := c.InvEps[grid.Ez][grid.Z]
		for i := range inv {
			inv[i] = 1 / c.Eps[i]
		}
		for _, comp := range []grid.Component{grid.Ex, grid.Ey} {
			d := comp.Direction()
			h := v.Step(d).Scale(0.5)
			inv := c.InvEps[comp][d]
			for i := range inv {
				here := v.Loc(comp, i)
				inv[i] = 2 / (eps(here.Add(h)) + eps(here.Sub(h)))
			}
		}
	case grid.Dcyl:
		dr := v.Step(grid.R).Scale(0.5)
		dz := v.Step(grid.Z).Scale(0.5)
		invR := c.InvEps[grid.Er][grid.R]
		invP := c.InvEps[grid.Ep][grid.P]
		invZ := c.InvEps[grid.Ez][grid.Z]
		for i := 0; i < n; i++ {
			here := v.Loc(grid.Ep, i)
			pp := eps(here.Add(dr).Add(dz))
			pm := eps(here.Add(dr).Sub(dz))
			mp := eps(here.Sub(dr).Add(dz))
			mm := eps(here.Sub(dr).Sub(dz))
			invR[i] = 2 / (pp + pm)
			invP[i] = 4 / (pp + mp + pm + mm)
			invZ[i] = 2 / (pp + mp)
		}
	}
	return c, nil
}

// IsMine reports whether the local rank owns the chunk's data
func (c *Chunk) IsMine() bool { return c.Owner == c.rank }

// Clone returns a deep copy. Owned arrays and the polarizability chain get
// independent storage.
func (c *Chunk) Clone() *Chunk {
	out := &Chunk{
		ID:      c.ID,
		Volume:  c.Volume,
		Owner:   c.Owner,
		rank:    c.rank,
		PMLFmin: c.PMLFmin,
	}
	if !c.IsMine() {
		return out
	}
	out.Eps = clone(c.Eps)
	for comp := range c.InvEps {
		for d := range c.InvEps[comp] {
			out.InvEps[comp][d] = clone(c.InvEps[comp][d])
		}
	}
	for d := range c.Conductivity {
		for comp := range c.Conductivity[d] {
			out.Conductivity[d][comp] = clone(c.Conductivity[d][comp])
			for d2 := range c.Decay[d][comp] {
				out.Decay[d][comp][d2] = clone(c.Decay[d][comp][d2])
			}
		}
	}
	for _, p := range c.Polarizabilities {
		out.Polarizabilities = append(out.Polarizabilities, p.clone())
	}
	return out
}

func clone(s []float64) []float64 {
	if s == nil {
		return nil
	}
	return append([]float64(nil), s...)
}

// Free releases the chunk's arrays
func (c *Chunk) Free() {
	c.Eps = nil
	c.InvEps = [grid.NumComponents][grid.NumDirections][]float64{}
	c.Conductivity = [grid.NumDirections][grid.NumComponents][]float64{}
	c.Decay = [grid.NumDirections][grid.NumComponents][grid.NumDirections][]float64{}
	c.Polarizabilities = nil
}

// MaxEps returns the largest permittivity in the chunk, zero when nothing
// is held locally
func (c *Chunk) MaxEps() float64 {
	if len(c.Eps) == 0 {
		return 0
	}
	return math.Max(0, floats.Max(c.Eps))
}

// MakeAverageEps replaces the permittivity with its mean over this chunk
// only. Use Grid.MakeAverageEps for the mean over the whole grid.
func (c *Chunk) MakeAverageEps() {
	if len(c.Eps) == 0 {
		return
	}
	c.setUniformEps(floats.Sum(c.Eps) / float64(len(c.Eps)))
}

func (c *Chunk) setUniformEps(eps float64) {
	if !c.IsMine() {
		return
	}
	for i := range c.Eps {
		c.Eps[i] = eps
	}
	for _, comp := range grid.Fields(c.Volume.Dim) {
		if !comp.IsElectric() {
			continue
		}
		inv := c.InvEps[comp][comp.Direction()]
		for i := range inv {
			inv[i] = 1 / eps
		}
	}
}

// UsePML adds an absorbing layer of the given thickness whose outer face
// sits at bloc along d. Components pointing along d are not damped. Cells
// outside the layer keep whatever conductivity they already had, so layers
// on both sides of an axis accumulate.
func (c *Chunk) UsePML(d grid.Direction, thickness, bloc, cmax float64) {
	v := c.Volume
	if !v.HasDirection(d) {
		return
	}
	lo, hi := v.BoundaryLocation(grid.Low, d), v.BoundaryLocation(grid.High, d)
	if !pml.Overlaps(bloc, lo, hi, thickness, v.A) || !c.IsMine() {
		return
	}

	n := v.NTot()
	for _, comp := range grid.Fields(v.Dim) {
		if comp.Direction() == d {
			continue
		}
		if c.Conductivity[d][comp] == nil {
			c.Conductivity[d][comp] = make([]float64, n)
		}
		sigma := c.Conductivity[d][comp]
		for i := range sigma {
			dist := math.Abs(bloc - v.Loc(comp, i).In(d))
			if s := pml.Conductivity(cmax, thickness, v.A, dist); s > 0 {
				sigma[i] = s
			}
		}
	}

	for _, comp := range grid.Fields(v.Dim) {
		sigma := c.Conductivity[d][comp]
		if sigma == nil {
			continue
		}
		for d2 := grid.Direction(0); d2 < grid.NumDirections; d2++ {
			if d2 == d {
				continue
			}
			inv := c.InvEps[comp][d2]
			if inv == nil && d2 != comp.Direction() {
				continue
			}
			if c.Decay[d][comp][d2] == nil {
				c.Decay[d][comp][d2] = make([]float64, n)
			}
			decay := c.Decay[d][comp][d2]
			for i := range decay {
				if comp.IsMagnetic() {
					decay[i] = pml.MagneticDecay(sigma[i])
				} else {
					decay[i] = pml.ElectricDecay(inv[i], sigma[i])
				}
			}
		}
	}
}

// checkMix reports whether o can be blended into c
func (c *Chunk) checkMix(o *Chunk) error {
	if c.Volume != o.Volume || c.Owner != o.Owner {
		return fmt.Errorf("%w: chunk %d covers %v, other covers %v",
			ErrTopologyMismatch, c.ID, c.Volume, o.Volume)
	}
	if !c.IsMine() {
		return nil
	}
	if len(o.Eps) != len(c.Eps) {
		return fmt.Errorf("%w: chunk %d has no local data in the other grid",
			ErrTopologyMismatch, c.ID)
	}
	for comp := range c.InvEps {
		for d := range c.InvEps[comp] {
			if c.InvEps[comp][d] != nil && len(o.InvEps[comp][d]) != len(c.InvEps[comp][d]) {
				return fmt.Errorf("%w: chunk %d lacks inverse permittivity %s/%s in the other grid",
					ErrTopologyMismatch, c.ID, grid.Component(comp), grid.Direction(d))
			}
		}
	}
	if len(c.Polarizabilities) != len(o.Polarizabilities) {
		return fmt.Errorf("%w: chunk %d has %d terms, other has %d",
			ErrChainMismatch, c.ID, len(c.Polarizabilities), len(o.Polarizabilities))
	}
	for k, p := range c.Polarizabilities {
		if !p.matches(o.Polarizabilities[k]) {
			return fmt.Errorf("%w: chunk %d term %d samples different components",
				ErrChainMismatch, c.ID, k)
		}
	}
	return nil
}

// MixWith moves the material a fraction f of the way toward o. Permittivity
// is blended in inverse space, the per-component inverse permittivities and
// polarizability strengths linearly. Nothing is changed on error.
func (c *Chunk) MixWith(o *Chunk, f float64) error {
	if err := c.checkMix(o); err != nil {
		return err
	}
	c.mix(o, f)
	return nil
}

func (c *Chunk) mix(o *Chunk, f float64) {
	if !c.IsMine() {
		return
	}
	for i, e := range c.Eps {
		c.Eps[i] = 1 / (1/e + f*(1/o.Eps[i]-1/e))
	}
	for comp := range c.InvEps {
		for d, inv := range c.InvEps[comp] {
			if inv == nil {
				continue
			}
			diff := floats.SubTo(make([]float64, len(inv)), o.InvEps[comp][d], inv)
			floats.AddScaled(inv, f, diff)
		}
	}
	for k, p := range c.Polarizabilities {
		p.mix(o.Polarizabilities[k], f)
	}
}
