package grid

import (
	"fmt"
)

// Volume is an axis-aligned block of grid cells. Cells are addressed by a
// flat index with the first axis of Axes(Dim) varying fastest, the same
// index the field arrays use.
type Volume struct {
	Dim    Dimension
	A      float64            // resolution, cells per unit length
	Origin [NumDirections]int // first cell along each axis
	Num    [NumDirections]int // cells along each axis
}

func cellsFor(size, a float64) int {
	return int(size*a + 0.5)
}

// NewVolume1D returns a 1D volume of length zsize starting at z=0
func NewVolume1D(zsize, a float64) Volume {
	v := Volume{Dim: D1, A: a}
	v.Num[Z] = cellsFor(zsize, a)
	return v
}

// NewVolume2D returns an xsize by ysize cartesian volume at the origin
func NewVolume2D(xsize, ysize, a float64) Volume {
	v := Volume{Dim: D2, A: a}
	v.Num[X] = cellsFor(xsize, a)
	v.Num[Y] = cellsFor(ysize, a)
	return v
}

// NewVolume3D returns a cartesian box at the origin
func NewVolume3D(xsize, ysize, zsize, a float64) Volume {
	v := Volume{Dim: D3, A: a}
	v.Num[X] = cellsFor(xsize, a)
	v.Num[Y] = cellsFor(ysize, a)
	v.Num[Z] = cellsFor(zsize, a)
	return v
}

// NewVolumeCyl returns a cylindrical volume starting on the axis r=0
func NewVolumeCyl(rsize, zsize, a float64) Volume {
	v := Volume{Dim: Dcyl, A: a}
	v.Num[R] = cellsFor(rsize, a)
	v.Num[Z] = cellsFor(zsize, a)
	return v
}

func (v Volume) String() string {
	s := fmt.Sprintf("%s a=%g", v.Dim, v.A)
	for _, d := range Axes(v.Dim) {
		s += fmt.Sprintf(" %s[%d,%d)", d, v.Origin[d], v.Origin[d]+v.Num[d])
	}
	return s
}

// HasDirection reports whether d is a grid axis of the volume
func (v Volume) HasDirection(d Direction) bool { return HasDirection(v.Dim, d) }

// HasField reports whether component c exists on this grid
func (v Volume) HasField(c Component) bool {
	for _, f := range Fields(v.Dim) {
		if f == c {
			return true
		}
	}
	return false
}

// NumDirection returns the cell count along d, zero for non-axes
func (v Volume) NumDirection(d Direction) int {
	if !v.HasDirection(d) {
		return 0
	}
	return v.Num[d]
}

// NTot returns the number of cells in the volume
func (v Volume) NTot() int {
	axes := Axes(v.Dim)
	if len(axes) == 0 {
		return 0
	}
	n := 1
	for _, d := range axes {
		n *= v.Num[d]
	}
	return n
}

// Coords returns the absolute cell coordinates of flat index i
func (v Volume) Coords(i int) (c [NumDirections]int) {
	for _, d := range Axes(v.Dim) {
		c[d] = v.Origin[d] + i%v.Num[d]
		i /= v.Num[d]
	}
	return
}

// Index returns the flat index of absolute cell coordinates c
func (v Volume) Index(c [NumDirections]int) int {
	idx, stride := 0, 1
	for _, d := range Axes(v.Dim) {
		idx += (c[d] - v.Origin[d]) * stride
		stride *= v.Num[d]
	}
	return idx
}

// EpsComponent is the component whose location carries the permittivity
// sample of a cell
func (v Volume) EpsComponent() Component {
	switch v.Dim {
	case D1, D3:
		return Ex
	case Dcyl:
		return Ep
	default:
		return Ez
	}
}

// Loc returns the position of component c in cell i
func (v Volume) Loc(c Component, i int) (pos Vec) {
	cell := v.Coords(i)
	off := yeeOffset(v.Dim, c)
	for _, d := range Axes(v.Dim) {
		pos[d] = (float64(cell[d]) + 0.5*float64(off[d])) / v.A
	}
	return
}

// Step returns a vector one cell long along d
func (v Volume) Step(d Direction) (s Vec) {
	s[d] = 1 / v.A
	return
}

// BoundaryLocation returns the coordinate of the low or high face along d
func (v Volume) BoundaryLocation(side Side, d Direction) float64 {
	if side == Low {
		return float64(v.Origin[d]) / v.A
	}
	return float64(v.Origin[d]+v.Num[d]) / v.A
}

// HasBoundary reports whether the volume has a physical boundary at the
// given side. The cylindrical axis r=0 is not a boundary.
func (v Volume) HasBoundary(side Side, d Direction) bool {
	if !v.HasDirection(d) {
		return false
	}
	if v.Dim == Dcyl && d == R && side == Low && v.Origin[R] == 0 {
		return false
	}
	return true
}

// LongestDirection returns the axis with the most cells, earliest axis on ties
func (v Volume) LongestDirection() Direction {
	axes := Axes(v.Dim)
	best := axes[0]
	for _, d := range axes[1:] {
		if v.Num[d] > v.Num[best] {
			best = d
		}
	}
	return best
}

// SplitAt cuts the volume n cells above its origin along d
func (v Volume) SplitAt(d Direction, n int) (low, high Volume) {
	if n < 0 || n > v.Num[d] {
		panic(fmt.Sprintf("split position %d outside [0,%d] along %s", n, v.Num[d], d))
	}
	low, high = v, v
	low.Num[d] = n
	high.Origin[d] += n
	high.Num[d] -= n
	return
}

// SplitSpecifically returns piece which of n equal slabs along d
func (v Volume) SplitSpecifically(n, which int, d Direction) Volume {
	if n < 1 || which < 0 || which >= n {
		panic(fmt.Sprintf("invalid split %d of %d", which, n))
	}
	start := v.Num[d] * which / n
	end := v.Num[d] * (which + 1) / n
	out := v
	out.Origin[d] += start
	out.Num[d] = end - start
	return out
}

// Split divides the volume into n contiguous pieces by recursive bisection
// along the longest axis and returns piece which. The n pieces cover the
// volume exactly.
func (v Volume) Split(n, which int) Volume {
	if n < 1 || which < 0 || which >= n {
		panic(fmt.Sprintf("invalid split %d of %d", which, n))
	}
	if n == 1 {
		return v
	}
	d := v.LongestDirection()
	nLow := n / 2
	low, high := v.SplitAt(d, v.Num[d]*nLow/n)
	if which < nLow {
		return low.Split(nLow, which)
	}
	return high.Split(n-nLow, which-nLow)
}

// Pad grows the volume by one cell on the high side of d
func (v Volume) Pad(d Direction) Volume {
	v.Num[d]++
	return v
}

// Contains reports whether the absolute cell coordinates lie inside v
func (v Volume) Contains(cell [NumDirections]int) bool {
	for _, d := range Axes(v.Dim) {
		if cell[d] < v.Origin[d] || cell[d] >= v.Origin[d]+v.Num[d] {
			return false
		}
	}
	return true
}

// ContainsVolume reports whether o lies entirely inside v
func (v Volume) ContainsVolume(o Volume) bool {
	for _, d := range Axes(v.Dim) {
		if o.Num[d] == 0 {
			continue
		}
		if o.Origin[d] < v.Origin[d] || o.Origin[d]+o.Num[d] > v.Origin[d]+v.Num[d] {
			return false
		}
	}
	return true
}

// Intersects reports whether the two volumes share at least one cell
func (v Volume) Intersects(o Volume) bool {
	if v.NTot() == 0 || o.NTot() == 0 {
		return false
	}
	for _, d := range Axes(v.Dim) {
		lo := max(v.Origin[d], o.Origin[d])
		hi := min(v.Origin[d]+v.Num[d], o.Origin[d]+o.Num[d])
		if lo >= hi {
			return false
		}
	}
	return true
}
