package grid

import (
	"errors"
	"fmt"
)

// ErrUnsupportedDimension is returned whenever an operation is asked to
// work on a dimensionality it has no discretization for.
var ErrUnsupportedDimension = errors.New("unsupported dimensionality")

// Dimension identifies the grid geometry of a Volume
type Dimension uint8

const (
	D1   Dimension = iota // Single axis along Z, fields Ex/Hy
	D2                    // Cartesian X-Y plane
	D3                    // Cartesian X-Y-Z
	Dcyl                  // Cylindrical R-Z with azimuthal components
)

func (d Dimension) String() string {
	switch d {
	case D1:
		return "1D"
	case D2:
		return "2D"
	case D3:
		return "3D"
	case Dcyl:
		return "Cylindrical"
	default:
		return fmt.Sprintf("Dimension(%d)", uint8(d))
	}
}

// Direction is a coordinate axis
type Direction uint8

const (
	X Direction = iota
	Y
	Z
	R
	P // azimuthal
)

// NumDirections is the number of Direction values
const NumDirections = 5

var directionNames = [NumDirections]string{"x", "y", "z", "r", "p"}

func (d Direction) String() string {
	if int(d) < NumDirections {
		return directionNames[d]
	}
	return fmt.Sprintf("Direction(%d)", uint8(d))
}

// Side selects the low or high boundary of a Volume along a direction
type Side uint8

const (
	Low Side = iota
	High
)

func (s Side) String() string {
	if s == Low {
		return "low"
	}
	return "high"
}

// Component is a field component on the staggered grid
type Component uint8

const (
	Ex Component = iota
	Ey
	Er
	Ep
	Ez
	Hx
	Hy
	Hr
	Hp
	Hz
)

// NumComponents is the number of Component values
const NumComponents = 10

var componentNames = [NumComponents]string{
	"ex", "ey", "er", "ep", "ez", "hx", "hy", "hr", "hp", "hz",
}

func (c Component) String() string {
	if int(c) < NumComponents {
		return componentNames[c]
	}
	return fmt.Sprintf("Component(%d)", uint8(c))
}

// IsElectric reports whether c is one of the E components
func (c Component) IsElectric() bool { return c < Hx }

// IsMagnetic reports whether c is one of the H components
func (c Component) IsMagnetic() bool { return c >= Hx && c < NumComponents }

// Direction returns the axis the component points along
func (c Component) Direction() Direction {
	switch c {
	case Ex, Hx:
		return X
	case Ey, Hy:
		return Y
	case Er, Hr:
		return R
	case Ep, Hp:
		return P
	default:
		return Z
	}
}

// Axes returns the grid axes of a dimensionality, fastest varying first
func Axes(dim Dimension) []Direction {
	switch dim {
	case D1:
		return []Direction{Z}
	case D2:
		return []Direction{X, Y}
	case D3:
		return []Direction{X, Y, Z}
	case Dcyl:
		return []Direction{R, Z}
	}
	return nil
}

// HasDirection reports whether d is a grid axis for dim
func HasDirection(dim Dimension, d Direction) bool {
	for _, a := range Axes(dim) {
		if a == d {
			return true
		}
	}
	return false
}

// Fields returns the field components carried by a dimensionality
func Fields(dim Dimension) []Component {
	switch dim {
	case D1:
		return []Component{Ex, Hy}
	case D2, D3:
		return []Component{Ex, Ey, Ez, Hx, Hy, Hz}
	case Dcyl:
		return []Component{Er, Ep, Ez, Hr, Hp, Hz}
	}
	return nil
}

// yeeOffset returns the half-cell offsets of component c along each axis.
// Permittivity lives at the EpsComponent location, offset zero everywhere.
func yeeOffset(dim Dimension, c Component) (off [NumDirections]int) {
	switch dim {
	case D1:
		if c == Hy {
			off[Z] = 1
		}
	case D2:
		switch c {
		case Ex, Hy:
			off[X] = 1
		case Ey, Hx:
			off[Y] = 1
		case Hz:
			off[X], off[Y] = 1, 1
		}
	case D3:
		switch c {
		case Ey:
			off[Y] = 1
		case Ez:
			off[Z] = 1
		case Hx:
			off[Y], off[Z] = 1, 1
		case Hy:
			off[X], off[Z] = 1, 1
		case Hz:
			off[X], off[Y] = 1, 1
		}
	case Dcyl:
		switch c {
		case Er, Hz:
			off[R] = 1
		case Ez, Hr:
			off[Z] = 1
		case Hp:
			off[R], off[Z] = 1, 1
		}
	}
	return
}

// Vec is a position, one coordinate per Direction
type Vec [NumDirections]float64

func (v Vec) Add(o Vec) (r Vec) {
	for i := range v {
		r[i] = v[i] + o[i]
	}
	return
}

func (v Vec) Sub(o Vec) (r Vec) {
	for i := range v {
		r[i] = v[i] - o[i]
	}
	return
}

func (v Vec) Scale(s float64) (r Vec) {
	for i := range v {
		r[i] = s * v[i]
	}
	return
}

// In returns the coordinate along d
func (v Vec) In(d Direction) float64 { return v[d] }
