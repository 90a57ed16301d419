package grid

// Transform is the image of a direction under one symmetry operation
type Transform struct {
	D       Direction
	Flipped bool
}

type operation [NumDirections]Transform

func identityOperation() (op operation) {
	for d := range op {
		op[d] = Transform{D: Direction(d)}
	}
	return
}

// Symmetry is a group of rotations and reflections used to reduce the
// computed volume. The zero value is the trivial group.
type Symmetry struct {
	ops []operation
}

// Identity returns the trivial symmetry
func Identity() Symmetry {
	return Symmetry{ops: []operation{identityOperation()}}
}

// Multiplicity returns the order of the group
func (s Symmetry) Multiplicity() int {
	if len(s.ops) == 0 {
		return 1
	}
	return len(s.ops)
}

// Transform returns where operation n sends direction d
func (s Symmetry) Transform(d Direction, n int) Transform {
	if len(s.ops) == 0 {
		return Transform{D: d}
	}
	return s.ops[n][d]
}

// Mirror returns the reflection through the plane normal to d
func Mirror(d Direction) Symmetry {
	flip := identityOperation()
	flip[d].Flipped = true
	return Symmetry{ops: []operation{identityOperation(), flip}}
}

func planeOf(d Direction) (a, b Direction) {
	switch d {
	case X:
		return Y, Z
	case Y:
		return Z, X
	default:
		return X, Y
	}
}

// Rotate2 returns the two-fold rotation about the cartesian axis d, which
// flips both axes of the plane normal to d
func Rotate2(d Direction) Symmetry {
	a, b := planeOf(d)
	rot := identityOperation()
	rot[a].Flipped = true
	rot[b].Flipped = true
	return Symmetry{ops: []operation{identityOperation(), rot}}
}

// Rotate4 returns the four-fold rotation about the cartesian axis d
func Rotate4(d Direction) Symmetry {
	a, b := planeOf(d)
	ops := make([]operation, 4)
	for n := range ops {
		op := identityOperation()
		switch n {
		case 1:
			op[a] = Transform{D: b}
			op[b] = Transform{D: a, Flipped: true}
		case 2:
			op[a] = Transform{D: a, Flipped: true}
			op[b] = Transform{D: b, Flipped: true}
		case 3:
			op[a] = Transform{D: b, Flipped: true}
			op[b] = Transform{D: a}
		}
		ops[n] = op
	}
	return Symmetry{ops: ops}
}

// Compose returns the product group: every operation of b followed by every
// operation of a
func Compose(a, b Symmetry) Symmetry {
	out := Symmetry{ops: make([]operation, 0, a.Multiplicity()*b.Multiplicity())}
	for i := 0; i < a.Multiplicity(); i++ {
		for j := 0; j < b.Multiplicity(); j++ {
			var op operation
			for d := 0; d < NumDirections; d++ {
				first := b.Transform(Direction(d), j)
				second := a.Transform(first.D, i)
				op[d] = Transform{D: second.D, Flipped: first.Flipped != second.Flipped}
			}
			out.ops = append(out.ops, op)
		}
	}
	return out
}

// Moves reports whether any operation of the group maps d to another axis
// or flips it
func (s Symmetry) Moves(d Direction) bool {
	for n := 0; n < s.Multiplicity(); n++ {
		t := s.Transform(d, n)
		if t.D != d || t.Flipped {
			return true
		}
	}
	return false
}
