package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSymmetry_Multiplicity(t *testing.T) {
	testCases := []struct {
		name string
		s    Symmetry
		mult int
	}{
		{"zero", Symmetry{}, 1},
		{"identity", Identity(), 1},
		{"mirror", Mirror(X), 2},
		{"rotate2", Rotate2(Z), 2},
		{"rotate4", Rotate4(Z), 4},
		{"mirror_x_mirror", Compose(Mirror(X), Mirror(Y)), 4},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.mult, tc.s.Multiplicity())
		})
	}
}

func TestSymmetry_Moves(t *testing.T) {
	assert.False(t, Identity().Moves(X))

	m := Mirror(X)
	assert.True(t, m.Moves(X))
	assert.False(t, m.Moves(Y))

	r2 := Rotate2(Z)
	assert.True(t, r2.Moves(X))
	assert.True(t, r2.Moves(Y))
	assert.False(t, r2.Moves(Z))

	r4 := Rotate4(Z)
	assert.Equal(t, Transform{D: Y}, r4.Transform(X, 1))
	assert.Equal(t, Transform{D: X, Flipped: true}, r4.Transform(Y, 1))
	assert.Equal(t, Transform{D: X, Flipped: true}, r4.Transform(X, 2))
}

func TestSymmetry_ComposeFlips(t *testing.T) {
	// two mirrors compose into the two-fold rotation
	c := Compose(Mirror(X), Mirror(Y))
	found := false
	for n := 0; n < c.Multiplicity(); n++ {
		if c.Transform(X, n).Flipped && c.Transform(Y, n).Flipped {
			found = true
		}
	}
	assert.True(t, found)
	assert.False(t, c.Moves(Z))
}
