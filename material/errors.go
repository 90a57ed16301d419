package material

import "errors"

var (
	// ErrTopologyMismatch is returned when two grids or chunks being blended
	// are not partitioned the same way
	ErrTopologyMismatch = errors.New("material topologies differ")

	// ErrChainMismatch is returned when two chunks being blended carry a
	// different number of polarizability terms
	ErrChainMismatch = errors.New("polarizability chains differ in length")

	// ErrNoBoundary is returned when an absorbing layer is requested along a
	// direction the volume does not extend in
	ErrNoBoundary = errors.New("volume has no boundary along direction")
)
