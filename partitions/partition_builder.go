package partitions

import (
	"errors"
	"fmt"

	"github.com/notargets/FDTDMaterial/grid"
)

// ErrOddGridPoints is returned when a direction the symmetry acts on has an
// odd number of cells and so cannot be halved
var ErrOddGridPoints = errors.New("odd number of grid points along a symmetry direction")

// PartitionStrategy defines how chunks are assigned to processes
type PartitionStrategy int

const (
	// Contiguous blocks of chunk IDs per process: owner = i*P/N
	BlockPartition PartitionStrategy = iota
	// Distribute chunks cyclically: owner = i mod P
	RoundRobin
)

func (s PartitionStrategy) String() string {
	switch s {
	case BlockPartition:
		return "block"
	case RoundRobin:
		return "roundrobin"
	default:
		return fmt.Sprintf("PartitionStrategy(%d)", int(s))
	}
}

// PartitionBuilder constructs a chunk layout from a user volume
type PartitionBuilder struct {
	Volume    grid.Volume
	Symmetry  grid.Symmetry
	NumChunks int // 0 means one chunk per process
	NumProcs  int
	Strategy  PartitionStrategy
}

// ChooseChunkDivision partitions v into numChunks chunks over numProcs
// processes using block ownership
func ChooseChunkDivision(v grid.Volume, numChunks int, s grid.Symmetry, numProcs int) (*ChunkLayout, error) {
	pb := &PartitionBuilder{
		Volume:    v,
		Symmetry:  s,
		NumChunks: numChunks,
		NumProcs:  numProcs,
		Strategy:  BlockPartition,
	}
	return pb.BuildPartitions()
}

// BuildPartitions creates the chunk layout
func (pb *PartitionBuilder) BuildPartitions() (*ChunkLayout, error) {
	if pb.NumProcs < 1 {
		return nil, fmt.Errorf("invalid process count %d", pb.NumProcs)
	}

	// Determine number of chunks needed
	numChunks, err := pb.calculateNumChunks()
	if err != nil {
		return nil, err
	}

	// Shrink the volume to the part not reconstructed by symmetry
	v, broken, err := pb.reduceBySymmetry()
	if err != nil {
		return nil, err
	}

	layout := &ChunkLayout{
		Chunks:     make([]Chunk, numChunks),
		UserVolume: pb.Volume,
		Volume:     v,
		Symmetry:   pb.Symmetry,
		Broken:     broken,
		NumChunks:  numChunks,
		NumProcs:   pb.NumProcs,
	}
	for i := range layout.Chunks {
		layout.Chunks[i] = Chunk{
			ID:     i,
			Volume: v.Split(numChunks, i),
			Owner:  pb.assignOwner(i, numChunks),
		}
	}

	// Validate the layout
	if err := layout.ValidateLayout(); err != nil {
		return nil, fmt.Errorf("invalid chunk layout: %w", err)
	}

	return layout, nil
}

func (pb *PartitionBuilder) calculateNumChunks() (int, error) {
	switch {
	case pb.NumChunks == 0:
		return pb.NumProcs, nil
	case pb.NumChunks < 0:
		return 0, fmt.Errorf("invalid chunk count %d", pb.NumChunks)
	}
	return pb.NumChunks, nil
}

// reduceBySymmetry halves the volume along every direction the symmetry
// moves or flips, keeping the low half, then pads each halved direction by
// one cell so the symmetry plane is included
func (pb *PartitionBuilder) reduceBySymmetry() (v grid.Volume, broken [grid.NumDirections]bool, err error) {
	v = pb.Volume
	if pb.Symmetry.Multiplicity() <= 1 {
		return
	}
	if v.Dim != grid.D2 {
		err = fmt.Errorf("%w: symmetries are only supported in 2D cartesian, got %s",
			grid.ErrUnsupportedDimension, v.Dim)
		return
	}
	for _, d := range grid.Axes(v.Dim) {
		if !pb.Symmetry.Moves(d) {
			continue
		}
		broken[d] = true
		if v.NumDirection(d)&1 == 1 {
			err = fmt.Errorf("%w: %d cells along %s", ErrOddGridPoints, v.NumDirection(d), d)
			return
		}
	}
	for _, d := range grid.Axes(v.Dim) {
		if broken[d] {
			v = v.SplitSpecifically(2, 0, d)
		}
	}
	for _, d := range grid.Axes(v.Dim) {
		if broken[d] {
			v = v.Pad(d)
		}
	}
	return
}

func (pb *PartitionBuilder) assignOwner(i, numChunks int) int {
	switch pb.Strategy {
	case RoundRobin:
		return i % pb.NumProcs
	default:
		return i * pb.NumProcs / numChunks
	}
}
