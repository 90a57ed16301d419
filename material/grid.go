package material

import (
	"context"
	"fmt"

	"github.com/notargets/FDTDMaterial/grid"
	"github.com/notargets/FDTDMaterial/parallel"
	"github.com/notargets/FDTDMaterial/partitions"
	"github.com/notargets/FDTDMaterial/pml"
)

// Grid is the set of material chunks covering a simulation volume, as seen
// by one rank. Every rank of a run builds the same Grid; the operations
// taking a context are collective and must be called by all ranks in the
// same order.
type Grid struct {
	Chunks []*Chunk

	// Computational volume after symmetry reduction, covered exactly by Chunks
	Volume grid.Volume

	// Volume as requested by the caller
	UserVolume grid.Volume
	Symmetry   grid.Symmetry
	Layout     *partitions.ChunkLayout

	OutputDir string
	Cmax      float64 // peak absorbing layer conductivity scale
	Verbose   bool

	comm parallel.Communicator
}

// NewGrid partitions v into numChunks chunks (one per rank when 0) under
// symmetry s and samples eps on the chunks owned by comm's rank
func NewGrid(v grid.Volume, eps EpsFunc, numChunks int, s grid.Symmetry, comm parallel.Communicator) (*Grid, error) {
	pb := &partitions.PartitionBuilder{
		Volume:    v,
		Symmetry:  s,
		NumChunks: numChunks,
		Strategy:  partitions.BlockPartition,
	}
	return NewGridFromBuilder(pb, eps, comm)
}

// NewGridFromBuilder builds a grid from an explicit partition request. The
// process count of pb is taken from comm.
func NewGridFromBuilder(pb *partitions.PartitionBuilder, eps EpsFunc, comm parallel.Communicator) (*Grid, error) {
	pb.NumProcs = comm.Size()
	layout, err := pb.BuildPartitions()
	if err != nil {
		return nil, fmt.Errorf("failed to partition %v: %w", pb.Volume, err)
	}

	g := &Grid{
		Chunks:     make([]*Chunk, len(layout.Chunks)),
		Volume:     layout.Volume,
		UserVolume: layout.UserVolume,
		Symmetry:   layout.Symmetry,
		Layout:     layout,
		OutputDir:  ".",
		Cmax:       pml.DefaultCmax,
		comm:       comm,
	}
	for i, lc := range layout.Chunks {
		ch, err := NewChunk(lc.Volume, eps, lc.Owner, comm.Rank())
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i, err)
		}
		ch.ID = lc.ID
		g.Chunks[i] = ch
	}
	return g, nil
}

// Comm returns the communicator the grid was built with
func (g *Grid) Comm() parallel.Communicator { return g.comm }

func (g *Grid) logf(format string, args ...interface{}) {
	if g.Verbose && g.comm.Rank() == 0 {
		fmt.Printf(format, args...)
	}
}

// Clone returns a deep copy of the grid; owned chunks get independent storage
func (g *Grid) Clone() *Grid {
	out := *g
	out.Chunks = make([]*Chunk, len(g.Chunks))
	for i, ch := range g.Chunks {
		out.Chunks[i] = ch.Clone()
	}
	return &out
}

// Free releases every chunk
func (g *Grid) Free() {
	for _, ch := range g.Chunks {
		ch.Free()
	}
	g.Chunks = nil
}

// UsePML adds an absorbing layer of the given thickness against the side
// boundary of the user volume along d
func (g *Grid) UsePML(d grid.Direction, side grid.Side, thickness float64) error {
	if !g.UserVolume.HasDirection(d) {
		return fmt.Errorf("%w: %s in %s", ErrNoBoundary, d, g.UserVolume.Dim)
	}
	if thickness <= 0 {
		return fmt.Errorf("invalid absorbing layer thickness %g", thickness)
	}
	bloc := g.UserVolume.BoundaryLocation(side, d)
	g.logf("Absorbing layer %g thick on %s %s boundary at %g\n", thickness, side, d, bloc)
	for _, ch := range g.Chunks {
		ch.UsePML(d, thickness, bloc, g.Cmax)
	}
	return nil
}

// UsePMLEverywhere surrounds the user volume with absorbing layers on every
// physical boundary
func (g *Grid) UsePMLEverywhere(thickness float64) error {
	for _, side := range []grid.Side{grid.Low, grid.High} {
		for _, d := range grid.Axes(g.UserVolume.Dim) {
			if !g.UserVolume.HasBoundary(side, d) {
				continue
			}
			if err := g.UsePML(d, side, thickness); err != nil {
				return err
			}
		}
	}
	return nil
}

// MixWith blends o into g by fraction f, chunk by chunk. Both grids must be
// partitioned identically and carry matching polarizability chains. Every
// chunk is checked before any is changed.
func (g *Grid) MixWith(o *Grid, f float64) error {
	if len(g.Chunks) != len(o.Chunks) {
		return fmt.Errorf("%w: %d chunks vs %d", ErrTopologyMismatch, len(g.Chunks), len(o.Chunks))
	}
	for i, ch := range g.Chunks {
		if err := ch.checkMix(o.Chunks[i]); err != nil {
			return err
		}
	}
	for i, ch := range g.Chunks {
		ch.mix(o.Chunks[i], f)
	}
	return nil
}

// MaxEps returns the largest permittivity of the whole grid, the same value
// on every rank
func (g *Grid) MaxEps(ctx context.Context) (float64, error) {
	local := 0.0
	for _, ch := range g.Chunks {
		if ch.IsMine() {
			local = max(local, ch.MaxEps())
		}
	}
	return g.comm.MaxToAll(ctx, local)
}

// MakeAverageEps replaces the permittivity of every chunk with the mean over
// the whole computational volume
func (g *Grid) MakeAverageEps(ctx context.Context) error {
	local := 0.0
	for _, ch := range g.Chunks {
		if ch.IsMine() {
			for _, e := range ch.Eps {
				local += e
			}
		}
	}
	total, err := g.comm.SumToAll(ctx, local)
	if err != nil {
		return err
	}
	mean := total / float64(g.Volume.NTot())
	g.logf("Average permittivity %g\n", mean)
	for _, ch := range g.Chunks {
		ch.setUniformEps(mean)
	}
	return nil
}

// AddPolarizability appends a dispersive term with strength sigma to the
// chain of every owned chunk
func (g *Grid) AddPolarizability(sigma EpsFunc, omega, gamma float64) {
	for _, ch := range g.Chunks {
		if ch.IsMine() {
			ch.Polarizabilities = append(ch.Polarizabilities,
				NewPolarizability(ch.Volume, sigma, omega, gamma))
		}
	}
}

// PMLBadness estimates the reflection of the default absorbing layer of the
// given number of cells, for the largest permittivity in the grid
func (g *Grid) PMLBadness(ctx context.Context, cells int) (float64, error) {
	epsMax, err := g.MaxEps(ctx)
	if err != nil {
		return 0, err
	}
	if epsMax <= 0 {
		epsMax = 1
	}
	fmin := DefaultPMLFmin
	if len(g.Chunks) > 0 {
		fmin = g.Chunks[0].PMLFmin
	}
	sig := pml.QuadraticProfile(cells, g.Cmax)
	return pml.Badness(sig, cells, epsMax, fmin), nil
}
