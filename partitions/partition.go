package partitions

import (
	"fmt"
	"math"

	"github.com/notargets/FDTDMaterial/grid"
)

// Chunk is a contiguous block of the computational volume that executes
// as one unit on its owning process
type Chunk struct {
	// Unique identifier, also the position in ChunkLayout.Chunks
	ID int

	// Cells this chunk is responsible for
	Volume grid.Volume

	// Rank of the process that allocates and updates the chunk's data
	Owner int
}

// ChunkLayout manages the complete decomposition of a volume
type ChunkLayout struct {
	// All chunks, in execution order
	Chunks []Chunk

	// Volume as given by the caller, before symmetry reduction
	UserVolume grid.Volume

	// Computational volume: UserVolume halved and padded along every
	// direction the symmetry breaks
	Volume grid.Volume

	Symmetry grid.Symmetry
	Broken   [grid.NumDirections]bool // directions halved by the symmetry

	NumChunks int
	NumProcs  int
}

// GetChunk returns the chunk containing the given absolute cell, -1 if none
func (cl *ChunkLayout) GetChunk(cell [grid.NumDirections]int) int {
	for _, ch := range cl.Chunks {
		if ch.Volume.Contains(cell) {
			return ch.ID
		}
	}
	return -1
}

// OwnedBy returns the IDs of the chunks owned by rank
func (cl *ChunkLayout) OwnedBy(rank int) (ids []int) {
	for _, ch := range cl.Chunks {
		if ch.Owner == rank {
			ids = append(ids, ch.ID)
		}
	}
	return
}

// ValidateLayout checks that the chunks cover the computational volume
// exactly, with no gaps and no overlaps, and that every owner is a valid rank
func (cl *ChunkLayout) ValidateLayout() error {
	if len(cl.Chunks) != cl.NumChunks {
		return fmt.Errorf("layout has %d chunks, expected %d", len(cl.Chunks), cl.NumChunks)
	}
	total := 0
	for i, ch := range cl.Chunks {
		if ch.ID != i {
			return fmt.Errorf("chunk at position %d has ID %d", i, ch.ID)
		}
		if ch.Owner < 0 || ch.Owner >= cl.NumProcs {
			return fmt.Errorf("chunk %d: owner %d outside [0,%d)", i, ch.Owner, cl.NumProcs)
		}
		if !cl.Volume.ContainsVolume(ch.Volume) {
			return fmt.Errorf("chunk %d: %v escapes %v", i, ch.Volume, cl.Volume)
		}
		total += ch.Volume.NTot()
	}
	// Contained pieces whose sizes add up and that never overlap tile the volume
	if total != cl.Volume.NTot() {
		return fmt.Errorf("chunks hold %d cells, volume has %d", total, cl.Volume.NTot())
	}
	for i := range cl.Chunks {
		for j := i + 1; j < len(cl.Chunks); j++ {
			if cl.Chunks[i].Volume.Intersects(cl.Chunks[j].Volume) {
				return fmt.Errorf("chunks %d and %d overlap", i, j)
			}
		}
	}
	return nil
}

// PartitionStatistics computes load balance metrics
func (cl *ChunkLayout) PartitionStatistics() PartitionStats {
	stats := PartitionStats{
		NumChunks: cl.NumChunks,
		MinCells:  math.MaxInt32,
		AvgCells:  float64(cl.Volume.NTot()) / float64(cl.NumChunks),
	}

	for _, ch := range cl.Chunks {
		n := ch.Volume.NTot()
		if n < stats.MinCells {
			stats.MinCells = n
		}
		if n > stats.MaxCells {
			stats.MaxCells = n
		}
	}

	if stats.AvgCells > 0 {
		stats.Imbalance = float64(stats.MaxCells) / stats.AvgCells
	}

	return stats
}

type PartitionStats struct {
	NumChunks int
	MinCells  int
	MaxCells  int
	AvgCells  float64
	Imbalance float64 // MaxCells / AvgCells
}
