package partitions

import (
	"fmt"
	"testing"

	"github.com/notargets/FDTDMaterial/grid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// coverage counts how many chunks hold each cell of the layout volume
func coverage(t *testing.T, layout *ChunkLayout) {
	t.Helper()
	seen := make(map[[grid.NumDirections]int]int)
	for _, ch := range layout.Chunks {
		for i := 0; i < ch.Volume.NTot(); i++ {
			seen[ch.Volume.Coords(i)]++
		}
	}
	require.Len(t, seen, layout.Volume.NTot(), "chunks leave gaps")
	for cell, n := range seen {
		require.True(t, layout.Volume.Contains(cell), "cell %v outside volume", cell)
		require.Equal(t, 1, n, "cell %v covered %d times", cell, n)
	}
}

func TestChooseChunkDivision_Coverage(t *testing.T) {
	volumes := []grid.Volume{
		grid.NewVolume1D(10, 1),
		grid.NewVolume2D(6, 5, 2),
		grid.NewVolume3D(4, 3, 5, 1),
		grid.NewVolumeCyl(3, 7, 2),
	}
	for _, v := range volumes {
		for numChunks := 1; numChunks <= 6; numChunks++ {
			t.Run(fmt.Sprintf("%s/%d", v.Dim, numChunks), func(t *testing.T) {
				layout, err := ChooseChunkDivision(v, numChunks, grid.Identity(), 3)
				require.NoError(t, err)
				assert.Equal(t, numChunks, len(layout.Chunks))
				assert.Equal(t, v, layout.Volume)
				coverage(t, layout)
			})
		}
	}
}

func TestChooseChunkDivision_DefaultChunkCount(t *testing.T) {
	layout, err := ChooseChunkDivision(grid.NewVolume1D(12, 1), 0, grid.Identity(), 4)
	require.NoError(t, err)
	assert.Equal(t, 4, layout.NumChunks)
	for i, ch := range layout.Chunks {
		assert.Equal(t, i, ch.Owner)
	}
}

func TestChooseChunkDivision_BlockOwnership(t *testing.T) {
	layout, err := ChooseChunkDivision(grid.NewVolume1D(20, 1), 7, grid.Identity(), 3)
	require.NoError(t, err)

	prev := 0
	for i, ch := range layout.Chunks {
		assert.Equal(t, i*3/7, ch.Owner)
		// each process owns a contiguous range of chunk IDs
		assert.GreaterOrEqual(t, ch.Owner, prev)
		prev = ch.Owner
	}
	assert.Equal(t, []int{0, 1, 2}, layout.OwnedBy(0))
	assert.Equal(t, []int{3, 4}, layout.OwnedBy(1))
	assert.Equal(t, []int{5, 6}, layout.OwnedBy(2))
}

func TestBuildPartitions_RoundRobin(t *testing.T) {
	pb := &PartitionBuilder{
		Volume:    grid.NewVolume2D(8, 8, 1),
		NumChunks: 5,
		NumProcs:  2,
		Strategy:  RoundRobin,
	}
	layout, err := pb.BuildPartitions()
	require.NoError(t, err)
	for i, ch := range layout.Chunks {
		assert.Equal(t, i%2, ch.Owner)
	}
	coverage(t, layout)
}

func TestChooseChunkDivision_Symmetry(t *testing.T) {
	testCases := []struct {
		name   string
		nx, ny float64
		sym    grid.Symmetry
		err    error
		num    [2]int // cells along x, y after reduction
	}{
		{"rotate2_even", 8, 6, grid.Rotate2(grid.Z), nil, [2]int{5, 4}},
		{"rotate2_odd_x", 7, 6, grid.Rotate2(grid.Z), ErrOddGridPoints, [2]int{}},
		{"rotate2_odd_y", 8, 5, grid.Rotate2(grid.Z), ErrOddGridPoints, [2]int{}},
		{"mirror_x_odd_y_ok", 8, 5, grid.Mirror(grid.X), nil, [2]int{5, 5}},
		{"mirror_y", 7, 4, grid.Mirror(grid.Y), nil, [2]int{7, 3}},
		{"rotate4", 4, 4, grid.Rotate4(grid.Z), nil, [2]int{3, 3}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := grid.NewVolume2D(tc.nx, tc.ny, 1)
			layout, err := ChooseChunkDivision(v, 4, tc.sym, 2)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.num[0], layout.Volume.Num[grid.X])
			assert.Equal(t, tc.num[1], layout.Volume.Num[grid.Y])
			assert.Equal(t, v, layout.UserVolume)
			assert.Len(t, layout.Chunks, 4)
			coverage(t, layout)
		})
	}
}

func TestChooseChunkDivision_SymmetryNeedsCartesian2D(t *testing.T) {
	for _, v := range []grid.Volume{
		grid.NewVolume1D(8, 1),
		grid.NewVolume3D(4, 4, 4, 1),
		grid.NewVolumeCyl(4, 4, 1),
	} {
		_, err := ChooseChunkDivision(v, 2, grid.Mirror(grid.Z), 1)
		assert.ErrorIs(t, err, grid.ErrUnsupportedDimension, v.Dim.String())

		// the trivial group is always fine
		_, err = ChooseChunkDivision(v, 2, grid.Identity(), 1)
		assert.NoError(t, err)
	}
}

func TestChooseChunkDivision_InvalidCounts(t *testing.T) {
	_, err := ChooseChunkDivision(grid.NewVolume1D(4, 1), -1, grid.Identity(), 1)
	assert.Error(t, err)
	_, err = ChooseChunkDivision(grid.NewVolume1D(4, 1), 1, grid.Identity(), 0)
	assert.Error(t, err)
}

func TestChunkLayout_ValidateLayout(t *testing.T) {
	layout, err := ChooseChunkDivision(grid.NewVolume2D(4, 4, 1), 2, grid.Identity(), 1)
	require.NoError(t, err)
	require.NoError(t, layout.ValidateLayout())

	// overlapping chunks
	bad := *layout
	bad.Chunks = append([]Chunk(nil), layout.Chunks...)
	bad.Chunks[1].Volume = bad.Chunks[0].Volume
	assert.Error(t, bad.ValidateLayout())

	// unknown owner
	bad.Chunks = append([]Chunk(nil), layout.Chunks...)
	bad.Chunks[0].Owner = 3
	assert.Error(t, bad.ValidateLayout())
}

func TestChunkLayout_Lookup(t *testing.T) {
	layout, err := ChooseChunkDivision(grid.NewVolume1D(10, 1), 2, grid.Identity(), 2)
	require.NoError(t, err)
	assert.Equal(t, 0, layout.GetChunk([grid.NumDirections]int{grid.Z: 0}))
	assert.Equal(t, 1, layout.GetChunk([grid.NumDirections]int{grid.Z: 9}))
	assert.Equal(t, -1, layout.GetChunk([grid.NumDirections]int{grid.Z: 10}))
}

func TestPartitionStatistics(t *testing.T) {
	layout, err := ChooseChunkDivision(grid.NewVolume1D(10, 1), 3, grid.Identity(), 1)
	require.NoError(t, err)
	stats := layout.PartitionStatistics()
	assert.Equal(t, 3, stats.NumChunks)
	assert.Equal(t, 3, stats.MinCells)
	assert.Equal(t, 4, stats.MaxCells)
	assert.InDelta(t, 10.0/3, stats.AvgCells, 1e-12)
	assert.GreaterOrEqual(t, stats.Imbalance, 1.0)
}
