package parallel

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// RankFunc is the body executed by every rank of a run
type RankFunc func(ctx context.Context, comm Communicator) error

// NumProcs returns the default rank count for a run, one per CPU
func NumProcs() int {
	return runtime.GOMAXPROCS(0)
}

// Run executes fn once per rank of a fresh World of the given size and
// waits for all of them. The first rank to fail cancels the shared context,
// which releases every rank waiting in a collective, and its error is
// returned. There is no partial success: any error aborts the whole set.
func Run(ctx context.Context, size int, fn RankFunc) error {
	if size < 1 {
		return fmt.Errorf("invalid process count %d", size)
	}
	world := NewWorld(size)
	g, gctx := errgroup.WithContext(ctx)
	for rank := 0; rank < size; rank++ {
		comm := world.Comm(rank)
		g.Go(func() error {
			if err := fn(gctx, comm); err != nil {
				return fmt.Errorf("rank %d: %w", comm.Rank(), err)
			}
			return nil
		})
	}
	return g.Wait()
}
