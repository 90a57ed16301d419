package parallel

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
)

// ErrCollectiveMismatch is returned when the ranks of a World enter the same
// collective round with different operations
var ErrCollectiveMismatch = errors.New("ranks called different collectives in the same round")

// Communicator gives a rank its place in the process set and the collective
// operations shared by every rank. Collectives must be entered by every rank
// in the same order; a rank that never arrives blocks the others until ctx
// is done.
type Communicator interface {
	Rank() int
	Size() int
	MaxToAll(ctx context.Context, x float64) (float64, error)
	SumToAll(ctx context.Context, x float64) (float64, error)
	Barrier(ctx context.Context) error
}

type reduceOp uint8

const (
	opMax reduceOp = iota
	opSum
	opBarrier
)

func (op reduceOp) String() string {
	switch op {
	case opMax:
		return "max"
	case opSum:
		return "sum"
	default:
		return "barrier"
	}
}

// round is one pass through a collective; it completes when every rank has
// contributed
type round struct {
	op      reduceOp
	acc     float64
	arrived int
	err     error
	done    chan struct{}
}

func newRound() *round {
	return &round{done: make(chan struct{})}
}

// World is a set of ranks living in one address space. Each rank is driven
// by its own goroutine and talks to the others only through collectives.
type World struct {
	size    int
	mu      sync.Mutex
	current *round
}

// NewWorld returns a world of size ranks
func NewWorld(size int) *World {
	if size < 1 {
		panic(fmt.Sprintf("world size must be positive, got %d", size))
	}
	return &World{size: size, current: newRound()}
}

// Size returns the number of ranks
func (w *World) Size() int { return w.size }

// Comm returns the communicator for one rank
func (w *World) Comm(rank int) *Comm {
	if rank < 0 || rank >= w.size {
		panic(fmt.Sprintf("rank %d outside world of size %d", rank, w.size))
	}
	return &Comm{world: w, rank: rank}
}

func (w *World) collective(ctx context.Context, op reduceOp, x float64) (float64, error) {
	w.mu.Lock()
	r := w.current
	if r.arrived == 0 {
		r.op = op
		r.acc = x
	} else {
		if r.op != op && r.err == nil {
			r.err = fmt.Errorf("%w: %s and %s", ErrCollectiveMismatch, r.op, op)
		}
		switch op {
		case opMax:
			r.acc = math.Max(r.acc, x)
		case opSum:
			r.acc += x
		}
	}
	r.arrived++
	if r.arrived == w.size {
		w.current = newRound()
		close(r.done)
	}
	w.mu.Unlock()

	select {
	case <-r.done:
		return r.acc, r.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Comm is one rank of a World
type Comm struct {
	world *World
	rank  int
}

func (c *Comm) Rank() int { return c.rank }
func (c *Comm) Size() int { return c.world.size }

// MaxToAll returns the maximum of x over all ranks, on every rank
func (c *Comm) MaxToAll(ctx context.Context, x float64) (float64, error) {
	return c.world.collective(ctx, opMax, x)
}

// SumToAll returns the sum of x over all ranks, on every rank
func (c *Comm) SumToAll(ctx context.Context, x float64) (float64, error) {
	return c.world.collective(ctx, opSum, x)
}

// Barrier blocks until every rank has reached it
func (c *Comm) Barrier(ctx context.Context) error {
	_, err := c.world.collective(ctx, opBarrier, 0)
	return err
}

// Serial returns the communicator of a single process run
func Serial() *Comm {
	return NewWorld(1).Comm(0)
}
