// Copyright (C) 2026, ParaSails Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package comm

import (
	"context"
	"fmt"
	"sync"
)

// NewLocalGroup builds size Communicator values that talk to each other over
// in-process channels/queues, one per simulated rank. This is the "MPI" this
// module ships with: each rank is meant to be driven from its own goroutine,
// mirroring SPMD execution, with every suspension point going through this
// type's Probe/Recv/Request.Wait — never raw channel ops — so the core
// packages stay oblivious to the transport.
func NewLocalGroup(size int) []Communicator {
	if size <= 0 {
		panic("comm: group size must be positive")
	}
	g := newGroup(size)
	out := make([]Communicator, size)
	for r := 0; r < size; r++ {
		out[r] = &Local{rank: r, size: size, group: g}
	}
	return out
}

// Local is the in-process Communicator implementation returned by
// NewLocalGroup and Dup.
type Local struct {
	rank  int
	size  int
	group *group
}

var _ Communicator = (*Local)(nil)

func (c *Local) Rank() int { return c.rank }
func (c *Local) Size() int { return c.size }

func (c *Local) Isend(ctx context.Context, dest int, tag Tag, buf []int64) (Request, error) {
	if dest < 0 || dest >= c.size {
		return nil, fmt.Errorf("comm: send to out-of-range rank %d", dest)
	}
	cp := make([]int64, len(buf))
	copy(cp, buf)
	c.group.inbox(dest, tag).push(c.rank, cp)
	// The copy above already made the caller's buffer safe to reuse, so
	// the returned Request is immediately satisfied. A real transport
	// would keep the Request pending until the network layer releases
	// the buffer; here that moment is "now".
	return doneRequest{}, nil
}

func (c *Local) RequestFree(r Request) {
	// Fire-and-forget: nothing to release for a completed in-process send.
}

func (c *Local) Probe(ctx context.Context, tag Tag) (int, int, error) {
	return c.group.inbox(c.rank, tag).probe(ctx)
}

func (c *Local) Recv(ctx context.Context, source int, tag Tag, buf []int64) (int, error) {
	return c.group.inbox(c.rank, tag).recv(ctx, source, buf)
}

func (c *Local) AllreduceSum(ctx context.Context, v float64) (float64, error) {
	return c.group.allreduceSum(ctx, v)
}

func (c *Local) Dup() Communicator {
	c.group.derivedOnce.Do(func() {
		c.group.derived = newGroup(c.size)
	})
	return &Local{rank: c.rank, size: c.size, group: c.group.derived}
}

// doneRequest is a Request that is already complete.
type doneRequest struct{}

func (doneRequest) Wait(ctx context.Context) error { return nil }

// group holds the shared state for one communicator's worth of ranks:
// one message queue per (receiver rank, tag) and one allreduce barrier.
type group struct {
	size int

	boxesMu sync.Mutex
	boxes   map[int]map[Tag]*inbox

	ar allreduceState

	derivedOnce sync.Once
	derived     *group
}

func newGroup(size int) *group {
	return &group{
		size:  size,
		boxes: make(map[int]map[Tag]*inbox),
	}
}

func (g *group) inbox(receiver int, tag Tag) *inbox {
	g.boxesMu.Lock()
	defer g.boxesMu.Unlock()
	byTag, ok := g.boxes[receiver]
	if !ok {
		byTag = make(map[Tag]*inbox)
		g.boxes[receiver] = byTag
	}
	b, ok := byTag[tag]
	if !ok {
		b = newInbox(g.size)
		byTag[tag] = b
	}
	return b
}

// inbox is the per (receiver, tag) mailbox: one FIFO queue per sender, so
// that ordering is FIFO within a (sender, receiver, tag) triple (the
// guarantee requires) without serializing unrelated senders
// against each other.
type inbox struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queues [][][]int64 // queues[sender] = FIFO list of pending messages
}

func newInbox(size int) *inbox {
	b := &inbox{queues: make([][][]int64, size)}
	b.cond = sync.NewCond(&b.mu)
	return b
}

func (b *inbox) push(sender int, msg []int64) {
	b.mu.Lock()
	b.queues[sender] = append(b.queues[sender], msg)
	b.mu.Unlock()
	b.cond.Broadcast()
}

// probe finds the lowest-ranked sender with a pending message, blocking
// until one is available or ctx is cancelled. It does not consume the
// message, matching MPI_Probe semantics.
func (b *inbox) probe(ctx context.Context) (int, int, error) {
	stop := watchCtx(ctx, b.cond)
	defer stop()

	b.mu.Lock()
	defer b.mu.Unlock()
	for {
		for s, q := range b.queues {
			if len(q) > 0 {
				return s, len(q[0]), nil
			}
		}
		if err := ctx.Err(); err != nil {
			return 0, 0, err
		}
		b.cond.Wait()
	}
}

func (b *inbox) recv(ctx context.Context, source int, buf []int64) (int, error) {
	stop := watchCtx(ctx, b.cond)
	defer stop()

	b.mu.Lock()
	defer b.mu.Unlock()
	for len(b.queues[source]) == 0 {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		b.cond.Wait()
	}
	msg := b.queues[source][0]
	b.queues[source] = b.queues[source][1:]
	n := copy(buf, msg)
	return n, nil
}

// watchCtx wakes every waiter on cond once ctx is done, so a blocked
// Probe/Recv/AllreduceSum observes cancellation instead of hanging forever.
// It returns a stop func that must be called once the caller is done
// waiting, to release the watcher goroutine.
func watchCtx(ctx context.Context, cond *sync.Cond) (stop func()) {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			cond.Broadcast()
		case <-done:
		}
	}()
	return func() { close(done) }
}

// allreduceState implements a barrier-style sum-allreduce: every rank
// contributes its value and blocks until all size ranks have contributed,
// then all see the same total.
type allreduceState struct {
	mu         sync.Mutex
	cond       *sync.Cond
	condInit   sync.Once
	generation int
	arrived    int
	sum        float64
	result     float64
}

func (g *group) allreduceSum(ctx context.Context, v float64) (float64, error) {
	a := &g.ar
	a.condInit.Do(func() { a.cond = sync.NewCond(&a.mu) })

	stop := watchCtx(ctx, a.cond)
	defer stop()

	a.mu.Lock()
	defer a.mu.Unlock()

	gen := a.generation
	a.sum += v
	a.arrived++
	if a.arrived == g.size {
		a.result = a.sum
		a.sum = 0
		a.arrived = 0
		a.generation++
		a.cond.Broadcast()
		return a.result, nil
	}
	for a.generation == gen {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		a.cond.Wait()
	}
	return a.result, nil
}
