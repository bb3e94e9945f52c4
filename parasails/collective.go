// Copyright (C) 2026, ParaSails Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package parasails

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/luxfi/parasails/comm"
)

// Build drives every rank's Handle through SelectThresh (if thresh <= 0),
// SetupPattern, and SetupValues, using an errgroup.Group so that any single
// rank's fatal error cancels every other rank's context and the call
// returns one error for the whole collective's build. handles[i] must be
// driven by comms[i], the same Communicator it was Created with.
//
// This is a convenience for tests and other in-process drivers, where every
// rank's goroutine is driven from the same process; a production embedder
// running one OS process per rank would instead call SelectThresh/
// SetupPattern/SetupValues directly from its own per-rank driver and fold
// errors across processes however its transport already does (e.g. an MPI
// job's abort).
func Build(ctx context.Context, comms []comm.Communicator, handles []*Handle, thresh float64, param float64, numLevels int) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := range handles {
		h := handles[i]
		g.Go(func() error {
			t := thresh
			if t <= 0 {
				picked, err := h.SelectThresh(gctx, param)
				if err != nil {
					return err
				}
				t = picked
			}
			if err := h.SetupPattern(gctx, t, numLevels); err != nil {
				return err
			}
			return h.SetupValues(gctx)
		})
	}
	return g.Wait()
}

// Apply drives every rank's Handle.Apply concurrently under an
// errgroup.Group, the collective counterpart to Build.
func Apply(ctx context.Context, handles []*Handle, u, v [][]float64) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := range handles {
		h := handles[i]
		ui, vi := u[i], v[i]
		g.Go(func() error {
			return h.Apply(gctx, ui, vi)
		})
	}
	return g.Wait()
}
