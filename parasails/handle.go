// Copyright (C) 2026, ParaSails Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package parasails

import (
	"context"
	"fmt"

	"github.com/luxfi/log"

	"github.com/luxfi/parasails/comm"
	"github.com/luxfi/parasails/errs"
	"github.com/luxfi/parasails/matrixif"
	"github.com/luxfi/parasails/prunedrows"
	"github.com/luxfi/parasails/storedrows"
)

// Handle is the per-rank ParaSails aggregate: it exclusively owns
// PrunedRows, StoredRows, and this rank's view of the diagonal scaling and
// of M, releasing them together on Destroy.
type Handle struct {
	comm comm.Communicator
	a    matrixif.DistributedMatrix
	diag matrixif.DiagScale
	m    matrixif.DistributedMatrix

	opts Options
	log  log.Logger

	pruned      *prunedrows.PrunedRows
	stored      *storedrows.StoredRows
	threshold   float64
	patterns    map[int64][]int64
	valuesReady bool
}

// Create returns a Handle over this rank's view of A, its diagonal scaling,
// and the (already partitioned, structurally empty) output container M.
func Create(c comm.Communicator, a matrixif.DistributedMatrix, diag matrixif.DiagScale, m matrixif.DistributedMatrix, opts Options) *Handle {
	return &Handle{
		comm: c,
		a:    a,
		diag: diag,
		m:    m,
		opts: opts,
		log:  opts.logger(),
	}
}

// Destroy releases this Handle's owned state. The Handle must not be used
// afterward.
func (h *Handle) Destroy() {
	h.pruned = nil
	h.stored = nil
	h.patterns = nil
	h.valuesReady = false
}

// Apply computes v = M*(M^T*u), the symmetric application of the
// lower-triangular preconditioner. u and v are full vectors, replicated
// identically on every rank, matching DistributedMatrix.MatVec/
// TransposeMatVec's own "replicated in, local out" convention.
//
// Between the two matvecs the local half of M^T*u must become a full,
// replicated vector again before it can feed MatVec. Gathering that would
// ordinarily be a surrounding structured-grid vector interface's job, but
// Handle carries its own Communicator, so it does the gather itself with
// the one collective primitive Communicator offers: a componentwise
// AllreduceSum, summing each rank's zero-padded local contribution. Fine
// for the problem sizes this reference targets; a production embedder
// with a real vector-allgather would use that instead.
func (h *Handle) Apply(ctx context.Context, u, v []float64) error {
	if !h.valuesReady {
		return fmt.Errorf("parasails: Apply called before SetupValues")
	}
	wLocal, err := h.m.TransposeMatVec(u)
	if err != nil {
		return fmt.Errorf("%w: Apply transpose matvec: %v", errs.ErrTransport, err)
	}
	wFull, err := h.replicate(ctx, wLocal)
	if err != nil {
		return err
	}
	out, err := h.m.MatVec(wFull)
	if err != nil {
		return fmt.Errorf("%w: Apply matvec: %v", errs.ErrTransport, err)
	}
	vFull, err := h.replicate(ctx, out)
	if err != nil {
		return err
	}
	copy(v, vFull)
	return nil
}

// replicate turns this rank's local (BegRow()..EndRow()) slice into a full,
// identical-on-every-rank vector of length n (the global row count).
func (h *Handle) replicate(ctx context.Context, local []float64) ([]float64, error) {
	endRows := h.a.EndRows()
	n := int(endRows[len(endRows)-1]) + 1
	padded := make([]float64, n)
	beg := int(h.a.BegRow())
	copy(padded[beg:beg+len(local)], local)

	full := make([]float64, n)
	for i := 0; i < n; i++ {
		sum, err := h.comm.AllreduceSum(ctx, padded[i])
		if err != nil {
			return nil, fmt.Errorf("%w: Apply vector replication: %v", errs.ErrTransport, err)
		}
		full[i] = sum
	}
	return full, nil
}
