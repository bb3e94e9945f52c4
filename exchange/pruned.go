// Copyright (C) 2026, ParaSails Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package exchange

import (
	"context"
	"fmt"

	"github.com/luxfi/parasails/arena"
	"github.com/luxfi/parasails/comm"
	"github.com/luxfi/parasails/errs"
	"github.com/luxfi/parasails/matrixif"
	"github.com/luxfi/parasails/metrics"
	"github.com/luxfi/parasails/prunedrows"
	"github.com/luxfi/parasails/rowpattern"
	"github.com/luxfi/parasails/wire"
)

// ExchangePruned grows the per-process pattern P by L levels, fetching
// remote pruned rows from PrunedRows on other ranks as needed. P must
// already hold, merged in, the external indices of every local row's own
// pruned pattern — the frontier left by that initial merge is level 1's
// starting point.
//
// This relies on the matrix's symmetric nonzero structure: the number of
// REQ groups this rank sends at a level must equal the number of REQ
// messages it receives at that level, since each level's loop runs exactly
// SendRequests' returned count on both the send and the receive side. rec
// may be nil.
func ExchangePruned(ctx context.Context, c comm.Communicator, mat matrixif.DistributedMatrix, pruned *prunedrows.PrunedRows, p *rowpattern.RowPattern, levels int, rec *metrics.Recorder) error {
	recvBuf := make([]int64, 64)
	for level := 0; level < levels; level++ {
		ind := append([]int64(nil), p.Frontier()...)

		k, err := SendRequests(ctx, c, mat, ind, rec)
		if err != nil {
			return err
		}

		lvl := arena.New[int64]()
		var sends []comm.Request

		for i := 0; i < k; i++ {
			src, rows, grown, err := ReceiveRequest(ctx, c, recvBuf)
			recvBuf = grown
			if err != nil {
				return err
			}
			indices := make([][]int64, len(rows))
			for ri, row := range rows {
				ind, ok := pruned.Get(row)
				if !ok {
					return fmt.Errorf("%w: no local pruned row %d to answer request from rank %d", errs.ErrPatternDefect, row, src)
				}
				indices[ri] = ind
			}
			body := wire.EncodeREPI(rows, indices)
			outBuf := lvl.Alloc(len(body))
			copy(outBuf, body)
			req, err := c.Isend(ctx, src, comm.TagRepI, outBuf)
			if err != nil {
				return fmt.Errorf("%w: sending REPI to rank %d: %v", errs.ErrTransport, src, err)
			}
			sends = append(sends, req)
		}

		// All rows received at this level merge into a single frontier: P
		// is one per-process pattern, not per-row, so its frontier must be
		// set once per level from every reply's indices combined — merging
		// per-row would let each call clobber the previous row's delta.
		var levelAdds []int64
		for i := 0; i < k; i++ {
			src, n, err := c.Probe(ctx, comm.TagRepI)
			if err != nil {
				return fmt.Errorf("%w: probing for REPI: %v", errs.ErrTransport, err)
			}
			buf := make([]int64, n)
			if _, err := c.Recv(ctx, src, comm.TagRepI, buf); err != nil {
				return fmt.Errorf("%w: receiving REPI from rank %d: %v", errs.ErrTransport, src, err)
			}
			repi, err := wire.DecodeREPI(buf)
			if err != nil {
				return err
			}
			rec.REPIReceived("pruned")
			for ri, row := range repi.Rows {
				span := pruned.Alloc(len(repi.Indices[ri]))
				copy(span, repi.Indices[ri])
				if err := pruned.Put(row, span); err != nil {
					return err
				}
				levelAdds = append(levelAdds, span...)
			}
		}
		if err := p.MergeExternal(levelAdds, mat.BegRow(), mat.EndRow()); err != nil {
			return err
		}

		for _, req := range sends {
			if err := req.Wait(ctx); err != nil {
				return fmt.Errorf("%w: waiting on REPI send: %v", errs.ErrTransport, err)
			}
		}
		lvl.Destroy()
	}
	return nil
}
