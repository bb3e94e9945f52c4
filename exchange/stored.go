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
	"github.com/luxfi/parasails/storedrows"
	"github.com/luxfi/parasails/wire"
)

// ExchangeStored fetches every external row of A that M's pattern touches
// into stored. reqind is the union of external indices
// across every local row of M's lower-triangular pattern (PatternBuilder's
// Result.External). numReplies is the number of incoming REQ messages this
// rank must answer — computed ahead of time by PatternBuilder as the count
// of distinct higher-ranked owners touched by the whole local row set, since
// unlike ExchangePruned the request/reply graph here is not symmetric
// per-rank. rec may be nil.
func ExchangeStored(ctx context.Context, c comm.Communicator, mat matrixif.DistributedMatrix, stored *storedrows.StoredRows, reqind []int64, numReplies int, rec *metrics.Recorder) error {
	numRequests, err := SendRequests(ctx, c, mat, reqind, rec)
	if err != nil {
		return err
	}

	a := arena.New[int64]()
	var sends []comm.Request

	recvBuf := make([]int64, 64)
	for i := 0; i < numReplies; i++ {
		src, rows, grown, err := ReceiveRequest(ctx, c, recvBuf)
		recvBuf = grown
		if err != nil {
			return err
		}
		indices := make([][]int64, len(rows))
		values := make([][]float64, len(rows))
		for ri, row := range rows {
			ind, val, ok := stored.Get(row)
			if !ok {
				return fmt.Errorf("%w: no local stored row %d to answer request from rank %d", errs.ErrPatternDefect, row, src)
			}
			indices[ri] = ind
			values[ri] = val
		}

		repiBody := wire.EncodeREPI(rows, indices)
		repiBuf := a.Alloc(len(repiBody))
		copy(repiBuf, repiBody)
		repiReq, err := c.Isend(ctx, src, comm.TagRepI, repiBuf)
		if err != nil {
			return fmt.Errorf("%w: sending REPI to rank %d: %v", errs.ErrTransport, src, err)
		}

		repvBody := wire.EncodeREPV(values)
		repvBuf := a.Alloc(len(repvBody))
		copy(repvBuf, repvBody)
		repvReq, err := c.Isend(ctx, src, comm.TagRepV, repvBuf)
		if err != nil {
			return fmt.Errorf("%w: sending REPV to rank %d: %v", errs.ErrTransport, src, err)
		}

		// Both handles are kept and waited on, never request_free'd: a
		// paired REPI/REPV send must stay alive until its buffer in `a` is
		// truly done with, unlike SendRequests' fire-and-forget REQ.
		sends = append(sends, repiReq, repvReq)
	}

	for i := 0; i < numRequests; i++ {
		src, n, err := c.Probe(ctx, comm.TagRepI)
		if err != nil {
			return fmt.Errorf("%w: probing for REPI: %v", errs.ErrTransport, err)
		}
		ibuf := make([]int64, n)
		if _, err := c.Recv(ctx, src, comm.TagRepI, ibuf); err != nil {
			return fmt.Errorf("%w: receiving REPI from rank %d: %v", errs.ErrTransport, src, err)
		}
		repi, err := wire.DecodeREPI(ibuf)
		if err != nil {
			return err
		}

		// REPV must come from the same src as the REPI it pairs with, not
		// from whichever rank's REPV a fresh probe happens to see first:
		// with more than one remote owner replying to this rank, another
		// rank's REPV can land before src's. Size the buffer from the REPI
		// already parsed instead of probing again.
		vn := 0
		for _, l := range repi.RowLengths() {
			vn += int(l)
		}
		vbuf := make([]int64, vn)
		if _, err := c.Recv(ctx, src, comm.TagRepV, vbuf); err != nil {
			return fmt.Errorf("%w: receiving REPV from rank %d: %v", errs.ErrTransport, src, err)
		}
		rowVals, err := wire.DecodeREPV(vbuf, repi.RowLengths())
		if err != nil {
			return err
		}
		rec.REPIReceived("stored")
		rec.REPVReceived()

		for ri, row := range repi.Rows {
			indSpan := stored.AllocInd(len(repi.Indices[ri]))
			copy(indSpan, repi.Indices[ri])
			valSpan := stored.AllocVal(len(rowVals[ri]))
			copy(valSpan, rowVals[ri])
			if err := stored.Put(row, indSpan, valSpan); err != nil {
				return err
			}
		}
	}

	for _, req := range sends {
		if err := req.Wait(ctx); err != nil {
			return fmt.Errorf("%w: waiting on stored-row reply send: %v", errs.ErrTransport, err)
		}
	}
	a.Destroy()

	return nil
}
