// Copyright (C) 2026, ParaSails Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package exchange implements the request/reply protocol that
// fetches remote rows — pruned patterns in ExchangePruned, full (indices,
// values) rows of A in ExchangeStored — without a pre-known communication
// graph. Both variants share SendRequests/ReceiveRequest; they differ only
// in what a reply carries and in whether the send/receive counts are
// symmetric.
package exchange

import (
	"context"
	"fmt"
	"sort"

	"github.com/luxfi/parasails/comm"
	"github.com/luxfi/parasails/errs"
	"github.com/luxfi/parasails/matrixif"
	"github.com/luxfi/parasails/metrics"
	"github.com/luxfi/parasails/wire"
)

// SendRequests sorts reqind ascending, groups consecutive indices sharing an
// owner (a contiguous run, since row partitions are contiguous), and fires
// one non-blocking REQ per group, immediately freeing each send's handle —
// there is nothing to wait for on the requester side; a request completes
// when its reply arrives. It returns the number of groups sent
// (num_requests), the count ReceiveRequest's caller must match on the other
// side of a symmetric exchange. rec may be nil.
func SendRequests(ctx context.Context, c comm.Communicator, mat matrixif.DistributedMatrix, reqind []int64, rec *metrics.Recorder) (int, error) {
	sorted := append([]int64(nil), reqind...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	numRequests := 0
	i := 0
	for i < len(sorted) {
		owner := mat.RowOwner(sorted[i])
		j := i + 1
		for j < len(sorted) && mat.RowOwner(sorted[j]) == owner {
			j++
		}
		req, err := c.Isend(ctx, owner, comm.TagReq, wire.EncodeREQ(sorted[i:j]))
		if err != nil {
			return numRequests, fmt.Errorf("%w: SendRequests to rank %d: %v", errs.ErrTransport, owner, err)
		}
		c.RequestFree(req)
		rec.RequestSent()
		numRequests++
		i = j
	}
	return numRequests, nil
}

// ReceiveRequest probes for any incoming REQ, grows buf if the incoming
// message is larger than it, receives into it, and returns the source rank
// and the requested row indices (a view into buf, valid until the next
// ReceiveRequest call reusing the same buf).
func ReceiveRequest(ctx context.Context, c comm.Communicator, buf []int64) (source int, rows []int64, grown []int64, err error) {
	src, n, err := c.Probe(ctx, comm.TagReq)
	if err != nil {
		return 0, nil, buf, fmt.Errorf("%w: probing for REQ: %v", errs.ErrTransport, err)
	}
	if n > len(buf) {
		buf = make([]int64, n)
	}
	got, err := c.Recv(ctx, src, comm.TagReq, buf[:n])
	if err != nil {
		return 0, nil, buf, fmt.Errorf("%w: receiving REQ from rank %d: %v", errs.ErrTransport, src, err)
	}
	return src, buf[:got], buf, nil
}
