// Copyright (C) 2026, ParaSails Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package exchange

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/parasails/comm"
	"github.com/luxfi/parasails/matrixif"
	"github.com/luxfi/parasails/prunedrows"
	"github.com/luxfi/parasails/rowpattern"
	"github.com/luxfi/parasails/storedrows"
)

// tridiag6 builds a 6x6 tridiagonal matrix split rows [0,2] rank0, [3,5]
// rank1, with every row's pruned pattern simply its nonzero columns.
func tridiag6() *matrixif.MemMatrix {
	m := matrixif.NewMemMatrix(6, []int64{0, 3}, []int64{2, 5})
	for r := int64(0); r < 6; r++ {
		var ind []int64
		var val []float64
		if r > 0 {
			ind = append(ind, r-1)
			val = append(val, -1)
		}
		ind = append(ind, r)
		val = append(val, 4)
		if r < 5 {
			ind = append(ind, r+1)
			val = append(val, -1)
		}
		m.SetRow(r, ind, val)
	}
	return m
}

func localPruned(mat *matrixif.RankView) *prunedrows.PrunedRows {
	p := prunedrows.New()
	for r := mat.BegRow(); r <= mat.EndRow(); r++ {
		ind, _, _ := mat.GetRow(r)
		if err := p.InsertLocal(r, ind); err != nil {
			panic(err)
		}
	}
	return p
}

func TestExchangePrunedFetchesOneLevelOfRemoteNeighbors(t *testing.T) {
	mat := tridiag6()
	comms := comm.NewLocalGroup(2)

	var wg sync.WaitGroup
	prunedByRank := make([]*prunedrows.PrunedRows, 2)
	errByRank := make([]error, 2)

	for rank := 0; rank < 2; rank++ {
		rank := rank
		view := mat.RankView(rank)
		prunedByRank[rank] = localPruned(view)

		wg.Add(1)
		go func() {
			defer wg.Done()
			p := rowpattern.New(rowpattern.DefaultCapacity)
			var seed []int64
			for r := view.BegRow(); r <= view.EndRow(); r++ {
				ind, _ := prunedByRank[rank].Get(r)
				seed = append(seed, ind...)
			}
			// A single merge call so the whole local pattern's external
			// indices land in one frontier — merging row by row would let
			// each call's reset clobber an earlier row's delta.
			if err := p.MergeExternal(seed, view.BegRow(), view.EndRow()); err != nil {
				errByRank[rank] = err
				return
			}
			errByRank[rank] = ExchangePruned(context.Background(), comms[rank], view, prunedByRank[rank], p, 1, nil)
		}()
	}
	wg.Wait()

	require.NoError(t, errByRank[0])
	require.NoError(t, errByRank[1])

	// Rank 0 owns rows 0-2; row 2's neighbor row 3 is owned by rank 1 and
	// must have been fetched as an external pruned row.
	ind, ok := prunedByRank[0].Get(3)
	require.True(t, ok)
	require.ElementsMatch(t, []int64{2, 3, 4}, ind)

	// Symmetrically, rank 1 must have fetched row 2 from rank 0.
	ind, ok = prunedByRank[1].Get(2)
	require.True(t, ok)
	require.ElementsMatch(t, []int64{1, 2, 3}, ind)
}

func TestExchangeStoredFetchesRemoteValueRows(t *testing.T) {
	mat := tridiag6()
	comms := comm.NewLocalGroup(2)

	var wg sync.WaitGroup
	storedByRank := make([]*storedrows.StoredRows, 2)
	errByRank := make([]error, 2)

	// Each rank's M touches exactly one remote row: rank0 needs row 3
	// (owned by rank1), rank1 needs row 2 (owned by rank0) — a symmetric
	// single request/reply each way, so numReplies=1 on both sides.
	reqind := [][]int64{{3}, {2}}

	for rank := 0; rank < 2; rank++ {
		rank := rank
		view := mat.RankView(rank)
		storedByRank[rank] = storedrows.New(view)

		wg.Add(1)
		go func() {
			defer wg.Done()
			errByRank[rank] = ExchangeStored(context.Background(), comms[rank], view, storedByRank[rank], reqind[rank], 1, nil)
		}()
	}
	wg.Wait()

	require.NoError(t, errByRank[0])
	require.NoError(t, errByRank[1])

	ind, val, ok := storedByRank[0].Get(3)
	require.True(t, ok)
	require.Equal(t, []int64{2, 3, 4}, ind)
	require.Equal(t, []float64{-1, 4, -1}, val)

	ind, val, ok = storedByRank[1].Get(2)
	require.True(t, ok)
	require.Equal(t, []int64{1, 2, 3}, ind)
	require.Equal(t, []float64{-1, 4, -1}, val)
}

// starMatrix builds a 4x4 matrix with one row per rank, each row's pattern
// distinct from the others (row lengths 1, 2, 3 and 2), so a REPI from the
// wrong owner binds the wrong row ids, and a REPV from an owner whose row
// length differs fails to decode against the REPI it is paired with.
func starMatrix() *matrixif.MemMatrix {
	m := matrixif.NewMemMatrix(4, []int64{0, 1, 2, 3}, []int64{0, 1, 2, 3})
	m.SetRow(0, []int64{0}, []float64{4})
	m.SetRow(1, []int64{0, 1}, []float64{-1, 4})
	m.SetRow(2, []int64{1, 2, 3}, []float64{-1, 4, -1})
	m.SetRow(3, []int64{2, 3}, []float64{-1, 4})
	return m
}

// TestExchangeStoredHandlesMultipleRemoteOwnersInOneCall exercises
// numRequests > 1 on a single rank: rank0 asks for rows 1, 2, and 3 in one
// ExchangeStored call, each owned by a different rank, so rank0's receive
// loop must pair every REPI with the REPV from that same source rather than
// whichever REPV a fresh probe happens to see next.
func TestExchangeStoredHandlesMultipleRemoteOwnersInOneCall(t *testing.T) {
	mat := starMatrix()
	comms := comm.NewLocalGroup(4)

	var wg sync.WaitGroup
	storedByRank := make([]*storedrows.StoredRows, 4)
	errByRank := make([]error, 4)

	// rank0 requests every other rank's row in a single call; ranks 1-3
	// request nothing and each answer exactly rank0's one REQ.
	reqind := [][]int64{{1, 2, 3}, nil, nil, nil}
	numReplies := []int{0, 1, 1, 1}

	for rank := 0; rank < 4; rank++ {
		rank := rank
		view := mat.RankView(rank)
		storedByRank[rank] = storedrows.New(view)

		wg.Add(1)
		go func() {
			defer wg.Done()
			errByRank[rank] = ExchangeStored(context.Background(), comms[rank], view, storedByRank[rank], reqind[rank], numReplies[rank], nil)
		}()
	}
	wg.Wait()

	for rank := 0; rank < 4; rank++ {
		require.NoError(t, errByRank[rank], "rank %d", rank)
	}

	ind, val, ok := storedByRank[0].Get(1)
	require.True(t, ok)
	require.Equal(t, []int64{0, 1}, ind)
	require.Equal(t, []float64{-1, 4}, val)

	ind, val, ok = storedByRank[0].Get(2)
	require.True(t, ok)
	require.Equal(t, []int64{1, 2, 3}, ind)
	require.Equal(t, []float64{-1, 4, -1}, val)

	ind, val, ok = storedByRank[0].Get(3)
	require.True(t, ok)
	require.Equal(t, []int64{2, 3}, ind)
	require.Equal(t, []float64{-1, 4}, val)
}
