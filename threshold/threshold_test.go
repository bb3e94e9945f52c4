// Copyright (C) 2026, ParaSails Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package threshold

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/parasails/comm"
)

func TestSelectKthMatchesSortedOrderStatistic(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	data := []float64{9, 3, 7, 1, 8, 2, 6, 4, 5}
	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)

	for k := 1; k <= len(data); k++ {
		buf := append([]float64(nil), data...)
		got := selectKth(rng, buf, k)
		require.Equal(t, sorted[k-1], got, "k=%d", k)
	}
}

func TestSelectSingleRankClosedForm(t *testing.T) {
	comms := comm.NewLocalGroup(1)
	rng := rand.New(rand.NewSource(1))

	// A single row of 4 values; param=0.75 picks k=floor(4*0.75)+1=4, the
	// max. Sum is just that one row's max; dividing by 1 global row
	// returns it unchanged.
	rows := [][]float64{{1, 2, 3, 10}}

	got, err := Select(context.Background(), comms[0], rng, rows, DefaultParam, 1)
	require.NoError(t, err)
	require.InDelta(t, 10.0, got, 1e-9)
}

func TestSelectSumsAcrossRanksViaAllreduce(t *testing.T) {
	comms := comm.NewLocalGroup(2)
	rowsByRank := [][][]float64{
		{{1, 2, 3, 10}}, // k=4 -> 10
		{{5, 6, 7, 20}}, // k=4 -> 20
	}

	var wg sync.WaitGroup
	results := make([]float64, 2)
	errs := make([]error, 2)
	for rank := 0; rank < 2; rank++ {
		rank := rank
		wg.Add(1)
		go func() {
			defer wg.Done()
			rng := rand.New(rand.NewSource(int64(rank)))
			results[rank], errs[rank] = Select(context.Background(), comms[rank], rng, rowsByRank[rank], DefaultParam, 2)
		}()
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	// (10+20)/2 global rows == 15, same on both ranks.
	require.InDelta(t, 15.0, results[0], 1e-9)
	require.InDelta(t, 15.0, results[1], 1e-9)
}
