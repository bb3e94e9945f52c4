// Copyright (C) 2026, ParaSails Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package threshold implements ThresholdPicker: a randomized
// order-statistic selection of the pruning threshold, combined across ranks
// via AllreduceSum.
package threshold

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/luxfi/parasails/comm"
)

// DefaultParam is select_thresh's default fraction, the value ParaSails.c
// used when the caller doesn't override it.
const DefaultParam = 0.75

// Select computes the global threshold: for each local row's scratch buffer
// of |s(i)*A(i,j)*s(j)| magnitudes, it selects the k-th smallest element
// (k = floor(len*param)+1) by randomized Lomuto-partition selection, sums
// the per-row selections locally, allreduces that sum across ranks, and
// divides by the global row count.
func Select(ctx context.Context, c comm.Communicator, rng *rand.Rand, rowMagnitudes [][]float64, param float64, globalRowCount int64) (float64, error) {
	if globalRowCount <= 0 {
		return 0, fmt.Errorf("threshold: global row count must be positive, got %d", globalRowCount)
	}

	var localSum float64
	for _, row := range rowMagnitudes {
		if len(row) == 0 {
			continue
		}
		k := int(float64(len(row))*param) + 1
		if k > len(row) {
			k = len(row)
		}
		buf := append([]float64(nil), row...)
		localSum += selectKth(rng, buf, k)
	}

	total, err := c.AllreduceSum(ctx, localSum)
	if err != nil {
		return 0, fmt.Errorf("threshold: allreduce: %w", err)
	}
	return total / float64(globalRowCount), nil
}

// selectKth returns the k-th smallest element (1-indexed) of buf using
// randomized Lomuto partitioning, mutating buf in place. Expected linear
// time, matching choice over a full sort.
func selectKth(rng *rand.Rand, buf []float64, k int) float64 {
	lo, hi := 0, len(buf)-1
	target := k - 1
	for {
		if lo == hi {
			return buf[lo]
		}
		pivotIdx := lo + rng.Intn(hi-lo+1)
		p := lomutoPartition(buf, lo, hi, pivotIdx)
		switch {
		case target == p:
			return buf[p]
		case target < p:
			hi = p - 1
		default:
			lo = p + 1
		}
	}
}

// lomutoPartition partitions buf[lo..hi] around buf[pivotIdx] and returns
// the pivot's final resting index.
func lomutoPartition(buf []float64, lo, hi, pivotIdx int) int {
	pivot := buf[pivotIdx]
	buf[pivotIdx], buf[hi] = buf[hi], buf[pivotIdx]
	store := lo
	for i := lo; i < hi; i++ {
		if buf[i] < pivot {
			buf[i], buf[store] = buf[store], buf[i]
			store++
		}
	}
	buf[store], buf[hi] = buf[hi], buf[store]
	return store
}
