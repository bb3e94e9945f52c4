// Copyright (C) 2026, ParaSails Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package valuesolver implements ValueSolver: for each local
// row of M, assembling a small dense SPD submatrix from StoredRows and
// solving a Cholesky system for that row's values. The dense solve itself
// is gonum.org/v1/gonum/mat's Cholesky type — the idiomatic Go choice for
// small dense SPD systems, rather than a hand-rolled factorization.
package valuesolver

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/luxfi/parasails/errs"
	"github.com/luxfi/parasails/indexhash"
	"github.com/luxfi/parasails/storedrows"
)

// Row is one row's computed values, in the same column order as the pattern
// it was solved against.
type Row struct {
	Indices []int64
	Values  []float64
}

// Solve computes row r's values given its (already lower-triangular)
// pattern pattern, pulling the needed rows of A from stored. pattern must
// be nonempty and must contain r itself; otherwise the pattern is defective
// and Solve fails with ErrPatternDefect.
func Solve(stored *storedrows.StoredRows, r int64, pattern []int64) (Row, error) {
	n := len(pattern)
	h := indexhash.ForRowLen(n)
	touched := make([]int, 0, n)
	// slotToK maps a hash slot back to the column's position within
	// pattern, since a slot's numeric value has no relation to k.
	slotToK := make(map[int]int, n)

	for k, j := range pattern {
		slot, inserted := h.Insert(j)
		if slot == indexhash.NotFound {
			return Row{}, fmt.Errorf("%w: row %d pattern of length %d overflowed its hash table", errs.ErrPatternDefect, r, n)
		}
		if inserted {
			touched = append(touched, slot)
		}
		slotToK[slot] = k
	}
	defer h.Reset(touched)

	ahat := mat.NewSymDense(n, nil)
	for k, j := range pattern {
		ind, val, ok := stored.Get(j)
		if !ok {
			return Row{}, fmt.Errorf("%w: row %d needs stored row %d which was never fetched", errs.ErrPatternDefect, r, j)
		}
		for ci, c := range ind {
			slot := h.Lookup(c)
			if slot == indexhash.NotFound {
				continue
			}
			kc := slotToK[slot]
			ahat.SetSym(k, kc, val[ci])
		}
	}

	mSlot := h.Lookup(r)
	if mSlot == indexhash.NotFound {
		return Row{}, fmt.Errorf("%w: row %d is not in its own assembled pattern", errs.ErrPatternDefect, r)
	}
	m := slotToK[mSlot]

	b := mat.NewVecDense(n, nil)
	b.SetVec(m, 1)

	var chol mat.Cholesky
	if ok := chol.Factorize(ahat); !ok {
		return Row{}, fmt.Errorf("%w: row %d", errs.ErrNumericFailure, r)
	}

	var x mat.VecDense
	if err := chol.SolveVecTo(&x, b); err != nil {
		return Row{}, fmt.Errorf("%w: row %d: %v", errs.ErrNumericFailure, r, err)
	}

	xm := x.AtVec(m)
	if xm == 0 {
		return Row{}, fmt.Errorf("%w: row %d scaling factor is zero", errs.ErrNumericFailure, r)
	}
	tau := 1 / math.Sqrt(math.Abs(xm))

	values := make([]float64, n)
	for k := range pattern {
		values[k] = tau * x.AtVec(k)
	}

	return Row{Indices: pattern, Values: values}, nil
}
