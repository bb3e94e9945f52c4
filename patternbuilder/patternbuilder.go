// Copyright (C) 2026, ParaSails Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package patternbuilder implements PatternBuilder:
// level-N pattern propagation per local row, culminating in M's
// lower-triangular structure and the num_replies count ExchangeStored needs
// to know how many incoming requests to answer.
package patternbuilder

import (
	"github.com/luxfi/parasails/matrixif"
	"github.com/luxfi/parasails/prunedrows"
	"github.com/luxfi/parasails/rowpattern"
)

// Result is the outcome of building every local row's pattern: the full
// (lower-triangular) column set per row, plus the num_replies count
// ExchangeStored's caller must pass through.
type Result struct {
	// Patterns maps a local row to its lower-triangular column indices,
	// ready for matrixif.DistributedMatrix.AllocRowStructure.
	Patterns map[int64][]int64
	// External is the union, across every local row, of that row's
	// external (non-owned) column indices restricted to the lower
	// triangle — exactly the set ExchangeStored must request.
	External []int64
	// NumReplies is the number of distinct owners of indices above this
	// rank's block touched across every local row's full (not just
	// lower-triangular) pattern: the count of incoming REQ messages
	// ExchangeStored will receive. Owners below this rank's block are not
	// counted, since their lower-triangular patterns never reach this
	// rank's rows and so they send it no request.
	NumReplies int
}

// Build assembles, for every local row r, a pattern by taking pruned[r] and
// then, for L levels, merging in pruned[j] for every j in the current
// frontier — one more step of the pruned graph per level — then restricts
// the result to the lower triangle {j : j <= r}.
func Build(mat matrixif.DistributedMatrix, pruned *prunedrows.PrunedRows, levels int) (Result, error) {
	begRow, endRow := mat.BegRow(), mat.EndRow()

	res := Result{Patterns: make(map[int64][]int64, endRow-begRow+1)}
	owners := make(map[int]struct{})
	externalSeen := make(map[int64]struct{})

	p := rowpattern.New(rowpattern.DefaultCapacity)
	for r := begRow; r <= endRow; r++ {
		p.Reset()

		ind, ok := pruned.Get(r)
		if !ok {
			ind = nil
		}
		if err := p.Merge(ind); err != nil {
			return Result{}, err
		}

		for level := 0; level < levels; level++ {
			frontier := append([]int64(nil), p.Frontier()...)
			var nextAdds []int64
			for _, j := range frontier {
				jind, ok := pruned.Get(j)
				if !ok {
					continue
				}
				nextAdds = append(nextAdds, jind...)
			}
			if err := p.Merge(nextAdds); err != nil {
				return Result{}, err
			}
		}

		full := p.All()
		var lower []int64
		for _, j := range full {
			if j > endRow {
				owner := mat.RowOwner(j)
				if owner >= 0 {
					owners[owner] = struct{}{}
				}
			}
			if j <= r {
				lower = append(lower, j)
				if j > endRow || j < begRow {
					if _, seen := externalSeen[j]; !seen {
						externalSeen[j] = struct{}{}
						res.External = append(res.External, j)
					}
				}
			}
		}
		res.Patterns[r] = lower
	}

	res.NumReplies = len(owners)
	return res, nil
}
