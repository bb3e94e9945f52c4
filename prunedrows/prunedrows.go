// Copyright (C) 2026, ParaSails Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package prunedrows implements PrunedRows: the mapping from
// a global row id to its pruned column-index pattern, for both local rows
// (thresholded directly from A) and external rows (fetched by Exchange).
// Once a row is bound, its slice is immutable and stable for the lifetime
// of the PrunedRows instance — downstream code (PatternBuilder, ValueSolver)
// holds onto those slices across many subsequent operations, so the backing
// store must never move or reallocate memory out from under them. A chunked
// arena (package arena) gives exactly that guarantee; eviction is never
// supported.
package prunedrows

import (
	"fmt"

	"github.com/luxfi/parasails/arena"
)

// PrunedRows maps a global row id to its pruned column-index pattern.
type PrunedRows struct {
	backing *arena.Arena[int64]
	rows    map[int64][]int64
}

// New returns an empty PrunedRows.
func New() *PrunedRows {
	return &PrunedRows{
		backing: arena.New[int64](),
		rows:    make(map[int64][]int64),
	}
}

// Get returns row's pruned pattern and whether it has been bound yet.
func (p *PrunedRows) Get(row int64) ([]int64, bool) {
	ind, ok := p.rows[row]
	return ind, ok
}

// Alloc reserves a writable span of n int64s inside PrunedRows' own backing
// store, to be filled by a caller (typically Exchange, parsing a REPI reply)
// and then bound to a row id with Put.
func (p *PrunedRows) Alloc(n int) []int64 {
	return p.backing.Alloc(n)
}

// Put binds row to a slice already written into storage obtained from
// Alloc. Rebinding an already-bound row is rejected: requires a
// row's pattern, once inserted, to be immutable.
func (p *PrunedRows) Put(row int64, indices []int64) error {
	if _, ok := p.rows[row]; ok {
		return fmt.Errorf("prunedrows: row %d already bound", row)
	}
	p.rows[row] = indices
	return nil
}

// InsertLocal computes row's pattern directly (the local-row construction
// path: thresholding a row of A) by copying indices into PrunedRows' own
// backing store and binding them. It is the Alloc+Put sequence collapsed
// for the common case where the caller doesn't need to stream data in.
func (p *PrunedRows) InsertLocal(row int64, indices []int64) error {
	span := p.Alloc(len(indices))
	copy(span, indices)
	return p.Put(row, span)
}

// Len returns the number of rows currently bound.
func (p *PrunedRows) Len() int {
	return len(p.rows)
}
