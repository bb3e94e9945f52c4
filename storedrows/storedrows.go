// Copyright (C) 2026, ParaSails Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package storedrows implements StoredRows: the mapping from
// a global row id to A's (indices, values) for both local rows (served by
// direct delegation to the owning DistributedMatrix) and external rows
// (fetched by ExchangeStored). Like PrunedRows, once a row is bound its
// slices are immutable and stable for the container's lifetime.
package storedrows

import (
	"fmt"

	"github.com/luxfi/parasails/arena"
	"github.com/luxfi/parasails/matrixif"
)

// StoredRows maps a global row id to A's (indices, values) for that row.
type StoredRows struct {
	backingInd *arena.Arena[int64]
	backingVal *arena.Arena[float64]
	rows       map[int64]entry
	mat        matrixif.DistributedMatrix
}

type entry struct {
	indices []int64
	values  []float64
}

// New returns an empty StoredRows delegating local-row lookups to mat.
func New(mat matrixif.DistributedMatrix) *StoredRows {
	return &StoredRows{
		backingInd: arena.New[int64](),
		backingVal: arena.New[float64](),
		rows:       make(map[int64]entry),
		mat:        mat,
	}
}

// Get returns row's (indices, values), fetching and caching it from the
// local DistributedMatrix the first time a local row is asked for. External
// rows must already have been bound by Put (via Exchange) — Get never
// blocks on communication itself.
func (s *StoredRows) Get(row int64) (indices []int64, values []float64, ok bool) {
	if e, bound := s.rows[row]; bound {
		return e.indices, e.values, true
	}
	if row < s.mat.BegRow() || row > s.mat.EndRow() {
		return nil, nil, false
	}
	ind, val, err := s.mat.GetRow(row)
	if err != nil {
		return nil, nil, false
	}
	if err := s.insert(row, ind, val); err != nil {
		return nil, nil, false
	}
	return s.rows[row].indices, s.rows[row].values, true
}

// AllocInd reserves a writable span of n column indices.
func (s *StoredRows) AllocInd(n int) []int64 {
	return s.backingInd.Alloc(n)
}

// AllocVal reserves a writable span of n values, the same length as a prior
// AllocInd call for the same row.
func (s *StoredRows) AllocVal(n int) []float64 {
	return s.backingVal.Alloc(n)
}

// Put binds row to index/value spans already written into storage obtained
// from AllocInd/AllocVal.
func (s *StoredRows) Put(row int64, indices []int64, values []float64) error {
	if len(indices) != len(values) {
		return fmt.Errorf("storedrows: row %d has %d indices but %d values", row, len(indices), len(values))
	}
	if _, ok := s.rows[row]; ok {
		return fmt.Errorf("storedrows: row %d already bound", row)
	}
	s.rows[row] = entry{indices: indices, values: values}
	return nil
}

// insert copies a local row's data into this StoredRows' own backing store
// and binds it, the same Alloc+Put sequence Exchange performs for remote
// rows, so every binding (local or remote) gives the same stability
// guarantee.
func (s *StoredRows) insert(row int64, indices []int64, values []float64) error {
	indSpan := s.AllocInd(len(indices))
	copy(indSpan, indices)
	valSpan := s.AllocVal(len(values))
	copy(valSpan, values)
	return s.Put(row, indSpan, valSpan)
}

// Len returns the number of rows currently bound.
func (s *StoredRows) Len() int {
	return len(s.rows)
}
