// Copyright (C) 2026, ParaSails Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package matrixif

import (
	"fmt"
	"math"
)

// MemMatrix is a small in-memory fixture implementing DistributedMatrix,
// good enough to exercise row ownership, row access, matvec, and
// structure/value allocation across simulated ranks in tests.
// It is a test double, not a production distributed matrix container: the
// "distribution" it offers is a row-ownership partition over data that, in
// truth, every rank can see, and its MatVec/TransposeMatVec assume the full
// input vector is already replicated to every caller.
type MemMatrix struct {
	n       int64
	begRows []int64
	endRows []int64
	rows    map[int64]*row
}

type row struct {
	indices []int64
	values  []float64
}

// NewMemMatrix creates an empty n x n matrix partitioned across begRows/
// endRows (per-rank inclusive row bounds, len(begRows) == number of ranks).
func NewMemMatrix(n int64, begRows, endRows []int64) *MemMatrix {
	return &MemMatrix{
		n:       n,
		begRows: begRows,
		endRows: endRows,
		rows:    make(map[int64]*row),
	}
}

// SetRow installs row data directly (used to build a fixture's A; not part
// of the DistributedMatrix interface, which only ever builds M).
func (m *MemMatrix) SetRow(r int64, indices []int64, values []float64) {
	ind := append([]int64(nil), indices...)
	val := append([]float64(nil), values...)
	m.rows[r] = &row{indices: ind, values: val}
}

// N returns the matrix order.
func (m *MemMatrix) N() int64 { return m.n }

// RankView returns a DistributedMatrix restricted to one rank's own row
// block. Every RankView over the same MemMatrix shares its row storage.
// AllocRowStructure rejects rows outside the view's block, and GetRow and
// MatVec read only the view's own rows; TransposeMatVec reads every row,
// and SetRowValues does not check which rank owns the row.
func (m *MemMatrix) RankView(rank int) *RankView {
	return &RankView{mat: m, rank: rank}
}

// RankView is one rank's restricted view of a MemMatrix.
type RankView struct {
	mat  *MemMatrix
	rank int
}

var _ DistributedMatrix = (*RankView)(nil)

func (v *RankView) BegRow() int64    { return v.mat.begRows[v.rank] }
func (v *RankView) EndRow() int64    { return v.mat.endRows[v.rank] }
func (v *RankView) BegRows() []int64 { return v.mat.begRows }
func (v *RankView) EndRows() []int64 { return v.mat.endRows }

func (v *RankView) RowOwner(idx int64) int {
	for p := range v.mat.begRows {
		if idx >= v.mat.begRows[p] && idx <= v.mat.endRows[p] {
			return p
		}
	}
	return -1
}

func (v *RankView) GetRow(r int64) ([]int64, []float64, error) {
	if r < v.BegRow() || r > v.EndRow() {
		return nil, nil, fmt.Errorf("matrixif: rank %d asked for non-local row %d", v.rank, r)
	}
	rw, ok := v.mat.rows[r]
	if !ok {
		return nil, nil, nil
	}
	return rw.indices, rw.values, nil
}

func (v *RankView) MatVec(x []float64) ([]float64, error) {
	out := make([]float64, v.EndRow()-v.BegRow()+1)
	for r := v.BegRow(); r <= v.EndRow(); r++ {
		rw, ok := v.mat.rows[r]
		if !ok {
			continue
		}
		var sum float64
		for k, c := range rw.indices {
			sum += rw.values[k] * x[c]
		}
		out[r-v.BegRow()] = sum
	}
	return out, nil
}

func (v *RankView) TransposeMatVec(x []float64) ([]float64, error) {
	full := make([]float64, v.mat.n)
	for r, rw := range v.mat.rows {
		for k, c := range rw.indices {
			full[c] += rw.values[k] * x[r]
		}
	}
	out := make([]float64, v.EndRow()-v.BegRow()+1)
	copy(out, full[v.BegRow():v.EndRow()+1])
	return out, nil
}

func (v *RankView) AllocRowStructure(r int64, indices []int64) error {
	if r < v.BegRow() || r > v.EndRow() {
		return fmt.Errorf("matrixif: rank %d cannot allocate non-local row %d", v.rank, r)
	}
	ind := append([]int64(nil), indices...)
	v.mat.rows[r] = &row{indices: ind}
	return nil
}

func (v *RankView) SetRowValues(r int64, indices []int64, values []float64) error {
	rw, ok := v.mat.rows[r]
	if !ok || len(rw.indices) != len(indices) {
		return fmt.Errorf("matrixif: row %d structure not allocated before SetRowValues", r)
	}
	for i, c := range indices {
		if rw.indices[i] != c {
			return fmt.Errorf("matrixif: row %d values do not match allocated structure at position %d", r, i)
		}
	}
	rw.values = append([]float64(nil), values...)
	return nil
}

// DiagScale returns a DiagScale computed from this matrix's diagonal as
// 1/sqrt(|A(i,i)|), the usual SPAI scaling and a reasonable default
// derivation for a reference implementation.
func (m *MemMatrix) DiagScale() DiagScale {
	d := make(map[int64]float64, len(m.rows))
	for r, rw := range m.rows {
		for k, c := range rw.indices {
			if c == r {
				v := rw.values[k]
				if v < 0 {
					v = -v
				}
				if v == 0 {
					v = 1
				}
				d[r] = 1 / math.Sqrt(v)
			}
		}
	}
	return memDiagScale(d)
}

type memDiagScale map[int64]float64

func (d memDiagScale) Get(row int64) float64 {
	if s, ok := d[row]; ok {
		return s
	}
	return 1
}
