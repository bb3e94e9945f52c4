// Copyright (C) 2026, ParaSails Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package matrixif declares the external collaborator contracts parasails
// needs but doesn't own: the generic distributed sparse matrix container
// and the diagonal scaling primitive. parasails only ever depends on these
// two interfaces, never on a concrete matrix implementation.
package matrixif

// DistributedMatrix is the contract a distributed sparse matrix container
// must satisfy for parasails to build a preconditioner over it. Rows are
// indexed by global integer id, partitioned into contiguous blocks across
// ranks: rank p owns [BegRows()[p], EndRows()[p]].
type DistributedMatrix interface {
	// BegRow and EndRow bound this rank's own row block (inclusive).
	BegRow() int64
	EndRow() int64

	// BegRows and EndRows give every rank's row block bounds, used to
	// derive the global row count and full vector length.
	BegRows() []int64
	EndRows() []int64

	// RowOwner returns the rank owning global row idx.
	RowOwner(idx int64) int

	// GetRow returns the column indices and values of a row this rank
	// owns. Callers must not ask for a row outside [BegRow(), EndRow()];
	// implementations are free to return an error if asked anyway.
	GetRow(row int64) (indices []int64, values []float64, err error)

	// MatVec computes y = A*x. x is provided in full (replicated across
	// ranks); y is returned restricted to this rank's own rows. Any
	// communication MatVec needs to satisfy is this interface's concern,
	// not parasails'.
	MatVec(x []float64) ([]float64, error)

	// TransposeMatVec computes y = A^T*x under the same conventions as
	// MatVec.
	TransposeMatVec(x []float64) ([]float64, error)

	// AllocRowStructure fixes the column-index structure of a row this
	// rank owns, used to write M's pattern before its values are known.
	AllocRowStructure(row int64, indices []int64) error

	// SetRowValues writes a row's values against a structure previously
	// fixed by AllocRowStructure. indices must match what was allocated.
	SetRowValues(row int64, indices []int64, values []float64) error
}

// DiagScale is the diagonal scaling collaborator: a per-row scalar s(i)
// used to threshold |s(i)*A(i,j)*s(j)|. How it is produced (e.g.
// 1/sqrt(|A(i,i)|)) is outside this module's scope; parasails only ever
// calls Get.
type DiagScale interface {
	Get(row int64) float64
}
