// Copyright (C) 2026, ParaSails Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package valuesolver

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/parasails/matrixif"
	"github.com/luxfi/parasails/storedrows"
)

func TestSolveSingleColumnRow(t *testing.T) {
	m := matrixif.NewMemMatrix(1, []int64{0}, []int64{0})
	m.SetRow(0, []int64{0}, []float64{4})
	s := storedrows.New(m.RankView(0))

	row, err := Solve(s, 0, []int64{0})
	require.NoError(t, err)
	require.Equal(t, []int64{0}, row.Indices)
	require.InDelta(t, 0.5, row.Values[0], 1e-9)
}

func TestSolveTwoColumnTridiagonalRow(t *testing.T) {
	m := matrixif.NewMemMatrix(2, []int64{0}, []int64{1})
	m.SetRow(0, []int64{0, 1}, []float64{4, -1})
	m.SetRow(1, []int64{0, 1}, []float64{-1, 4})
	s := storedrows.New(m.RankView(0))

	row, err := Solve(s, 1, []int64{0, 1})
	require.NoError(t, err)

	// A_hat = [[4,-1],[-1,4]]; b = e1; A_hat^-1 = (1/15)[[4,1],[1,4]];
	// x = (1/15)[1,4]; tau = 1/sqrt(x[1]) = 1/sqrt(4/15).
	want0 := (1.0 / 15) * 1
	want1 := (1.0 / 15) * 4
	tau := 1 / math.Sqrt(want1)
	require.InDelta(t, tau*want0, row.Values[0], 1e-9)
	require.InDelta(t, tau*want1, row.Values[1], 1e-9)
}

func TestSolveFailsWhenRowMissingFromOwnPattern(t *testing.T) {
	m := matrixif.NewMemMatrix(2, []int64{0}, []int64{1})
	m.SetRow(0, []int64{0}, []float64{4})
	s := storedrows.New(m.RankView(0))

	_, err := Solve(s, 1, []int64{0})
	require.Error(t, err)
}

func TestSolveFailsOnNonSPDMatrix(t *testing.T) {
	m := matrixif.NewMemMatrix(2, []int64{0}, []int64{1})
	// Indefinite: diagonal entries of opposite sign.
	m.SetRow(0, []int64{0, 1}, []float64{1, 2})
	m.SetRow(1, []int64{0, 1}, []float64{2, -1})
	s := storedrows.New(m.RankView(0))

	_, err := Solve(s, 0, []int64{0, 1})
	require.Error(t, err)
}
