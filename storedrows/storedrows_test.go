// Copyright (C) 2026, ParaSails Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package storedrows

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/parasails/matrixif"
)

func fixture() *matrixif.RankView {
	m := matrixif.NewMemMatrix(4, []int64{0}, []int64{3})
	m.SetRow(0, []int64{0, 1}, []float64{4, -1})
	m.SetRow(1, []int64{0, 1, 2}, []float64{-1, 4, -1})
	m.SetRow(2, []int64{1, 2, 3}, []float64{-1, 4, -1})
	m.SetRow(3, []int64{2, 3}, []float64{-1, 4})
	return m.RankView(0)
}

func TestGetServesLocalRowFromMatrix(t *testing.T) {
	s := New(fixture())
	ind, val, ok := s.Get(1)
	require.True(t, ok)
	require.Equal(t, []int64{0, 1, 2}, ind)
	require.Equal(t, []float64{-1, 4, -1}, val)
}

func TestGetCachesLocalRowAfterFirstFetch(t *testing.T) {
	s := New(fixture())
	ind1, _, _ := s.Get(2)
	require.Equal(t, 1, s.Len())
	ind2, _, _ := s.Get(2)
	require.Equal(t, &ind1[0], &ind2[0], "second Get must not refetch from the matrix")
}

func TestGetRejectsNonLocalRow(t *testing.T) {
	s := New(fixture())
	_, _, ok := s.Get(99)
	require.False(t, ok)
}

func TestAllocPutBindsExternalRow(t *testing.T) {
	s := New(fixture())
	ind := s.AllocInd(2)
	ind[0], ind[1] = 5, 6
	val := s.AllocVal(2)
	val[0], val[1] = 1.5, -2.5
	require.NoError(t, s.Put(42, ind, val))
	gotInd, gotVal, ok := s.Get(42)
	require.True(t, ok)
	require.Equal(t, []int64{5, 6}, gotInd)
	require.Equal(t, []float64{1.5, -2.5}, gotVal)
}

func TestPutRejectsMismatchedLengths(t *testing.T) {
	s := New(fixture())
	err := s.Put(7, []int64{1, 2}, []float64{1})
	require.Error(t, err)
}

func TestPutRejectsRebind(t *testing.T) {
	s := New(fixture())
	require.NoError(t, s.Put(7, []int64{1}, []float64{1}))
	err := s.Put(7, []int64{2}, []float64{2})
	require.Error(t, err)
}
