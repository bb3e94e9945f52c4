// Copyright (C) 2026, ParaSails Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestREPIRoundTrip(t *testing.T) {
	rows := []int64{5, 9}
	indices := [][]int64{{1, 2, 5}, {0, 9}}
	buf := EncodeREPI(rows, indices)

	got, err := DecodeREPI(buf)
	require.NoError(t, err)
	require.Equal(t, rows, got.Rows)
	require.Equal(t, indices, got.Indices)
	require.Equal(t, []int64{3, 2}, got.RowLengths())
}

func TestREPVRoundTrip(t *testing.T) {
	lens := []int64{3, 2}
	values := [][]float64{{1.5, -2.25, 0}, {3.75, 100.125}}
	buf := EncodeREPV(values)
	got, err := DecodeREPV(buf, lens)
	require.NoError(t, err)
	require.Equal(t, values, got)
}

func TestDecodeREPITruncated(t *testing.T) {
	_, err := DecodeREPI([]int64{2, 1, 2, 5})
	require.Error(t, err)
}

func TestDecodeREPVTruncated(t *testing.T) {
	_, err := DecodeREPV([]int64{1}, []int64{3})
	require.Error(t, err)
}
