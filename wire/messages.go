// Copyright (C) 2026, ParaSails Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package wire implements the three message bodies of the Exchange
// protocol: REQ, REPI, and REPV. All three travel as []int64 over a
// comm.Communicator — REPV's double payload is carried as the IEEE-754 bit
// pattern of each float64, since the Communicator abstraction (intentionally
// kept to a single element type, matching how MPI_INT/MPI_DOUBLE are just
// different typed buffers over the same wire) only moves integers. Encoding
// bits this way costs nothing: the receiver already knows each row's length
// from the paired REPI and never interprets the bits as an integer.
package wire

import (
	"fmt"
	"math"

	"github.com/luxfi/parasails/errs"
)

// EncodeREQ returns the REQ wire body: simply the sorted row indices being
// requested, verbatim.
func EncodeREQ(rows []int64) []int64 {
	out := make([]int64, len(rows))
	copy(out, rows)
	return out
}

// EncodeREPI builds a REPI body: [n, row1..rown, len1, ind(row1)..., len2,
// ind(row2)..., ...]. rows and indices must have the same length.
func EncodeREPI(rows []int64, indices [][]int64) []int64 {
	n := len(rows)
	total := 1 + n
	for _, ind := range indices {
		total += 1 + len(ind)
	}
	buf := make([]int64, 0, total)
	buf = append(buf, int64(n))
	buf = append(buf, rows...)
	for _, ind := range indices {
		buf = append(buf, int64(len(ind)))
		buf = append(buf, ind...)
	}
	return buf
}

// REPI is a parsed REPI body. Indices[i] aliases a subslice of the buffer
// passed to DecodeREPI; callers that need the data to outlive that buffer
// (e.g. to bind it into a PrunedRows/StoredRows backing store) must copy it
// into their own arena-owned slice first.
type REPI struct {
	Rows    []int64
	Indices [][]int64
}

// DecodeREPI parses a REPI body, failing with ErrProtocolMismatch if the
// declared lengths disagree with the buffer actually received.
func DecodeREPI(buf []int64) (REPI, error) {
	if len(buf) < 1 {
		return REPI{}, fmt.Errorf("%w: empty REPI body", errs.ErrProtocolMismatch)
	}
	n := int(buf[0])
	if n < 0 || 1+n > len(buf) {
		return REPI{}, fmt.Errorf("%w: REPI declares %d rows but body is too short", errs.ErrProtocolMismatch, n)
	}
	rows := buf[1 : 1+n]
	pos := 1 + n
	indices := make([][]int64, n)
	for i := 0; i < n; i++ {
		if pos >= len(buf) {
			return REPI{}, fmt.Errorf("%w: REPI truncated before row %d length", errs.ErrProtocolMismatch, i)
		}
		l := int(buf[pos])
		pos++
		if l < 0 || pos+l > len(buf) {
			return REPI{}, fmt.Errorf("%w: REPI row %d declares length %d past end of body", errs.ErrProtocolMismatch, i, l)
		}
		indices[i] = buf[pos : pos+l]
		pos += l
	}
	if pos != len(buf) {
		return REPI{}, fmt.Errorf("%w: REPI body has %d trailing words", errs.ErrProtocolMismatch, len(buf)-pos)
	}
	return REPI{Rows: rows, Indices: indices}, nil
}

// RowLengths returns the per-row index-list lengths, the shape REPV needs to
// know how to split its flat payload back into rows.
func (r REPI) RowLengths() []int64 {
	lens := make([]int64, len(r.Indices))
	for i, ind := range r.Indices {
		lens[i] = int64(len(ind))
	}
	return lens
}

// EncodeREPV flattens values (one slice per row, same order as the paired
// REPI) into the REPV wire body.
func EncodeREPV(values [][]float64) []int64 {
	total := 0
	for _, v := range values {
		total += len(v)
	}
	buf := make([]int64, 0, total)
	for _, v := range values {
		for _, x := range v {
			buf = append(buf, int64(math.Float64bits(x)))
		}
	}
	return buf
}

// DecodeREPV splits a REPV body back into per-row value slices using the
// lengths from the paired REPI (REPI.RowLengths).
func DecodeREPV(buf []int64, lens []int64) ([][]float64, error) {
	out := make([][]float64, len(lens))
	pos := 0
	for i, l := range lens {
		n := int(l)
		if pos+n > len(buf) {
			return nil, fmt.Errorf("%w: REPV truncated at row %d", errs.ErrProtocolMismatch, i)
		}
		row := make([]float64, n)
		for j := 0; j < n; j++ {
			row[j] = math.Float64frombits(uint64(buf[pos+j]))
		}
		out[i] = row
		pos += n
	}
	if pos != len(buf) {
		return nil, fmt.Errorf("%w: REPV body has %d trailing words", errs.ErrProtocolMismatch, len(buf)-pos)
	}
	return out, nil
}
