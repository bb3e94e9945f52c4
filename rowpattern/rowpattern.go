// Copyright (C) 2026, ParaSails Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package rowpattern implements RowPattern: a set of global
// column indices built up by repeated merges, which also remembers the
// delta added by the most recent merge (its "frontier"). PatternBuilder
// drives the level-N propagation entirely through Frontier/Merge.
package rowpattern

import (
	"fmt"

	"github.com/luxfi/parasails/errs"
)

// DefaultCapacity is the default RowPattern capacity: a prime comfortably
// above the row lengths this module targets, matching the 50,021 constant
// ParaSails.c used (ROWPATT_MAXLEN).
const DefaultCapacity = 50021

// RowPattern accumulates a union of int64 column indices across repeated
// Merge/MergeExternal calls. It is scratch state: one instance is reset and
// reused across many local rows inside PatternBuilder, not retained.
type RowPattern struct {
	capacity int
	present  map[int64]struct{}
	all      []int64
	frontier []int64
}

// New returns an empty RowPattern with the given capacity.
func New(capacity int) *RowPattern {
	return &RowPattern{
		capacity: capacity,
		present:  make(map[int64]struct{}),
	}
}

// Reset empties the set and the frontier.
func (p *RowPattern) Reset() {
	for k := range p.present {
		delete(p.present, k)
	}
	p.all = p.all[:0]
	p.frontier = p.frontier[:0]
}

// Merge unions list into the pattern. Indices already present are silent
// no-ops; every newly added index is appended to the frontier, replacing
// whatever frontier the previous merge left behind.
func (p *RowPattern) Merge(list []int64) error {
	return p.merge(list, false, 0, 0)
}

// MergeExternal is Merge restricted to indices outside [lo, hi] — the shape
// PatternBuilder and Exchange need to merge in only the remote part of a
// row's pattern.
func (p *RowPattern) MergeExternal(list []int64, lo, hi int64) error {
	return p.merge(list, true, lo, hi)
}

func (p *RowPattern) merge(list []int64, restrict bool, lo, hi int64) error {
	p.frontier = p.frontier[:0]
	for _, idx := range list {
		if restrict && idx >= lo && idx <= hi {
			continue
		}
		if _, ok := p.present[idx]; ok {
			continue
		}
		if len(p.all)+1 > p.capacity {
			return fmt.Errorf("%w: pattern exceeds capacity %d", errs.ErrCapacityExceeded, p.capacity)
		}
		p.present[idx] = struct{}{}
		p.all = append(p.all, idx)
		p.frontier = append(p.frontier, idx)
	}
	return nil
}

// Frontier returns the indices added by the most recent Merge/MergeExternal
// call. The slice is invalidated by the next merge.
func (p *RowPattern) Frontier() []int64 {
	return p.frontier
}

// All returns every index currently in the set, in insertion order (the
// spec leaves order unspecified; insertion order is simplest to reason
// about and is what makes Len/All cheap).
func (p *RowPattern) All() []int64 {
	return p.all
}

// Len returns the number of indices currently in the set.
func (p *RowPattern) Len() int {
	return len(p.all)
}

// Contains reports whether idx is currently in the set.
func (p *RowPattern) Contains(idx int64) bool {
	_, ok := p.present[idx]
	return ok
}
