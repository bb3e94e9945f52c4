// Copyright (C) 2026, ParaSails Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package indexhash implements IndexHash: a small fixed-
// capacity open-addressed table mapping a global column index to a dense
// slot, used by ValueSolver to place each fetched (column, value) pair into
// its row's local position. Capacity is chosen by the caller so the load
// factor stays at or below 1/4.
package indexhash

// NotFound is returned by Lookup when the key is absent.
const NotFound = -1

// IndexHash is an open-addressed table with linear probing. It is not safe
// for concurrent use and is meant to be reset and reused across rows.
type IndexHash struct {
	capacity int
	occupied []bool
	keys     []int64
}

// New returns an IndexHash with the given capacity. ForRowLen is the usual
// way to size one.
func New(capacity int) *IndexHash {
	if capacity < 1 {
		capacity = 1
	}
	return &IndexHash{
		capacity: capacity,
		occupied: make([]bool, capacity),
		keys:     make([]int64, capacity),
	}
}

// ForRowLen returns an IndexHash sized for a row of n columns, keeping the
// load factor at or below 1/4.
func ForRowLen(n int) *IndexHash {
	return New(4*n + 1)
}

func (h *IndexHash) probe(key int64) int {
	k := uint64(key) % uint64(h.capacity)
	return int(k)
}

// Insert probes for key, returning the slot it occupies and whether this
// call created it (false means key was already present at that slot).
func (h *IndexHash) Insert(key int64) (slot int, inserted bool) {
	start := h.probe(key)
	for i := 0; i < h.capacity; i++ {
		s := (start + i) % h.capacity
		if !h.occupied[s] {
			h.occupied[s] = true
			h.keys[s] = key
			return s, true
		}
		if h.keys[s] == key {
			return s, false
		}
	}
	// Capacity was chosen by the caller to keep the load factor <= 1/4;
	// reaching here means the caller under-sized the table.
	return NotFound, false
}

// Lookup returns the slot holding key, or NotFound.
func (h *IndexHash) Lookup(key int64) int {
	start := h.probe(key)
	for i := 0; i < h.capacity; i++ {
		s := (start + i) % h.capacity
		if !h.occupied[s] {
			return NotFound
		}
		if h.keys[s] == key {
			return s
		}
	}
	return NotFound
}

// Reset clears only the slots in touched, keeping reset cost proportional
// to the row just processed rather than to the whole table.
func (h *IndexHash) Reset(touched []int) {
	for _, s := range touched {
		h.occupied[s] = false
	}
}

// Capacity returns the table's fixed capacity.
func (h *IndexHash) Capacity() int {
	return h.capacity
}
