// Copyright (C) 2026, ParaSails Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package arena implements the scoped bump allocator every non-blocking
// send's buffer needs: one Arena per ExchangePruned level or per
// ExchangeStored call, released via Destroy only after the matching
// Waitall. The same type also backs PrunedRows/StoredRows' long-lived
// append-only storage, where spans must stay stable for the container's
// whole life instead of one exchange call's. No third-party arena library
// fits here (the closest idiom, sync.Pool, solves object reuse across
// unrelated call sites, not lifetime-scoped bump allocation), so this is
// deliberately a small stdlib-only type, generic over the element type so
// int64 (wire/pattern data) and float64 (row values) share the same
// implementation.
package arena

// Arena hands out spans of T that all become invalid at once on Destroy.
// It is not safe for concurrent use; each rank's goroutine owns its own
// Arena instances sequentially, never sharing one across goroutines.
type Arena[T any] struct {
	chunks [][]T
}

// New returns an empty Arena.
func New[T any]() *Arena[T] {
	return &Arena[T]{}
}

// Alloc returns a zeroed span of n Ts that remains valid until Destroy.
// Every call allocates a fresh chunk; spans are never moved or resized, so a
// pointer into one stays valid for the Arena's whole lifetime.
func (a *Arena[T]) Alloc(n int) []T {
	chunk := make([]T, n)
	a.chunks = append(a.chunks, chunk)
	return chunk
}

// Destroy releases every span handed out by this Arena. Callers must have
// already waited on every send that referenced those spans (see comm.Request
// and the wait loops in package exchange); Destroy does not itself
// synchronize with in-flight sends.
func (a *Arena[T]) Destroy() {
	a.chunks = nil
}
