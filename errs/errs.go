// Copyright (C) 2026, ParaSails Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package errs holds the fatal-error taxonomy shared by every parasails
// subsystem. None of these are used as control flow for
// per-row recovery — there isn't any — they are the sentinel values wrapped
// into the single error that aborts a collective build or apply.
package errs

import "errors"

var (
	// ErrPatternDefect: a local row's own global index is missing from
	// its assembled pattern inside ValueSolver. Fatal — other ranks may
	// already be blocked in a receive, so the only safe response is a
	// collective abort.
	ErrPatternDefect = errors.New("parasails: row missing from its own pattern")

	// ErrNumericFailure: the dense SPD solve for a row's submatrix failed
	// (Cholesky factorization was not possible).
	ErrNumericFailure = errors.New("parasails: cholesky factorization failed")

	// ErrCapacityExceeded: a RowPattern grew past its configured capacity.
	// Treated as a programming defect, not a runtime condition callers
	// recover from.
	ErrCapacityExceeded = errors.New("parasails: row pattern capacity exceeded")

	// ErrProtocolMismatch: a received message's declared length disagrees
	// with the bytes actually delivered.
	ErrProtocolMismatch = errors.New("parasails: protocol mismatch in exchange reply")

	// ErrTransport: the underlying Communicator reported a failure that
	// is not one of the above (e.g. context cancellation, a broken
	// transport). Surfaced unchanged, matching the TRANSPORT_FAILURE category.
	ErrTransport = errors.New("parasails: transport failure")
)
