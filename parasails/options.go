// Copyright (C) 2026, ParaSails Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package parasails wires rowpattern, prunedrows, storedrows, exchange,
// patternbuilder, valuesolver, and threshold together into the public
// build/apply API: Create, SelectThresh, SetupPattern,
// SetupValues, Apply, Destroy, as methods on a *Handle.
package parasails

import (
	"github.com/luxfi/log"

	"github.com/luxfi/parasails/metrics"
	"github.com/luxfi/parasails/rowpattern"
)

// Options configures a Handle at Create time, and SetupPattern/SelectThresh
// where it applies. Named fields over positional booleans.
type Options struct {
	// NumLevels is the number of ExchangePruned/PatternBuilder levels (L).
	// SetupPattern and Build take their level count as an argument and do
	// not read this field.
	NumLevels int
	// Param is ThresholdPicker's selection fraction, used by SelectThresh
	// when its own param argument is zero; zero here means
	// threshold.DefaultParam.
	Param float64
	// Seed seeds ThresholdPicker's randomized selection for reproducible
	// builds; zero means an unseeded (time-derived) source.
	Seed int64
	// PatternCapacity overrides rowpattern.DefaultCapacity for the
	// per-process pattern SetupPattern grows through ExchangePruned. The
	// per-row patterns built by patternbuilder.Build always use
	// rowpattern.DefaultCapacity.
	PatternCapacity int
	// Log receives build/apply diagnostics; nil means log.Root().
	Log log.Logger
	// Metrics receives build/apply counters; nil is a legal no-op.
	Metrics *metrics.Recorder
}

func (o Options) patternCapacity() int {
	if o.PatternCapacity > 0 {
		return o.PatternCapacity
	}
	return rowpattern.DefaultCapacity
}

func (o Options) logger() log.Logger {
	if o.Log != nil {
		return o.Log
	}
	return log.Root()
}
