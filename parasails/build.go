// Copyright (C) 2026, ParaSails Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package parasails

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/luxfi/parasails/errs"
	"github.com/luxfi/parasails/exchange"
	"github.com/luxfi/parasails/patternbuilder"
	"github.com/luxfi/parasails/prunedrows"
	"github.com/luxfi/parasails/rowpattern"
	"github.com/luxfi/parasails/storedrows"
	"github.com/luxfi/parasails/threshold"
	"github.com/luxfi/parasails/valuesolver"
)

// SelectThresh runs ThresholdPicker over this rank's rows of
// A and returns the global threshold every rank computes identically.
func (h *Handle) SelectThresh(ctx context.Context, param float64) (float64, error) {
	if param == 0 {
		param = h.opts.Param
	}
	if param == 0 {
		param = threshold.DefaultParam
	}
	seed := h.opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	var rows [][]float64
	var globalCount int64
	for r := h.a.BegRow(); r <= h.a.EndRow(); r++ {
		ind, val, err := h.a.GetRow(r)
		if err != nil {
			return 0, fmt.Errorf("%w: SelectThresh row %d: %v", errs.ErrTransport, r, err)
		}
		mags := make([]float64, len(ind))
		si := h.diag.Get(r)
		for k, c := range ind {
			mags[k] = math.Abs(si * val[k] * h.diag.Get(c))
		}
		rows = append(rows, mags)
	}
	begRows, endRows := h.a.BegRows(), h.a.EndRows()
	globalCount = endRows[len(endRows)-1] - begRows[0] + 1

	t, err := threshold.Select(ctx, h.comm, rng, rows, param, globalCount)
	if err != nil {
		return 0, err
	}
	h.threshold = t
	h.log.Info("selected threshold", "threshold", t, "param", param, "localRows", len(rows))
	return t, nil
}

// SetupPattern builds every local row's pruned pattern, exchanges it
// num_levels deep with other ranks (ExchangePruned), runs PatternBuilder,
// and allocates M's (structure-only) rows.
func (h *Handle) SetupPattern(ctx context.Context, thresh float64, numLevels int) error {
	h.threshold = thresh
	h.pruned = prunedrows.New()

	var seed []int64
	for r := h.a.BegRow(); r <= h.a.EndRow(); r++ {
		ind, val, err := h.a.GetRow(r)
		if err != nil {
			return fmt.Errorf("%w: SetupPattern row %d: %v", errs.ErrTransport, r, err)
		}
		si := h.diag.Get(r)
		local := []int64{r}
		for k, c := range ind {
			if c == r {
				continue
			}
			if math.Abs(si*val[k]*h.diag.Get(c)) >= thresh {
				local = append(local, c)
			}
		}
		if err := h.pruned.InsertLocal(r, local); err != nil {
			return err
		}
		seed = append(seed, local...)
	}

	p := rowpattern.New(h.opts.patternCapacity())
	if err := p.MergeExternal(seed, h.a.BegRow(), h.a.EndRow()); err != nil {
		return err
	}

	if numLevels > 0 {
		if err := exchange.ExchangePruned(ctx, h.comm, h.a, h.pruned, p, numLevels, h.opts.Metrics); err != nil {
			return err
		}
	}

	res, err := patternbuilder.Build(h.a, h.pruned, numLevels)
	if err != nil {
		return err
	}
	h.patterns = res.Patterns
	h.opts.Metrics.SetPatternRows(len(res.Patterns))

	for r, cols := range res.Patterns {
		if err := h.m.AllocRowStructure(r, cols); err != nil {
			return fmt.Errorf("%w: allocating M row %d structure: %v", errs.ErrTransport, r, err)
		}
	}

	h.stored = storedrows.New(h.a)
	if err := exchange.ExchangeStored(ctx, h.comm, h.a, h.stored, res.External, res.NumReplies, h.opts.Metrics); err != nil {
		return err
	}
	h.log.Info("pattern built", "localRows", len(res.Patterns), "numReplies", res.NumReplies, "numLevels", numLevels)
	return nil
}

// SetupValues solves each local row's Âᵢx=b and writes the result into M's
// values. SetupPattern must have been called first.
func (h *Handle) SetupValues(ctx context.Context) error {
	if h.patterns == nil {
		return fmt.Errorf("parasails: SetupValues called before SetupPattern")
	}
	for r, cols := range h.patterns {
		row, err := valuesolver.Solve(h.stored, r, cols)
		if err != nil {
			h.opts.Metrics.SolveFailed()
			h.log.Warn("row solve failed", "row", r, "patternLen", len(cols), "error", err)
			return err
		}
		if err := h.m.SetRowValues(r, row.Indices, row.Values); err != nil {
			return fmt.Errorf("%w: setting M row %d values: %v", errs.ErrTransport, r, err)
		}
	}
	h.valuesReady = true
	return nil
}
