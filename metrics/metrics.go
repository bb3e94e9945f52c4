// Copyright (C) 2026, ParaSails Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metrics instruments the build/apply pipeline with Prometheus
// counters and gauges: requests sent,
// REPI/REPV replies received for both Exchange variants, and solve
// failures. A nil *Recorder is always legal and every method on it is a
// no-op, so callers that don't care about metrics can pass nil through
// without a conditional at every call site.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Recorder holds the Prometheus collectors parasails reports through.
type Recorder struct {
	reqSent       prometheus.Counter
	repiReceived  *prometheus.CounterVec
	repvReceived  prometheus.Counter
	solveFailures prometheus.Counter
	patternRows   prometheus.Gauge
}

// NewRecorder registers parasails' collectors against reg and returns a
// Recorder reporting through them. reg may be any prometheus.Registerer,
// including a sub-registry obtained from WrapRegistererWithPrefix.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		reqSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "parasails_requests_sent_total",
			Help: "Number of REQ messages sent by SendRequests.",
		}),
		repiReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parasails_repi_received_total",
			Help: "Number of REPI replies received, labeled by exchange variant.",
		}, []string{"exchange"}),
		repvReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "parasails_repv_received_total",
			Help: "Number of REPV replies received by ExchangeStored.",
		}),
		solveFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "parasails_solve_failures_total",
			Help: "Number of per-row Cholesky solves that failed.",
		}),
		patternRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "parasails_pattern_rows",
			Help: "Number of local rows with a pattern allocated in M.",
		}),
	}
	reg.MustRegister(r.reqSent, r.repiReceived, r.repvReceived, r.solveFailures, r.patternRows)
	return r
}

func (r *Recorder) RequestSent() {
	if r == nil {
		return
	}
	r.reqSent.Inc()
}

func (r *Recorder) REPIReceived(exchange string) {
	if r == nil {
		return
	}
	r.repiReceived.WithLabelValues(exchange).Inc()
}

func (r *Recorder) REPVReceived() {
	if r == nil {
		return
	}
	r.repvReceived.Inc()
}

func (r *Recorder) SolveFailed() {
	if r == nil {
		return
	}
	r.solveFailures.Inc()
}

func (r *Recorder) SetPatternRows(n int) {
	if r == nil {
		return
	}
	r.patternRows.Set(float64(n))
}
