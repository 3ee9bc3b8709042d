// Backline - Concert Booking and Venue Contact Reconciliation
// Copyright 2026 Backline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/backlinehq/backline

// Package metrics defines the Prometheus instrumentation for Backline.
// All collectors are registered with the default registry via promauto and
// exposed on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APIRequestsTotal counts HTTP requests by method, route and status.
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backline_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	// APIRequestDuration observes HTTP request latency.
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backline_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// APIActiveRequests gauges in-flight HTTP requests.
	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "backline_api_active_requests",
			Help: "Number of API requests currently being served",
		},
	)

	// StoreOpDuration observes store operation latency by operation name.
	StoreOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backline_store_op_duration_seconds",
			Help:    "Store operation duration in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"operation"},
	)

	// StoreConflictsTotal counts transaction conflicts that were retried.
	StoreConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "backline_store_conflicts_total",
			Help: "Total number of store transaction conflicts",
		},
	)

	// StoreRetriesExhaustedTotal counts conditional writes that gave up.
	StoreRetriesExhaustedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "backline_store_retries_exhausted_total",
			Help: "Total number of store operations that exhausted conflict retries",
		},
	)

	// LinksIssuedTotal counts link issuance by outcome (new or existing).
	LinksIssuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backline_links_issued_total",
			Help: "Total number of intake links issued",
		},
		[]string{"outcome"},
	)

	// SubmissionsTotal counts public form submissions by result.
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backline_submissions_total",
			Help: "Total number of public form submissions",
		},
		[]string{"result"},
	)

	// CommitStepsTotal counts propagation commit steps by step and outcome.
	CommitStepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backline_commit_steps_total",
			Help: "Total number of propagation commit steps executed",
		},
		[]string{"step", "outcome"},
	)

	// CommitsTotal counts propagation commits by outcome.
	CommitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backline_commits_total",
			Help: "Total number of propagation commits",
		},
		[]string{"outcome"},
	)
)

// RecordAPIRequest records one completed HTTP request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// ObserveStoreOp records the duration of a store operation. Call with defer:
//
//	defer metrics.ObserveStoreOp("get_booking", time.Now())
func ObserveStoreOp(operation string, start time.Time) {
	StoreOpDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// RecordStoreConflict counts one retried transaction conflict.
func RecordStoreConflict() {
	StoreConflictsTotal.Inc()
}

// RecordStoreRetriesExhausted counts one conditional write that gave up.
func RecordStoreRetriesExhausted() {
	StoreRetriesExhaustedTotal.Inc()
}

// RecordLinkIssued counts a link issuance. Outcome is "new" or "existing".
func RecordLinkIssued(outcome string) {
	LinksIssuedTotal.WithLabelValues(outcome).Inc()
}

// RecordSubmission counts a public submission attempt by result.
func RecordSubmission(result string) {
	SubmissionsTotal.WithLabelValues(result).Inc()
}

// RecordCommitStep counts one propagation step execution.
func RecordCommitStep(step string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	CommitStepsTotal.WithLabelValues(step, outcome).Inc()
}

// RecordCommit counts one propagation commit by outcome.
func RecordCommit(outcome string) {
	CommitsTotal.WithLabelValues(outcome).Inc()
}
