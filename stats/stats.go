// Package stats provides methods and functionality to register, track, and
// Prometheus-export coordinator statistics: counters and gauges, for the most part.
/*
 * Copyright (c) 2025, AO3Scraper Authors. All rights reserved.
 */
package stats

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metric names
const (
	BatchCount     = "batch_total"            // /work-batch calls served
	DispatchedIDs  = "dispatched_ids_total"   // IDs handed to workers
	CompletedCount = "completed_total"        // first-time completed commits
	PrivateCount   = "private_total"          // first-time private commits
	DuplicateCount = "duplicate_total"        // redundant submissions (marker append skipped)
	CommitErrCount = "commit_errors_total"    // failed durable appends
	RotateCount    = "rotations_total"        // results log rotations
	QueueDepth     = "queue_depth"            // dispatch queue size
	AssignedGauge  = "assigned"               // in-flight assignments
	DiskUsedGauge  = "disk_used_percent"      // output filesystem usage
)

type Tracker struct {
	reg      *prometheus.Registry
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
}

func NewTracker(runID string) *Tracker {
	t := &Tracker{
		reg:      prometheus.NewRegistry(),
		counters: make(map[string]prometheus.Counter, 8),
		gauges:   make(map[string]prometheus.Gauge, 4),
	}
	constLabels := prometheus.Labels{"run_id": runID}
	for _, name := range []string{
		BatchCount, DispatchedIDs, CompletedCount, PrivateCount,
		DuplicateCount, CommitErrCount, RotateCount,
	} {
		c := prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "ao3scraper",
			Subsystem:   "coordinator",
			Name:        name,
			ConstLabels: constLabels,
		})
		t.reg.MustRegister(c)
		t.counters[name] = c
	}
	for _, name := range []string{QueueDepth, AssignedGauge, DiskUsedGauge} {
		g := prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "ao3scraper",
			Subsystem:   "coordinator",
			Name:        name,
			ConstLabels: constLabels,
		})
		t.reg.MustRegister(g)
		t.gauges[name] = g
	}
	return t
}

func (t *Tracker) Inc(name string)            { t.counters[name].Inc() }
func (t *Tracker) Add(name string, n int64)   { t.counters[name].Add(float64(n)) }
func (t *Tracker) Set(name string, v int64)   { t.gauges[name].Set(float64(v)) }

// Handler serves the registry in the Prometheus exposition format.
func (t *Tracker) Handler() http.Handler {
	return promhttp.HandlerFor(t.reg, promhttp.HandlerOpts{})
}
