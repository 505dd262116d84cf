// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package telemetry holds the engine's Prometheus metrics: stage
// durations, parse errors, dropped edges, and metric timeouts, exposed
// over HTTP by cmd/depgraph3d behind --metrics-addr exactly as the
// teacher wires its own ingestion metrics.
package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every Prometheus collector the engine updates across a
// build. A single package-level instance is registered once; callers
// that want isolation (e.g. parallel tests) can construct their own with
// New, which registers it to a private registry instead.
type Metrics struct {
	once sync.Once

	StageDuration    *prometheus.HistogramVec
	ParseErrors      prometheus.Counter
	DanglingEdges    prometheus.Counter
	CoalescedEdges   prometheus.Counter
	MetricTimeouts   *prometheus.CounterVec
	FilesDiscovered  prometheus.Counter
	FilesSkipped     *prometheus.CounterVec
	NodesBuilt       prometheus.Gauge
	RelationshipsBuilt prometheus.Gauge
}

var (
	defaultMetrics *Metrics
	defaultOnce    sync.Once
)

// Default returns the process-wide Metrics instance, registering its
// collectors with the default Prometheus registry exactly once.
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultMetrics = newMetrics()
		defaultMetrics.registerTo(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

// New returns a fresh Metrics instance registered to its own private
// registry, for callers (tests, multi-tenant hosts) that need isolation
// from the process-wide default registry. reg is returned so the caller
// can wire it into its own promhttp.Handler.
func New() (*Metrics, *prometheus.Registry) {
	m := newMetrics()
	reg := prometheus.NewRegistry()
	m.registerTo(reg)
	return m, reg
}

func newMetrics() *Metrics {
	buckets := []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300}
	return &Metrics{
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "depgraph3d_stage_duration_seconds",
			Help:    "Duration of each analysis pipeline stage",
			Buckets: buckets,
		}, []string{"stage"}),
		ParseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "depgraph3d_parse_errors_total",
			Help: "Files that produced at least one non-fatal ParseFile diagnostic",
		}),
		DanglingEdges: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "depgraph3d_dangling_edges_total",
			Help: "Relationships dropped because an endpoint was absent from the node table",
		}),
		CoalescedEdges: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "depgraph3d_coalesced_edges_total",
			Help: "Imports edges coalesced from more than one resolving descriptor",
		}),
		MetricTimeouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "depgraph3d_metric_timeouts_total",
			Help: "Expensive algorithms that exceeded their wall-clock budget",
		}, []string{"metric"}),
		FilesDiscovered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "depgraph3d_files_discovered_total",
			Help: "Files yielded by the discoverer across all builds",
		}),
		FilesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "depgraph3d_files_skipped_total",
			Help: "Files skipped during discovery, by reason",
		}, []string{"reason"}),
		NodesBuilt: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "depgraph3d_nodes_built",
			Help: "Node count of the most recently completed build",
		}),
		RelationshipsBuilt: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "depgraph3d_relationships_built",
			Help: "Relationship count of the most recently completed build",
		}),
	}
}

func (m *Metrics) registerTo(reg prometheus.Registerer) {
	m.once.Do(func() {
		reg.MustRegister(
			m.StageDuration,
			m.ParseErrors,
			m.DanglingEdges,
			m.CoalescedEdges,
			m.MetricTimeouts,
			m.FilesDiscovered,
			m.FilesSkipped,
			m.NodesBuilt,
			m.RelationshipsBuilt,
		)
	})
}
