// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics collects Prometheus measurements of VO queries and row
// outcomes. Metrics are registered on a caller-supplied registry and can be
// written to a node-exporter textfile at the end of a run.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pdiddy/gleam-vo/internal/cutout"
	"github.com/pdiddy/gleam-vo/pkg/types"
)

const namespace = "gleam_vo"

// Metrics implements cutout.Observer.
type Metrics struct {
	gatherer prometheus.Gatherer

	queryDuration *prometheus.HistogramVec
	queryErrors   *prometheus.CounterVec
	rowsTotal     *prometheus.CounterVec
	bytesTotal    *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{
		gatherer: reg,
		queryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_duration_seconds",
				Help:      "Duration of VO queries, including the table parse.",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 200},
			},
			[]string{"service"},
		),
		queryErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "query_errors_total",
				Help:      "VO queries that failed, by reason.",
			},
			[]string{"service", "reason"},
		),
		rowsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rows_total",
				Help:      "Processed table rows by outcome.",
			},
			[]string{"service", "outcome"},
		),
		bytesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "written_bytes_total",
				Help:      "Bytes written to artifacts.",
			},
			[]string{"service"},
		),
	}

	for _, c := range []prometheus.Collector{m.queryDuration, m.queryErrors, m.rowsTotal, m.bytesTotal} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("registering collector: %w", err)
		}
	}
	return m, nil
}

// ObserveQuery records the duration of a VO query and, on failure, its
// reason.
func (m *Metrics) ObserveQuery(service types.Service, elapsed time.Duration, err error) {
	m.queryDuration.WithLabelValues(string(service)).Observe(elapsed.Seconds())
	if err != nil {
		m.queryErrors.WithLabelValues(string(service), reason(err)).Inc()
	}
}

// ObserveRow counts one processed row.
func (m *Metrics) ObserveRow(service types.Service, row types.RowReport) {
	m.rowsTotal.WithLabelValues(string(service), string(row.Outcome)).Inc()
	if row.Bytes > 0 {
		m.bytesTotal.WithLabelValues(string(service)).Add(float64(row.Bytes))
	}
}

// WriteTextfile writes every registered metric to path in the text
// exposition format, for the node-exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.gatherer); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}

func reason(err error) string {
	switch {
	case errors.Is(err, cutout.ErrNoResults):
		return "no_results"
	case errors.Is(err, cutout.ErrFetch):
		return "fetch"
	default:
		return "other"
	}
}
