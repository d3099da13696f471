// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the counters recorded by adapters and download pipelines.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// SourceRequests counts adapter queries by source and outcome
	// ("ok" or an error kind).
	SourceRequests *prometheus.CounterVec

	// Downloads counts per-item download outcomes by pipeline, outcome kind
	// and retrieved format.
	Downloads *prometheus.CounterVec

	// Fallbacks counts acquisitions that abandoned the source archive.
	Fallbacks prometheus.Counter
}

// NewMetrics registers the paperfetch metrics on a private registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		SourceRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "paperfetch",
			Name:      "source_requests_total",
			Help:      "Adapter queries by upstream source and outcome.",
		}, []string{"source", "outcome"}),
		Downloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "paperfetch",
			Name:      "downloads_total",
			Help:      "Per-identifier download outcomes.",
		}, []string{"pipeline", "outcome", "format"}),
		Fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "paperfetch",
			Name:      "fallbacks_total",
			Help:      "Acquisitions that fell back from the source archive to the rendered document.",
		}),
	}
	reg.MustRegister(m.SourceRequests, m.Downloads, m.Fallbacks)
	return m
}

// Registry exposes the underlying registry for export.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}

// ObserveSource records one adapter query.
func (m *Metrics) ObserveSource(source, outcome string) {
	if m == nil {
		return
	}
	m.SourceRequests.WithLabelValues(source, outcome).Inc()
}

// ObserveDownload records one per-item outcome.
func (m *Metrics) ObserveDownload(pipeline, outcome, format string, fellBack bool) {
	if m == nil {
		return
	}
	m.Downloads.WithLabelValues(pipeline, outcome, format).Inc()
	if fellBack {
		m.Fallbacks.Inc()
	}
}

// WriteTextfile writes all metrics to path in the Prometheus text format
// understood by the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry())
}
