// Package metrics holds the Prometheus collectors for the notes and chat pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rag_notes"

type Metrics struct {
	Registry *prometheus.Registry

	ChatTurns        *prometheus.CounterVec
	ChatStepDuration *prometheus.HistogramVec
	NotesCreated     *prometheus.CounterVec
	NotesDeleted     *prometheus.CounterVec
	VectorCleanups   *prometheus.CounterVec
	ReconcileActions *prometheus.CounterVec
}

// New builds collectors on a private registry so tests can create many.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		ChatTurns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_turns_total",
			Help:      "Chat turns by outcome.",
		}, []string{"outcome"}),
		ChatStepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chat_step_duration_seconds",
			Help:      "Latency of each chat orchestration step.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 14),
		}, []string{"step"}),
		NotesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notes_created_total",
			Help:      "Note creations by outcome.",
		}, []string{"outcome"}),
		NotesDeleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notes_deleted_total",
			Help:      "Note deletions by outcome.",
		}, []string{"outcome"}),
		VectorCleanups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vector_cleanups_total",
			Help:      "Queued orphan vector deletions by outcome.",
		}, []string{"outcome"}),
		ReconcileActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_actions_total",
			Help:      "Repairs made by the reconciliation sweep.",
		}, []string{"action"}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ChatTurns,
		m.ChatStepDuration,
		m.NotesCreated,
		m.NotesDeleted,
		m.VectorCleanups,
		m.ReconcileActions,
	)
	return m
}

func (m *Metrics) ObserveStep(step string, start time.Time) {
	m.ChatStepDuration.WithLabelValues(step).Observe(time.Since(start).Seconds())
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
