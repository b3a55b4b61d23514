package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/editor"
)

// Metrics counts traversal and editing activity.
type Metrics struct {
	registry    *prometheus.Registry
	NodeVisits  *prometheus.CounterVec
	Answers     *prometheus.CounterVec
	Completions prometheus.Counter
	Edits       *prometheus.CounterVec
}

// NewMetrics creates the collectors on a fresh registry, together with the
// Go runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		NodeVisits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arbor_node_visits_total",
			Help: "Total number of node visits",
		}, []string{"node_id"}),
		Answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arbor_answers_total",
			Help: "Total number of recorded answers",
		}, []string{"answer"}),
		Completions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arbor_flow_completions_total",
			Help: "Total number of walks that reached a terminal node",
		}),
		Edits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arbor_edits_total",
			Help: "Total number of saved flowchart edits",
		}, []string{"op"}),
	}
	m.registry.MustRegister(
		m.NodeVisits,
		m.Answers,
		m.Completions,
		m.Edits,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Hooks returns engine hooks that update the traversal counters.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) {
			m.NodeVisits.WithLabelValues(e.NodeID).Inc()
		},
		OnAnswer: func(_ context.Context, e *domain.AnswerEvent) {
			m.Answers.WithLabelValues(e.Answer).Inc()
		},
		OnFlowEnd: func(_ context.Context, _ *domain.NodeEvent) {
			m.Completions.Inc()
		},
	}
}

// EditorHooks returns editor hooks that count saved edits by operation.
func (m *Metrics) EditorHooks() editor.Hooks {
	return editor.Hooks{
		OnEdit: func(_ context.Context, op string, _ *domain.Document) {
			m.Edits.WithLabelValues(op).Inc()
		},
	}
}
