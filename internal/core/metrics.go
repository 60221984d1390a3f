package core

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	importsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "opsdesk",
		Subsystem: "import",
		Name:      "submits_total",
		Help:      "Total number of bulk import submits broken down by entity and result.",
	}, []string{"entity", "result"})

	importRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "opsdesk",
		Subsystem: "import",
		Name:      "rows_total",
		Help:      "Rows processed by bulk import broken down by entity and outcome.",
	}, []string{"entity", "outcome"})

	importIssues = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "opsdesk",
		Subsystem: "import",
		Name:      "issues_total",
		Help:      "Field-level issues found while mapping rows.",
	}, []string{"entity", "code"})

	importLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "opsdesk",
		Subsystem: "import",
		Name:      "submit_latency_seconds",
		Help:      "Latency distribution for bulk import submits.",
		Buckets: []float64{
			0.01, 0.02, 0.05,
			0.1, 0.2, 0.5,
			1, 2, 5, 10, 30,
		},
	}, []string{"entity", "result"})

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "opsdesk",
		Subsystem: "import",
		Name:      "sessions_active",
		Help:      "Import sessions currently held by the in-memory store.",
	})
)

func recordSubmitMetrics(result *ImportResult, err error, latency time.Duration) {
	outcome := "succeeded"
	switch {
	case err == nil:
	case isPermission(err):
		outcome = "denied"
	default:
		outcome = "failed"
	}

	labels := prometheus.Labels{"entity": result.Entity, "result": outcome}
	importsTotal.With(labels).Inc()
	importLatency.With(labels).Observe(latency.Seconds())

	for _, o := range result.Outcomes {
		importRows.WithLabelValues(result.Entity, string(o.Status)).Inc()
	}
	if len(result.Outcomes) == 0 && result.Inserted > 0 {
		importRows.WithLabelValues(result.Entity, string(OutcomeInserted)).Add(float64(result.Inserted))
	}
	for _, is := range result.Issues {
		importIssues.WithLabelValues(result.Entity, is.Code).Inc()
	}
}
