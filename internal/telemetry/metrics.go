package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Значения label "result" для PassesTotal.
const (
	PassCompleted = "completed"
	PassSkipped   = "skipped"
	PassFailed    = "failed"
)

// Prometheus-метрики планировщика. Экспортируются на /metrics.
var (
	// PassesTotal — количество проходов по исходу.
	PassesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "emissary_scheduler_passes_total",
		Help: "Total scheduling passes by result (completed, skipped, failed).",
	}, []string{"result"})

	// PassDuration — длительность непропущенных проходов.
	PassDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "emissary_scheduler_pass_duration_seconds",
		Help:    "Duration of non-skipped scheduling passes.",
		Buckets: prometheus.DefBuckets,
	})

	// ExpiredPublicationsTotal — публикаций переведено в EXPIRED.
	ExpiredPublicationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "emissary_publications_expired_total",
		Help: "Publications transitioned to EXPIRED by the sweeper.",
	})

	// ExpiredPostsTotal — постов переведено в FAILED("EXPIRED").
	ExpiredPostsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "emissary_posts_expired_total",
		Help: "Posts failed with EXPIRED by the sweeper.",
	})

	// TriggeredPublicationsTotal — публикаций захвачено и отправлено.
	TriggeredPublicationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "emissary_publications_triggered_total",
		Help: "Publications claimed and successfully handed to the delivery backend.",
	})

	// DispatchFailuresTotal — ошибок claim/dispatch по кандидатам.
	DispatchFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "emissary_dispatch_failures_total",
		Help: "Per-candidate claim/dispatch failures.",
	})
)
