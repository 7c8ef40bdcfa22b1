package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/linnemanlabs/raven/internal/dedupe"
	"github.com/linnemanlabs/raven/internal/llm"
	"github.com/linnemanlabs/raven/internal/relevance"
)

// Metrics holds Prometheus metrics for the aggregation pipeline.
type Metrics struct {
	ItemsCollected   *prometheus.CounterVec
	CollectorErrors  *prometheus.CounterVec
	ItemsProcessed   *prometheus.CounterVec
	Comparisons      prometheus.Counter
	ComparisonErrors prometheus.Counter
	CompareDuration  prometheus.Histogram
	Duplicates       prometheus.Counter
	OracleCalls      *prometheus.CounterVec
	OracleDuration   *prometheus.HistogramVec
	OracleTokensIn   prometheus.Counter
	OracleTokensOut  prometheus.Counter
	RunDuration      prometheus.Histogram
}

// NewMetrics registers and returns pipeline metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ItemsCollected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "raven_items_collected_total",
			Help: "Items collected per source.",
		}, []string{"source"}),
		CollectorErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "raven_collector_errors_total",
			Help: "Collector failures per source.",
		}, []string{"source"}),
		ItemsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "raven_items_processed_total",
			Help: "Items processed by outcome (relevant, filtered, error).",
		}, []string{"outcome"}),
		Comparisons: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "raven_dedupe_comparisons_total",
			Help: "Pairwise similarity comparisons issued.",
		}),
		ComparisonErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "raven_dedupe_comparison_errors_total",
			Help: "Similarity comparisons that failed and defaulted to distinct.",
		}),
		CompareDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "raven_dedupe_compare_duration_seconds",
			Help:    "Duration of individual similarity comparisons.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 0.1s .. ~51s
		}),
		Duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "raven_dedupe_duplicates_total",
			Help: "Items marked as cross-source duplicates.",
		}),
		OracleCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "raven_oracle_calls_total",
			Help: "Relevance oracle calls by kind (assess, analyze) and outcome.",
		}, []string{"kind", "outcome"}),
		OracleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "raven_oracle_call_duration_seconds",
			Help:    "Duration of relevance oracle calls.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 8), // 0.5s .. ~64s
		}, []string{"kind"}),
		OracleTokensIn: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "raven_oracle_tokens_input_total",
			Help: "Total oracle input tokens consumed.",
		}),
		OracleTokensOut: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "raven_oracle_tokens_output_total",
			Help: "Total oracle output tokens consumed.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "raven_run_duration_seconds",
			Help:    "Duration of full pipeline runs.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s .. ~68m
		}),
	}

	reg.MustRegister(
		m.ItemsCollected,
		m.CollectorErrors,
		m.ItemsProcessed,
		m.Comparisons,
		m.ComparisonErrors,
		m.CompareDuration,
		m.Duplicates,
		m.OracleCalls,
		m.OracleDuration,
		m.OracleTokensIn,
		m.OracleTokensOut,
		m.RunDuration,
	)

	return m
}

// PipelineHooks returns a Hooks that increments the pipeline metrics.
func (m *Metrics) PipelineHooks() Hooks {
	return Hooks{
		OnCollect: func(source string, count int, failed bool) {
			if failed {
				m.CollectorErrors.WithLabelValues(source).Inc()
				return
			}
			m.ItemsCollected.WithLabelValues(source).Add(float64(count))
		},
		OnItemProcessed: func(outcome string) {
			m.ItemsProcessed.WithLabelValues(outcome).Inc()
		},
		OnRunComplete: func(duration float64) {
			m.RunDuration.Observe(duration)
		},
	}
}

// DedupeHooks returns a dedupe.Hooks that increments the dedup metrics.
func (m *Metrics) DedupeHooks() dedupe.Hooks {
	return dedupe.Hooks{
		OnCompare: func(duration float64, failed bool) {
			m.Comparisons.Inc()
			m.CompareDuration.Observe(duration)
			if failed {
				m.ComparisonErrors.Inc()
			}
		},
		OnDuplicate: func() {
			m.Duplicates.Inc()
		},
	}
}

// RelevanceHooks returns a relevance.Hooks that increments the oracle metrics.
func (m *Metrics) RelevanceHooks() relevance.Hooks {
	return relevance.Hooks{
		OnOracleCall: func(kind string, duration float64, failed bool, usage llm.Usage) {
			outcome := "success"
			if failed {
				outcome = "error"
			}
			m.OracleCalls.WithLabelValues(kind, outcome).Inc()
			m.OracleDuration.WithLabelValues(kind).Observe(duration)
			m.OracleTokensIn.Add(float64(usage.InputTokens))
			m.OracleTokensOut.Add(float64(usage.OutputTokens))
		},
	}
}
