package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AnalysisRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analysis_runs_total",
			Help: "Total number of analysis runs by outcome",
		},
		[]string{"status"},
	)

	// no symbol label, symbols come straight from requests
	FailedSymbolsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "analysis_failed_symbols_total",
			Help: "Symbols excluded from an analysis because no usable data was available",
		},
	)

	AnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "analysis_duration_seconds",
			Help:    "Duration of analysis stages",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	SymbolSyncTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "symbol_sync_total",
			Help: "Alpha vantage to postgres syncs by outcome",
		},
		[]string{"status"},
	)
)
