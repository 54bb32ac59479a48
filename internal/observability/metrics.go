package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// Source query rate per category. Watch for: error vs success ratio,
	// Earth Engine quota exhaustion showing up as "unavailable".
	SourceQueriesTotal *prometheus.CounterVec

	// External source latency per query. ERA5-Land queries routinely take
	// seconds; watch for p95 drift signalling upstream degradation.
	SourceQueryDuration *prometheus.HistogramVec

	// Completed extraction requests by outcome.
	ExtractionsTotal *prometheus.CounterVec

	// Daily records returned per extraction. Watch for: unexpectedly small
	// results hinting at coverage gaps.
	ExtractionRecords prometheus.Histogram
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	SourceQueriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "climate_source_queries_total",
		Help: "Queries issued to the external climate data source.",
	}, []string{"category", "status"})
	registry.MustRegister(SourceQueriesTotal)

	SourceQueryDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "climate_source_query_duration_seconds",
		Help:    "Latency of external climate source queries.",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"status"})
	registry.MustRegister(SourceQueryDuration)

	ExtractionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "climate_extractions_total",
		Help: "Extraction requests by outcome.",
	}, []string{"status"})
	registry.MustRegister(ExtractionsTotal)

	ExtractionRecords = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "climate_extraction_records",
		Help:    "Daily records returned per extraction.",
		Buckets: []float64{0, 10, 31, 92, 366, 1830, 3660, 18300},
	})
	registry.MustRegister(ExtractionRecords)
}

// Handler returns the HTTP handler serving the metrics registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
