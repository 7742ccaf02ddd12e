package observability

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce           sync.Once
	apiRequestsTotal       *prometheus.CounterVec
	apiLatencySeconds      *prometheus.HistogramVec
	apiErrorsTotal         *prometheus.CounterVec
	transcriptEntriesTotal *prometheus.CounterVec
	gradeEventsTotal       *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the records API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "records_requests_total",
			Help: "Total number of records API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "records_latency_seconds",
			Help:    "Latency distribution for records API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "records_errors_total",
			Help: "Total number of error responses returned by records endpoints.",
		}, []string{"method", "route", "status"})

		transcriptEntriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "records_transcript_entries_total",
			Help: "Transcript entries produced, labelled by resolution outcome.",
		}, []string{"outcome"})

		gradeEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "records_grade_events_total",
			Help: "Grade events published to brokers, labelled by broker and result.",
		}, []string{"broker", "result"})

		prometheus.MustRegister(apiRequestsTotal, apiLatencySeconds, apiErrorsTotal, transcriptEntriesTotal, gradeEventsTotal)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// TranscriptEntries counts transcript entries by outcome ("resolved" or "unresolved").
func TranscriptEntries() *prometheus.CounterVec {
	RegisterMetrics()
	return transcriptEntriesTotal
}

// GradeEvents counts grade event publications by broker and result.
func GradeEvents() *prometheus.CounterVec {
	RegisterMetrics()
	return gradeEventsTotal
}

// MetricsHandler serves the Prometheus scrape endpoint.
func MetricsHandler() fiber.Handler {
	RegisterMetrics()
	return adaptor.HTTPHandler(promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
}
