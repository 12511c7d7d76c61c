// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"marketplace-compat/internal/compatibility"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	CompatibilityRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compatibility_requests_total",
			Help: "Compatibility computations by category and outcome",
		},
		[]string{"category", "outcome"},
	)

	CompatibilityOverallScore = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "compatibility_overall_score",
			Help:    "Distribution of overall compatibility scores",
			Buckets: prometheus.LinearBuckets(10, 10, 10),
		},
		[]string{"category"},
	)

	CompatibilityBadges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compatibility_badges_total",
			Help: "Badges awarded to compatibility results",
		},
		[]string{"badge"},
	)

	CompatibilityCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compatibility_cache_lookups_total",
			Help: "Result and profile cache lookups by cache and result",
		},
		[]string{"cache", "result"},
	)
)

// Outcome labels for CompatibilityRequests.
const (
	OutcomeScored      = "scored"
	OutcomeCached      = "cached"
	OutcomeUnsupported = "unsupported_category"
	OutcomeError       = "error"
)

// ObserveResult records a freshly computed or cached result.
func ObserveResult(result compatibility.CompatibilityResult, cached bool) {
	category := string(result.Category)
	if cached {
		CompatibilityRequests.WithLabelValues(category, OutcomeCached).Inc()
		return
	}
	CompatibilityRequests.WithLabelValues(category, OutcomeScored).Inc()
	CompatibilityOverallScore.WithLabelValues(category).Observe(float64(result.OverallScore))
	for _, b := range result.Badges {
		CompatibilityBadges.WithLabelValues(string(b)).Inc()
	}
}

// ObserveFailure records a computation that produced no result.
func ObserveFailure(category string, err error) {
	outcome := OutcomeError
	if compatibility.IsUnsupportedCategory(err) {
		outcome = OutcomeUnsupported
		category = "unknown"
	}
	CompatibilityRequests.WithLabelValues(category, outcome).Inc()
}

// ObserveCacheLookup records a cache hit or miss.
func ObserveCacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CompatibilityCacheLookups.WithLabelValues(cache, result).Inc()
}
