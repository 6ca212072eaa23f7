package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Scheduling metrics
	ScheduleSearchLatency prometheus.Histogram
	ScheduleCandidates    prometheus.Histogram
	ScheduleEmptyResults  prometheus.Counter

	// Reservation metrics
	ReservationAttempts *prometheus.CounterVec
	ReservationReleases prometheus.Counter

	// Booking request metrics
	RequestTransitions *prometheus.CounterVec
	RequestsExpired    prometheus.Counter

	// Database metrics
	DatabaseOperations *prometheus.CounterVec
	DatabaseLatency    *prometheus.HistogramVec
}

// NewMetrics creates and registers all application metrics
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ScheduleSearchLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "schedule_search_duration_seconds",
			Help:      "Time spent finding optimal schedule suggestions",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}),
		ScheduleCandidates: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "schedule_candidates_returned",
			Help:      "Number of candidates returned per schedule search",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		}),
		ScheduleEmptyResults: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schedule_empty_results_total",
			Help:      "Total number of schedule searches that matched no candidates",
		}),
		ReservationAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservation_attempts_total",
			Help:      "Total number of slot reservation attempts",
		}, []string{"outcome"}),
		ReservationReleases: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservation_releases_total",
			Help:      "Total number of slot reservation releases",
		}),
		RequestTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_request_transitions_total",
			Help:      "Total number of booking request status transitions",
		}, []string{"to_status"}),
		RequestsExpired: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_requests_expired_total",
			Help:      "Total number of booking requests expired by the sweeper",
		}),
		DatabaseOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "database_operations_total",
			Help:      "Total number of database operations",
		}, []string{"operation", "status"}),
		DatabaseLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "database_operation_duration_seconds",
			Help:      "Duration of database operations",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
	}
}
