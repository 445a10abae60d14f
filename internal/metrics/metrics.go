package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the storefront collectors.
	Registry = prometheus.NewRegistry()

	apiRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of remote API attempts by outcome status (0 = no response).",
		},
		[]string{"operation", "method", "status"},
	)

	apiDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "storefront",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Duration of single remote API attempts.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"operation"},
	)

	apiRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "api",
			Name:      "retries_total",
			Help:      "Total number of retried remote API attempts.",
		},
		[]string{"operation"},
	)

	cartMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "cart",
			Name:      "mutations_total",
			Help:      "Total number of dispatched cart actions.",
		},
		[]string{"action"},
	)

	checkoutSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "checkout",
			Name:      "submissions_total",
			Help:      "Checkout submissions by result.",
		},
		[]string{"result"},
	)
)

func init() {
	Registry.MustRegister(
		apiRequests,
		apiDuration,
		apiRetries,
		cartMutations,
		checkoutSubmissions,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordAPIAttempt records one remote API attempt.
func RecordAPIAttempt(operation string, method string, status int, duration time.Duration) {
	if operation == "" {
		operation = "request"
	}
	if duration <= 0 {
		duration = time.Millisecond
	}
	apiRequests.WithLabelValues(operation, method, strconv.Itoa(status)).Inc()
	apiDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func RecordAPIRetry(operation string) {
	if operation == "" {
		operation = "request"
	}
	apiRetries.WithLabelValues(operation).Inc()
}

func RecordCartMutation(action string) {
	cartMutations.WithLabelValues(action).Inc()
}

func RecordCheckoutSubmission(result string) {
	checkoutSubmissions.WithLabelValues(result).Inc()
}
