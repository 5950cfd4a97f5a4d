package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"career-compass/internal/normalize"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	NormalizeOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "compass",
		Name:      "normalize_outcomes_total",
		Help:      "Record normalization results by outcome kind.",
	}, []string{"operation", "kind"})

	StoreDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "compass",
		Name:      "store_operation_duration_seconds",
		Help:      "Latency of store operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"backend", "op", "result"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "compass",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status code.",
	}, []string{"method", "route", "status"})

	RemindersSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "compass",
		Name:      "reminders_sent_total",
		Help:      "Due reminder digests delivered to chats.",
	})
)

// ObserveNormalize counts one normalization result.
func ObserveNormalize(operation string, err error) {
	kind := "ok"
	if err != nil {
		var ve *normalize.ValidationError
		if errors.As(err, &ve) {
			kind = string(ve.Kind)
		} else {
			kind = "error"
		}
	}
	NormalizeOutcomes.WithLabelValues(operation, kind).Inc()
}

// ObserveStore records the duration of a store call started at start.
func ObserveStore(backend, op string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	StoreDuration.WithLabelValues(backend, op, result).Observe(time.Since(start).Seconds())
}

func ObserveHTTP(method, route string, status int) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}
