package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "calcetto",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route pattern, method and status code.",
	}, []string{"route", "method", "status"})

	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "calcetto",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route pattern.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	MatchTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "calcetto",
		Name:      "match_transitions_total",
		Help:      "Match state transitions.",
	}, []string{"from", "to"})

	BalanceIndex = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "calcetto",
		Name:      "generated_balance_index",
		Help:      "Balance index of generated teams.",
		Buckets:   []float64{50, 60, 70, 80, 90, 95, 98, 100},
	})

	LoginAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "calcetto",
		Name:      "login_attempts_total",
		Help:      "Login attempts by outcome.",
	}, []string{"outcome"})
)

// Register регистрирует все метрики в переданном реестре.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{HTTPRequests, HTTPDuration, MatchTransitions, BalanceIndex, LoginAttempts} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
