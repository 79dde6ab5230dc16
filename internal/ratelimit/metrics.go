package ratelimit

import "github.com/prometheus/client_golang/prometheus"

var (
	AllowedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "status_stream_ratelimit_allowed_total",
			Help: "Requests allowed by a rate limit rule",
		},
		[]string{"rule"},
	)

	DeniedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "status_stream_ratelimit_denied_total",
			Help: "Requests rejected by a rate limit rule",
		},
		[]string{"rule"},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "status_stream_ratelimit_errors_total",
			Help: "Rate limit checks that failed",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(AllowedTotal, DeniedTotal, ErrorsTotal)
}
