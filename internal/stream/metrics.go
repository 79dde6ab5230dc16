package stream

import "github.com/prometheus/client_golang/prometheus"

var (
	sessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "status_stream_sessions_active",
			Help: "Number of open streaming sessions",
		},
	)

	sessionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "status_stream_sessions_total",
			Help: "Total number of streaming sessions started",
		},
	)

	sessionCloseTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "status_stream_session_close_total",
			Help: "Total number of closed streaming sessions by reason",
		},
		[]string{"reason"},
	)

	chunksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "status_stream_chunks_total",
			Help: "Total number of status chunks written to clients",
		},
	)
)

func init() {
	prometheus.MustRegister(sessionsActive)
	prometheus.MustRegister(sessionsTotal)
	prometheus.MustRegister(sessionCloseTotal)
	prometheus.MustRegister(chunksTotal)
}
