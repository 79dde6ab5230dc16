package timeline

import "github.com/prometheus/client_golang/prometheus"

const (
	resultOK       = "ok"
	resultEmpty    = "empty"
	resultRejected = "rejected"
	resultError    = "error"
)

var (
	pollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "status_stream_remote_polls_total",
			Help: "Total number of remote timeline polls by result",
		},
		[]string{"result"},
	)

	pollDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "status_stream_remote_poll_duration_seconds",
			Help:    "Remote timeline poll duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(pollsTotal)
	prometheus.MustRegister(pollDuration)
}
