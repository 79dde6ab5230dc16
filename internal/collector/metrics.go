package collector

import "github.com/prometheus/client_golang/prometheus"

// Tick results.
const (
	resultOK        = "ok"
	resultEmpty     = "empty"
	resultPaused    = "paused"
	resultFollower  = "follower"
	resultRejected  = "rejected"
	resultError     = "error"
	resultSinkError = "sink_error"
	resultGateError = "gate_error"

	resultWatermarkError = "watermark_error"
)

var (
	ticksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "status_stream_collector_ticks_total",
			Help: "Total number of collector ticks by result",
		},
		[]string{"result"},
	)

	insertedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "status_stream_collector_inserted_total",
			Help: "Total number of statuses stored by the collector",
		},
	)
)

func init() {
	prometheus.MustRegister(ticksTotal, insertedTotal)
}
