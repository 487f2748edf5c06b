package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	relayDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_deliveries_total",
			Help: "Outbound delivery attempts by terminal status.",
		},
		[]string{"status"},
	)

	relayLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relay_latency_ms",
			Help:    "Gateway delivery latency distribution in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000},
		},
		[]string{"status"},
	)

	bindAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bind_attempts_total",
			Help: "Pairing attempts by outcome.",
		},
		[]string{"result"},
	)

	messagesStored = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_stored_total",
			Help: "Messages appended to the log by direction.",
		},
		[]string{"direction"},
	)
)

func init() {
	register(relayDeliveries, relayLatencyMs, bindAttempts, messagesStored)
}

// ObserveDelivery records one gateway attempt with its latency.
func ObserveDelivery(status string, elapsed time.Duration) {
	relayDeliveries.WithLabelValues(status).Inc()
	relayLatencyMs.WithLabelValues(status).Observe(float64(elapsed.Milliseconds()))
}

// IncBindAttempt records a pairing attempt outcome
// (success|token_not_found|invalid_format|chat_taken|rate_limited|error).
func IncBindAttempt(result string) {
	bindAttempts.WithLabelValues(result).Inc()
}

// IncMessageStored records an append to the message log.
func IncMessageStored(direction string) {
	messagesStored.WithLabelValues(direction).Inc()
}
