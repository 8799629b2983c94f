package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	CardOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "cards", Name: "operations_total", Help: "Card store operations by operation and outcome."},
		[]string{"operation", "outcome"},
	)
	StoreReady = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: "cards", Name: "store_ready", Help: "1 once the card store is attached, 0 before."},
	)
	StoreConnectAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "cards", Name: "store_connect_attempts_total", Help: "Background store connection attempts by result."},
		[]string{"result"},
	)
	SendReceived = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "cards", Name: "send_received_total", Help: "Payloads accepted on POST /send."},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(CardOperations)
	reg.MustRegister(StoreReady)
	reg.MustRegister(StoreConnectAttempts)
	reg.MustRegister(SendReceived)
}
