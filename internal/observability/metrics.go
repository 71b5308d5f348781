// Package observability registers and exposes the prometheus metrics of
// the CRM service.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	pollCyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tgcrm_poll_cycles_total",
			Help: "Total number of poll cycles, by outcome.",
		},
		[]string{"outcome"},
	)
	updatesReceivedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tgcrm_updates_received_total",
			Help: "Total number of raw updates fetched from the provider.",
		},
	)
	updatesDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tgcrm_updates_dropped_total",
			Help: "Total number of updates dropped as not representable.",
		},
	)
	messagesParsedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tgcrm_messages_parsed_total",
			Help: "Total number of normalized messages, by kind.",
		},
		[]string{"kind"},
	)
	sendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tgcrm_sends_total",
			Help: "Total number of outbound dispatcher calls, by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)
	wsConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tgcrm_ws_connections",
			Help: "Number of connected front-end websocket clients.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		pollCyclesTotal,
		updatesReceivedTotal,
		updatesDroppedTotal,
		messagesParsedTotal,
		sendsTotal,
		wsConnections,
	)
}

// IncPollCycle records one poll cycle with outcome "updates", "empty", or
// "error".
func IncPollCycle(outcome string) {
	pollCyclesTotal.WithLabelValues(outcome).Inc()
}

// AddUpdatesReceived records the size of one fetched batch.
func AddUpdatesReceived(n int) {
	updatesReceivedTotal.Add(float64(n))
}

// IncUpdateDropped records one update dropped by the parser.
func IncUpdateDropped() {
	updatesDroppedTotal.Inc()
}

// IncMessageParsed records one normalized message of the given kind.
func IncMessageParsed(kind string) {
	messagesParsedTotal.WithLabelValues(kind).Inc()
}

// IncSend records one dispatcher call. outcome is "ok", "rejected", or
// "failed".
func IncSend(operation, outcome string) {
	sendsTotal.WithLabelValues(operation, outcome).Inc()
}

// SetWSConnections records the current number of websocket clients.
func SetWSConnections(n int) {
	wsConnections.Set(float64(n))
}
