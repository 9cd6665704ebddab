// Package relay contains the routing core of the bot.
//
// This file exposes Prometheus instrumentation for relay traffic. Label
// cardinality is bounded by construction: every label value comes from a
// small fixed set chosen at the call site.
//
//   - kind:      inbound event classification (message, reaction)
//   - direction: relay direction (user_to_group, group_to_user, reaction)
//   - reason:    why an event produced no outbound action
package relay

import "github.com/prometheus/client_golang/prometheus"

var (
	// eventsTotal counts inbound events by classification.
	eventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_events_total",
			Help: "Total number of inbound events by kind.",
		},
		[]string{"kind"},
	)

	// relayedTotal counts successfully relayed payloads by direction.
	relayedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_messages_total",
			Help: "Total number of relayed messages and reactions.",
		},
		[]string{"direction"},
	)

	// droppedTotal counts events that were classified but intentionally
	// produced no relay action.
	droppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_dropped_total",
			Help: "Total number of events dropped without a relay action.",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(eventsTotal, relayedTotal, droppedTotal)
}

// Drop reasons. Kept as constants so the label set stays closed.
const (
	dropBanned      = "banned"
	dropRateLimited = "rate_limited"
	dropBotSender   = "bot_sender"
	dropUnmapped    = "unmapped"
	dropUnknownCmd  = "unknown_command"
	dropIgnored     = "ignored"
)
