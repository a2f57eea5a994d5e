// Package metrics holds the daemon's Prometheus collectors, served on the
// main router's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TicksEmitted counts ticks the engine has emitted
	TicksEmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vibed_ticks_total",
			Help: "Total number of ticks emitted by the engine",
		},
	)

	// OscMessagesSent counts OSC messages written to the target
	OscMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vibed_osc_messages_sent_total",
			Help: "Total number of OSC messages written to the target",
		},
	)

	// OscMessagesDropped counts messages dropped while disconnected
	OscMessagesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vibed_osc_messages_dropped_total",
			Help: "Total number of OSC messages dropped while the target was unreachable",
		},
	)

	// TargetReconnects counts connections established to the target
	TargetReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vibed_target_reconnects_total",
			Help: "Total number of times a target connection was established",
		},
	)

	// TargetConnected reflects whether a target connection is open
	TargetConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vibed_target_connected",
			Help: "Whether the target connection is currently established",
		},
	)

	// SessionsActive tracks the number of connected editor clients
	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vibed_sessions_active",
			Help: "Number of connected editor sessions",
		},
	)

	// CommandsProcessed counts inbound client commands by action
	CommandsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vibed_commands_total",
			Help: "Total number of client commands processed",
		},
		[]string{"action"},
	)

	// BroadcastsDropped counts broadcast frames dropped on full session buffers
	BroadcastsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vibed_broadcasts_dropped_total",
			Help: "Total number of broadcast frames dropped because a session buffer was full",
		},
	)

	// StoreSaves counts store snapshot writes by outcome
	StoreSaves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vibed_store_saves_total",
			Help: "Total number of store snapshot writes",
		},
		[]string{"status"},
	)
)
