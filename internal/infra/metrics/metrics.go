// Package metrics provides Prometheus metrics for the player supervisor.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "omxbox"

var (
	// Spawns counts launched player processes, including respawns.
	Spawns = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "process_spawns_total",
		Help:      "Number of player processes launched.",
	})

	// Exits counts observed process exits by outcome (respawn, end, stale).
	Exits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "process_exits_total",
		Help:      "Number of player process exits by outcome.",
	}, []string{"outcome"})

	// RapidExits counts exits that happened before the minimum uptime.
	RapidExits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "process_rapid_exits_total",
		Help:      "Number of player processes that exited before the minimum uptime.",
	})

	// ControlWrites counts key sequences written to the player by command.
	ControlWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "control_writes_total",
		Help:      "Number of control key sequences written to the player.",
	}, []string{"command"})

	// WriteFailures counts failed stdin writes.
	WriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "control_write_failures_total",
		Help:      "Number of failed writes to the player stdin.",
	})

	// Loaded is 1 while a session owns a player process.
	Loaded = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "session_loaded",
		Help:      "1 while a playback session is loaded.",
	})
)

// Handler exposes the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
