package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for the realtime game server.
//
// Naming convention: namespace_subsystem_name
// - namespace: game_server
// - subsystem: websocket, room, tick
var (
	// ActiveConnections tracks the current number of open WebSocket connections.
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "game_server",
		Subsystem: "websocket",
		Name:      "connections_active",
		Help:      "Current number of open WebSocket connections",
	})

	// ActiveRooms tracks the current number of live rooms.
	ActiveRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "game_server",
		Subsystem: "room",
		Name:      "rooms_active",
		Help:      "Current number of live rooms",
	})

	// PlayingRooms tracks how many rooms are mid-game.
	PlayingRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "game_server",
		Subsystem: "room",
		Name:      "rooms_playing",
		Help:      "Current number of rooms in the PLAYING state",
	})

	// PlayersOnline tracks the total player count across all rooms.
	PlayersOnline = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "game_server",
		Subsystem: "room",
		Name:      "players_online",
		Help:      "Total players across all rooms",
	})

	// InboundFrames counts processed inbound frames by type and outcome.
	InboundFrames = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "game_server",
		Subsystem: "websocket",
		Name:      "frames_total",
		Help:      "Total inbound frames processed",
	}, []string{"frame_type", "status"})

	// AdmissionRejects counts upgrade requests refused before the socket opened.
	AdmissionRejects = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "game_server",
		Subsystem: "websocket",
		Name:      "admission_rejects_total",
		Help:      "Upgrade requests rejected during admission",
	}, []string{"reason"})

	// TickDuration tracks time spent running one timer firing across all rooms.
	TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "game_server",
		Subsystem: "tick",
		Name:      "duration_seconds",
		Help:      "Time spent processing one tick across all playing rooms",
		Buckets:   []float64{.0001, .0005, .001, .005, .01, .025, .05, .1},
	})
)
