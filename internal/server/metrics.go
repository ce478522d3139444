// Package server exposes Prometheus metrics describing relay activity.
package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	openConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stchat_open_connections",
		Help: "Number of currently open WebSocket connections.",
	})
	joinedParticipants = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stchat_joined_participants",
		Help: "Number of connections bound to a display name.",
	})
	framesRelayed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stchat_frames_relayed_total",
		Help: "Inbound frames processed by the hub, by event type.",
	}, []string{"type"})
	malformedFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stchat_malformed_frames_total",
		Help: "Inbound frames dropped because they failed to decode.",
	})
	droppedSends = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stchat_dropped_sends_total",
		Help: "Broadcast deliveries skipped because a client could not keep up.",
	})
)
