// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "huddle"

// Drop reasons.
const (
	DropMalformed    = "malformed"
	DropBackpressure = "backpressure"
	DropClosed       = "closed"
	DropClientList   = "client_user_list"
)

type Metrics struct {
	Rooms    prometheus.Gauge
	Sessions prometheus.Gauge
	Frames   *prometheus.CounterVec
	Dropped  *prometheus.CounterVec
	Rejected prometheus.Counter
	Kicked   prometheus.Counter
	CatchUps prometheus.Counter
}

// New registers every collector on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Rooms: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rooms_active",
			Help:      "Number of live room actors.",
		}),
		Sessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of admitted connections across all rooms.",
		}),
		Frames: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_received_total",
			Help:      "Inbound frames by stream type.",
		}, []string{"type"}),
		Dropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_dropped_total",
			Help:      "Frames not delivered, by reason.",
		}, []string{"reason"}),
		Rejected: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admissions_rejected_total",
			Help:      "Connections closed with 4004 because the room did not exist.",
		}),
		Kicked: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_kicked_total",
			Help:      "Sessions closed by the backpressure policy.",
		}),
		CatchUps: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "screen_share_catchups_total",
			Help:      "Late joiners that were replayed an active screen share.",
		}),
	}
}
