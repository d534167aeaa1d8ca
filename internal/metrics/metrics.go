// Package metrics holds the Prometheus collectors of the client and broker.
// All methods are safe on a nil receiver so components may run unmetered.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "peercall"

type Client struct {
	transitions *prometheus.CounterVec
	dials       prometheus.Counter
	failures    *prometheus.CounterVec
	width       prometheus.Gauge
	height      prometheus.Gauge
	frameRate   prometheus.Gauge
	bitrate     prometheus.Gauge
}

func NewClient(reg prometheus.Registerer) *Client {
	f := promauto.With(reg)
	return &Client{
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "session", Name: "transitions_total",
			Help: "Session state transitions by target state.",
		}, []string{"state"}),
		dials: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "transport", Name: "dial_attempts_total",
			Help: "Signaling dial attempts, initial and reconnect.",
		}),
		failures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "session", Name: "failures_total",
			Help: "Failed sessions by error kind.",
		}, []string{"kind"}),
		width: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "diag", Name: "video_width_pixels",
			Help: "Width of the local video source.",
		}),
		height: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "diag", Name: "video_height_pixels",
			Help: "Height of the local video source.",
		}),
		frameRate: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "diag", Name: "video_frame_rate",
			Help: "Frame rate of the local video source.",
		}),
		bitrate: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "diag", Name: "estimated_bitrate_bps",
			Help: "Heuristic bitrate estimate derived from resolution and frame rate.",
		}),
	}
}

func (m *Client) Transition(state string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(state).Inc()
}

func (m *Client) Failure(kind string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(kind).Inc()
}

func (m *Client) DialAttempt() {
	if m == nil {
		return
	}
	m.dials.Inc()
}

func (m *Client) Video(width, height int, frameRate, bitrate float64) {
	if m == nil {
		return
	}
	m.width.Set(float64(width))
	m.height.Set(float64(height))
	m.frameRate.Set(frameRate)
	m.bitrate.Set(bitrate)
}

type Broker struct {
	endpoints prometheus.Gauge
	relayed   *prometheus.CounterVec
	rejected  *prometheus.CounterVec
	kicked    prometheus.Counter
}

func NewBroker(reg prometheus.Registerer) *Broker {
	f := promauto.With(reg)
	return &Broker{
		endpoints: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "broker", Name: "endpoints",
			Help: "Registered live endpoints.",
		}),
		relayed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "broker", Name: "relayed_total",
			Help: "Envelopes relayed between endpoints by type.",
		}, []string{"type"}),
		rejected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "broker", Name: "rejected_total",
			Help: "Rejected requests by reason.",
		}, []string{"reason"}),
		kicked: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "broker", Name: "kicked_total",
			Help: "Endpoints dropped for backpressure.",
		}),
	}
}

func (m *Broker) Registered(delta int) {
	if m == nil {
		return
	}
	m.endpoints.Add(float64(delta))
}

func (m *Broker) Relayed(kind string) {
	if m == nil {
		return
	}
	m.relayed.WithLabelValues(kind).Inc()
}

func (m *Broker) Rejected(reason string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(reason).Inc()
}

func (m *Broker) Kicked() {
	if m == nil {
		return
	}
	m.kicked.Inc()
}
