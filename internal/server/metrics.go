package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "lantern"

// Metrics holds the server's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Connections   prometheus.Gauge
	GamesActive   prometheus.Gauge
	GamesStarted  prometheus.Counter
	GamesFinished prometheus.Counter
	GamesDropped  prometheus.Counter
	Rounds        *prometheus.CounterVec
	TurnTimeouts  *prometheus.CounterVec
	Rejected      *prometheus.CounterVec
}

// NewMetrics creates and registers all collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "connections",
			Help:      "Open websocket connections.",
		}),
		GamesActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "games_active",
			Help:      "Games currently running.",
		}),
		GamesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "games_started_total",
			Help:      "Games started, including replays.",
		}),
		GamesFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "games_finished_total",
			Help:      "Games that reached the points limit.",
		}),
		GamesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "games_dropped_total",
			Help:      "Games abandoned before finishing.",
		}),
		Rounds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rounds_total",
			Help:      "Finished rounds by outcome.",
		}, []string{"outcome"}),
		TurnTimeouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "turn_timeouts_total",
			Help:      "Turns ended by the turn timer, by action taken.",
		}, []string{"action"}),
		Rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rejected_requests_total",
			Help:      "Client requests rejected, by error code.",
		}, []string{"code"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Connections,
		m.GamesActive,
		m.GamesStarted,
		m.GamesFinished,
		m.GamesDropped,
		m.Rounds,
		m.TurnTimeouts,
		m.Rejected,
	)
	return m
}

// RegisterNotificationDrops exposes a count of notifications dropped for
// slow subscribers.
func (m *Metrics) RegisterNotificationDrops(dropped func() uint64) {
	m.registry.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "notifications_dropped_total",
		Help:      "Notifications dropped because a subscriber buffer was full.",
	}, func() float64 { return float64(dropped()) }))
}

// Registry returns the registry backing the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
