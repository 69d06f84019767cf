package monitor

import (
	"expvar"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	ConnectedPlayers  prometheus.Gauge
	ActiveRooms       prometheus.Gauge
	DrawsTotal        prometheus.Counter
	WinsTotal         prometheus.Counter
	WinConflictsTotal prometheus.Counter
	SnapshotsTotal    prometheus.Counter
}

func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		ConnectedPlayers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected_players",
			Help:      "Number of connected player sessions",
		}),
		ActiveRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_rooms",
			Help:      "Number of rooms with at least one connected session",
		}),
		DrawsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "draws_total",
			Help:      "Total numbers drawn",
		}),
		WinsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wins_total",
			Help:      "Total accepted win declarations",
		}),
		WinConflictsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "win_conflicts_total",
			Help:      "Win declarations rejected because a winner was already set",
		}),
		SnapshotsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_total",
			Help:      "Room snapshots fanned out to clients",
		}),
	}

	prometheus.MustRegister(
		m.ConnectedPlayers,
		m.ActiveRooms,
		m.DrawsTotal,
		m.WinsTotal,
		m.WinConflictsTotal,
		m.SnapshotsTotal,
	)

	return m
}

type Monitor struct {
	metrics   *Metrics
	startTime time.Time
	mutex     sync.Mutex
	requests  int64
}

func NewMonitor(namespace string) *Monitor {
	return &Monitor{
		metrics:   NewMetrics(namespace),
		startTime: time.Now(),
	}
}

func (m *Monitor) StartServer(addr string) {
	http.Handle("/metrics", promhttp.Handler())

	expvar.Publish("uptime", expvar.Func(func() interface{} {
		return time.Since(m.startTime).Seconds()
	}))

	expvar.Publish("requests", expvar.Func(func() interface{} {
		m.mutex.Lock()
		defer m.mutex.Unlock()
		return m.requests
	}))

	go http.ListenAndServe(addr, nil)
}

func (m *Monitor) IncConnectedPlayers() {
	m.metrics.ConnectedPlayers.Inc()
}

func (m *Monitor) DecConnectedPlayers() {
	m.metrics.ConnectedPlayers.Dec()
}

func (m *Monitor) SetActiveRooms(count int) {
	m.metrics.ActiveRooms.Set(float64(count))
}

func (m *Monitor) IncDraws() {
	m.metrics.DrawsTotal.Inc()
}

func (m *Monitor) IncWins() {
	m.metrics.WinsTotal.Inc()
}

func (m *Monitor) IncWinConflicts() {
	m.metrics.WinConflictsTotal.Inc()
}

func (m *Monitor) IncSnapshots() {
	m.metrics.SnapshotsTotal.Inc()
	m.mutex.Lock()
	m.requests++
	m.mutex.Unlock()
}
