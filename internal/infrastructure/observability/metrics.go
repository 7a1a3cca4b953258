package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	registry         *prometheus.Registry
	ActiveBridges    prometheus.Gauge
	LobbySubscribers prometheus.Gauge
	ProxiedRequests  *prometheus.CounterVec
	LobbyRefreshes   *prometheus.CounterVec
	BroadcastDrops   prometheus.Counter
}

func NewMetrics() *Metrics {
	r := prometheus.NewRegistry()
	m := &Metrics{
		registry: r,
		ActiveBridges: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gateway",
			Name:      "active_bridges",
			Help:      "Number of open WebSocket bridges",
		}),
		LobbySubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gateway",
			Name:      "lobby_subscribers",
			Help:      "Number of connected /lobbies subscribers",
		}),
		ProxiedRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gateway",
			Name:      "proxied_requests_total",
			Help:      "Total proxied HTTP requests by upstream kind and outcome",
		}, []string{"upstream", "outcome"}),
		LobbyRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gateway",
			Name:      "lobby_refreshes_total",
			Help:      "Total lobby refresh cycles by result",
		}, []string{"result"}),
		BroadcastDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gateway",
			Name:      "broadcast_drops_total",
			Help:      "Total lobby updates dropped for lagged subscribers",
		}),
	}
	r.MustRegister(m.ActiveBridges, m.LobbySubscribers, m.ProxiedRequests, m.LobbyRefreshes, m.BroadcastDrops)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
