package lobby

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	obs "openfront-gateway/internal/infrastructure/observability"
	"openfront-gateway/internal/upstream"
)

// Poller owns the background refresh cycle in standalone mode: poll every
// worker's public lobbies, merge, swap the shared snapshot, broadcast changes.
type Poller struct {
	fleet    *upstream.Fleet
	store    *Store
	hub      *Hub
	interval time.Duration
	logger   *zerolog.Logger
	metrics  *obs.Metrics
}

func NewPoller(fleet *upstream.Fleet, store *Store, hub *Hub, interval time.Duration, logger *zerolog.Logger, metrics *obs.Metrics) *Poller {
	return &Poller{fleet: fleet, store: store, hub: hub, interval: interval, logger: logger, metrics: metrics}
}

// Run refreshes once immediately, then on every tick until ctx is cancelled.
// Ticks that fire while a refresh is still running coalesce; there is no
// backlog of missed cycles.
func (p *Poller) Run(ctx context.Context) {
	p.Refresh(ctx)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Refresh(ctx)
		}
	}
}

// Refresh runs one aggregation pass. Per-worker failures contribute nothing;
// the shared HTTP client's timeout bounds each worker call.
func (p *Poller) Refresh(ctx context.Context) {
	n := p.fleet.Size()
	results := make([][]Lobby, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			results[id] = p.fleet.Lobbies(ctx, id)
		}(i)
	}
	wg.Wait()

	merged := Merge(results...)
	if !p.store.Replace(merged) {
		p.metrics.LobbyRefreshes.WithLabelValues("unchanged").Inc()
		return
	}
	p.metrics.LobbyRefreshes.WithLabelValues("changed").Inc()
	if dropped := p.hub.Publish(p.store.UpdateMessage()); dropped > 0 {
		p.metrics.BroadcastDrops.Add(float64(dropped))
		p.logger.Warn().Int("dropped", dropped).Msg("lobby update dropped for lagged subscribers")
	}
	p.logger.Debug().Int("lobbies", len(merged)).Msg("lobby snapshot updated")
}
