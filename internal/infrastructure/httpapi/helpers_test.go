package httpapi

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"openfront-gateway/internal/infrastructure/config"
	obs "openfront-gateway/internal/infrastructure/observability"
	"openfront-gateway/internal/lobby"
	"openfront-gateway/internal/upstream"
)

func newTestDeps(t *testing.T, cfg config.Config) *Deps {
	t.Helper()
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 2 * time.Second
	}
	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = "http://localhost:8080"
	}
	client, err := upstream.NewClient(cfg.RequestTimeout)
	if err != nil {
		t.Fatalf("upstream client: %v", err)
	}
	logger := zerolog.Nop()
	ports, err := NewPortsResponse(cfg.PublicBaseURL)
	if err != nil {
		t.Fatalf("ports response: %v", err)
	}
	return &Deps{
		Cfg:     cfg,
		Logger:  &logger,
		Metrics: obs.NewMetrics(),
		Client:  client,
		Fleet:   upstream.NewFleet(client, cfg.WorkerBaseURL, cfg.WorkerCount, &logger),
		Lobbies: lobby.NewStore(),
		Hub:     lobby.NewHub(),
		Ports:   ports,
	}
}
