package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	cfgpkg "openfront-gateway/internal/infrastructure/config"
	httpapi "openfront-gateway/internal/infrastructure/httpapi"
	obs "openfront-gateway/internal/infrastructure/observability"
	"openfront-gateway/internal/lobby"
	"openfront-gateway/internal/upstream"
)

func main() {
	cfg := cfgpkg.FromEnv()

	logger := obs.NewLogger(cfg.LogLevel)
	logger.Info().
		Str("version", obs.Version).
		Str("addr", cfg.Addr()).
		Str("mode", cfg.Mode.String()).
		Str("env", cfg.Env).
		Str("instance", cfg.InstanceID).
		Int("workers", cfg.WorkerCount).
		Msg("starting gateway")

	metrics := obs.NewMetrics()

	client, err := upstream.NewClient(cfg.RequestTimeout)
	if err != nil {
		logger.Error().Err(err).Msg("upstream client construction failed")
		os.Exit(1)
	}
	fleet := upstream.NewFleet(client, cfg.WorkerBaseURL, cfg.WorkerCount, logger)

	ports, err := httpapi.NewPortsResponse(cfg.PublicBaseURL)
	if err != nil {
		logger.Error().Err(err).Str("publicBaseUrl", cfg.PublicBaseURL).Msg("invalid public base url")
		os.Exit(1)
	}

	store := lobby.NewStore()
	hub := lobby.NewHub()
	deps := &httpapi.Deps{
		Cfg:     cfg,
		Logger:  logger,
		Metrics: metrics,
		Client:  client,
		Fleet:   fleet,
		Lobbies: store,
		Hub:     hub,
		Ports:   ports,
	}

	// The refresh loop only exists in standalone mode; in proxy mode the
	// master owns lobby aggregation.
	pollCtx, cancelPoll := context.WithCancel(context.Background())
	defer cancelPoll()
	if cfg.Mode == cfgpkg.ModeStandalone {
		poller := lobby.NewPoller(fleet, store, hub, cfg.LobbyPollInterval, logger, metrics)
		go poller.Run(pollCtx)
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           httpapi.NewRouterWithDeps(deps),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server error")
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	cancelPoll()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown error")
	}
	logger.Info().Msg("gateway stopped")
}
