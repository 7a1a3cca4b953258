package httpapi

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"openfront-gateway/internal/infrastructure/config"
	obs "openfront-gateway/internal/infrastructure/observability"
	"openfront-gateway/internal/lobby"
	"openfront-gateway/internal/upstream"
)

type Deps struct {
	Cfg     config.Config
	Logger  *zerolog.Logger
	Metrics *obs.Metrics
	Client  *http.Client
	Fleet   *upstream.Fleet
	Lobbies *lobby.Store
	Hub     *lobby.Hub
	Ports   PortsResponse
}

// NewRouterWithDeps wires the fixed endpoints plus the mode-dependent
// catch-all. Every inbound request lands in exactly one of: fixed endpoint,
// worker proxy/bridge, master proxy/bridge, static file, or 404.
func NewRouterWithDeps(d *Deps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", d.handleHealthz)
	mux.HandleFunc("/readyz", d.handleReadyz)
	mux.HandleFunc("/configz", d.handleConfigz)
	mux.HandleFunc("/api/env", d.handleEnv)
	mux.HandleFunc("/v1/metadata/ports", d.handlePorts)
	mux.Handle("/metrics", promhttp.HandlerFor(d.Metrics.Registry(), promhttp.HandlerOpts{}))

	mux.HandleFunc("/api/public_lobbies", d.handlePublicLobbies)
	mux.HandleFunc("/lobbies", d.handleLobbiesWS)
	mux.HandleFunc("/matchmaking/join", d.handleMatchmakingWS)

	mux.HandleFunc("/", d.handleCatchAll)

	return mux
}

// handleCatchAll dispatches everything the fixed routes did not claim.
func (d *Deps) handleCatchAll(w http.ResponseWriter, r *http.Request) {
	if id, ok := upstream.ExtractWorkerID(r.URL.Path); ok {
		d.dispatchWorker(w, r, id)
		return
	}
	if d.Cfg.Mode == config.ModeStandalone {
		// Unknown /api/ routes must not fall through to the SPA shell.
		if strings.HasPrefix(r.URL.Path, "/api/") {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "unknown api route", map[string]any{"path": r.URL.Path})
			return
		}
		d.serveStatic(w, r)
		return
	}
	target, err := upstream.JoinBaseWithPath(d.Cfg.MasterURL, r.URL.RequestURI())
	if err != nil {
		d.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("master url build failed")
		writeError(w, http.StatusBadGateway, "BAD_UPSTREAM_URL", err.Error(), nil)
		return
	}
	if isWebSocketRequest(r) {
		wsTarget, err := upstream.WebsocketURL(d.Cfg.MasterURL, r.URL.RequestURI())
		if err != nil {
			d.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("master websocket url build failed")
			writeError(w, http.StatusBadGateway, "BAD_UPSTREAM_URL", err.Error(), nil)
			return
		}
		d.bridge(w, r, wsTarget)
		return
	}
	d.forward(w, r, "master", target)
}

// dispatchWorker routes a /w<id>/ path to the worker derived by port offset,
// bridging on a WebSocket upgrade and proxying otherwise.
func (d *Deps) dispatchWorker(w http.ResponseWriter, r *http.Request, workerID int) {
	base, err := upstream.WorkerBaseURL(d.Cfg.WorkerBaseURL, workerID)
	if err != nil {
		d.Logger.Error().Err(err).Int("worker", workerID).Str("path", r.URL.Path).Msg("worker url build failed")
		writeError(w, http.StatusBadGateway, "BAD_UPSTREAM_URL", err.Error(), map[string]any{"worker": workerID})
		return
	}
	if isWebSocketRequest(r) {
		target, err := upstream.WebsocketURL(base, r.URL.RequestURI())
		if err != nil {
			d.Logger.Error().Err(err).Int("worker", workerID).Str("path", r.URL.Path).Msg("worker websocket url build failed")
			writeError(w, http.StatusBadGateway, "BAD_UPSTREAM_URL", err.Error(), map[string]any{"worker": workerID})
			return
		}
		d.bridge(w, r, target)
		return
	}
	target, err := upstream.JoinBaseWithPath(base, r.URL.RequestURI())
	if err != nil {
		writeError(w, http.StatusBadGateway, "BAD_UPSTREAM_URL", err.Error(), map[string]any{"worker": workerID})
		return
	}
	d.forward(w, r, "worker", target)
}

// isWebSocketRequest reports whether the request asks for a WebSocket
// upgrade. The Upgrade header is a token list, matched case-insensitively.
func isWebSocketRequest(r *http.Request) bool {
	for _, v := range r.Header.Values("Upgrade") {
		for _, token := range strings.Split(v, ",") {
			if strings.EqualFold(strings.TrimSpace(token), "websocket") {
				return true
			}
		}
	}
	// Some clients send key/version headers before the upgrade itself.
	if r.Header.Get("Sec-WebSocket-Key") != "" || r.Header.Get("Sec-WebSocket-Version") != "" {
		return true
	}
	return false
}
