package httpapi

import (
	"net/http"
	"strings"

	"openfront-gateway/internal/infrastructure/config"
	"openfront-gateway/internal/upstream"
)

// PortsResponse tells browser clients where the fleet is reachable from the
// outside. Computed once at startup from the public base URL.
type PortsResponse struct {
	Master           string `json:"master"`
	WorkerTemplate   string `json:"workerTemplate"`
	LobbiesWebsocket string `json:"lobbiesWebsocket"`
}

// NewPortsResponse derives the externally visible addresses from publicBase.
// The worker template keeps a literal {index} placeholder for clients to fill.
func NewPortsResponse(publicBase string) (PortsResponse, error) {
	master, err := upstream.JoinBaseWithPath(publicBase, "/")
	if err != nil {
		return PortsResponse{}, err
	}
	lobbiesWS, err := upstream.WebsocketURL(publicBase, "/lobbies")
	if err != nil {
		return PortsResponse{}, err
	}
	return PortsResponse{
		Master:           master,
		WorkerTemplate:   strings.TrimRight(master, "/") + "/w{index}",
		LobbiesWebsocket: lobbiesWS,
	}, nil
}

func (d *Deps) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (d *Deps) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if d.Cfg.Mode == config.ModeProxy {
		writeJSON(w, http.StatusOK, map[string]any{"ready": true})
		return
	}
	if !d.Fleet.Ready(r.Context()) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ready": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ready": true})
}

func (d *Deps) handleConfigz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, d.Cfg)
}

func (d *Deps) handleEnv(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"env": d.Cfg.Env})
}

func (d *Deps) handlePorts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, d.Ports)
}

// handlePublicLobbies answers from the aggregated snapshot in standalone mode
// and defers to the master's endpoint in proxy mode.
func (d *Deps) handlePublicLobbies(w http.ResponseWriter, r *http.Request) {
	if d.Cfg.Mode == config.ModeStandalone {
		writeJSON(w, http.StatusOK, map[string]any{"lobbies": d.Lobbies.Snapshot()})
		return
	}
	target, err := upstream.JoinBaseWithPath(d.Cfg.MasterURL, r.URL.RequestURI())
	if err != nil {
		d.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("master url build failed")
		writeError(w, http.StatusBadGateway, "BAD_UPSTREAM_URL", err.Error(), nil)
		return
	}
	d.forward(w, r, "master", target)
}

// handleMatchmakingWS bridges matchmaking sockets: to the master in proxy
// mode, and to the optional matchmaking upstream in standalone mode.
func (d *Deps) handleMatchmakingWS(w http.ResponseWriter, r *http.Request) {
	base := d.Cfg.MasterURL
	if d.Cfg.Mode == config.ModeStandalone {
		if d.Cfg.MatchmakingURL == "" {
			writeError(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "no matchmaking upstream configured", nil)
			return
		}
		base = d.Cfg.MatchmakingURL
	}
	target, err := upstream.WebsocketURL(base, r.URL.RequestURI())
	if err != nil {
		d.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("matchmaking url build failed")
		writeError(w, http.StatusBadGateway, "BAD_UPSTREAM_URL", err.Error(), nil)
		return
	}
	d.bridge(w, r, target)
}

// handleLobbiesWS serves /lobbies: the local subscriber loop in standalone
// mode, a bridge to the master's lobbies socket in proxy mode.
func (d *Deps) handleLobbiesWS(w http.ResponseWriter, r *http.Request) {
	if d.Cfg.Mode == config.ModeStandalone {
		d.serveLobbySubscriber(w, r)
		return
	}
	target, err := upstream.WebsocketURL(d.Cfg.MasterURL, r.URL.RequestURI())
	if err != nil {
		d.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("lobbies url build failed")
		writeError(w, http.StatusBadGateway, "BAD_UPSTREAM_URL", err.Error(), nil)
		return
	}
	d.bridge(w, r, target)
}
