package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Mode selects how the gateway routes traffic that is not handled locally.
type Mode int

const (
	// ModeProxy forwards unknown traffic to the upstream master.
	ModeProxy Mode = iota
	// ModeStandalone makes the gateway act as its own mini master: it
	// aggregates worker lobbies and serves the static client bundle itself.
	ModeStandalone
)

func (m Mode) String() string {
	if m == ModeStandalone {
		return "standalone"
	}
	return "proxy"
}

// MarshalText renders the mode as its configuration spelling in /configz output.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// ParseMode maps a configured mode string to a Mode. "standalone" and its
// legacy alias "masterless" select standalone; anything else means proxy.
func ParseMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "standalone", "masterless":
		return ModeStandalone
	}
	return ModeProxy
}

// Worker pool sizes per environment tier, used when GATEWAY_WORKERS is unset.
const (
	workersProd    = 20
	workersStaging = 4
	workersDev     = 2
)

// MinLobbyPollInterval is the floor for the lobby refresh cadence; polling
// faster than this hammers workers without improving freshness for browsers.
const MinLobbyPollInterval = 200 * time.Millisecond

// Config is the immutable runtime snapshot of the gateway. It is resolved once
// from environment variables at startup and shared read-only afterwards.
type Config struct {
	Env               string        `json:"env"`
	Mode              Mode          `json:"mode"`
	Host              string        `json:"host"`
	Port              int           `json:"port"`
	WorkerCount       int           `json:"workerCount"`
	MasterURL         string        `json:"masterUrl"`
	WorkerBaseURL     string        `json:"workerBaseUrl"`
	MatchmakingURL    string        `json:"matchmakingUrl,omitempty"`
	RequestTimeout    time.Duration `json:"requestTimeoutNs"`
	LobbyPollInterval time.Duration `json:"lobbyPollIntervalNs"`
	StaticDir         string        `json:"staticDir"`
	InstanceID        string        `json:"instanceId"`
	PublicBaseURL     string        `json:"publicBaseUrl"`
	LogLevel          string        `json:"logLevel"`
}

// FromEnv reads the gateway configuration from environment variables,
// applying tiered defaults for anything unset.
func FromEnv() Config {
	cfg := Config{
		Env:            normalizeEnvTier(getEnv("GATEWAY_ENV", "dev")),
		Mode:           ParseMode(os.Getenv("GATEWAY_MODE")),
		Host:           getEnv("GATEWAY_HOST", "0.0.0.0"),
		Port:           getEnvInt("GATEWAY_PORT", 8080),
		MasterURL:      getEnv("GATEWAY_MASTER_URL", "http://127.0.0.1:3000"),
		WorkerBaseURL:  getEnv("GATEWAY_WORKER_URL", "http://127.0.0.1:3001"),
		MatchmakingURL: getEnv("GATEWAY_MATCHMAKING_URL", ""),
		StaticDir:      getEnv("GATEWAY_STATIC_DIR", "static"),
		InstanceID:     getEnv("GATEWAY_INSTANCE_ID", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}
	cfg.WorkerCount = getEnvInt("GATEWAY_WORKERS", defaultWorkers(cfg.Env))
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = defaultWorkers(cfg.Env)
	}
	cfg.RequestTimeout = getEnvDuration("GATEWAY_REQUEST_TIMEOUT", 10*time.Second)
	cfg.LobbyPollInterval = getEnvDuration("GATEWAY_LOBBY_POLL_INTERVAL", time.Second)
	if cfg.LobbyPollInterval < MinLobbyPollInterval {
		cfg.LobbyPollInterval = MinLobbyPollInterval
	}
	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}
	cfg.PublicBaseURL = getEnv("GATEWAY_PUBLIC_BASE_URL", fmt.Sprintf("http://localhost:%d", cfg.Port))
	return cfg
}

// Addr returns the host:port pair the HTTP server binds to.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func normalizeEnvTier(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "prod", "production":
		return "prod"
	case "staging":
		return "staging"
	}
	return "dev"
}

func defaultWorkers(env string) int {
	switch env {
	case "prod":
		return workersProd
	case "staging":
		return workersStaging
	}
	return workersDev
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}
