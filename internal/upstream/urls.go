package upstream

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// Sentinel errors for address derivation. Handlers convert these to HTTP
// statuses at the boundary; nothing in this package touches the network.
var (
	ErrInvalidURL        = errors.New("invalid base url")
	ErrPortOverflow      = errors.New("worker port out of range")
	ErrUnsupportedScheme = errors.New("unsupported url scheme")
)

// JoinBaseWithPath replaces the path and query of base with pathAndQuery.
// An empty pathAndQuery maps to "/"; a missing leading slash is added.
func JoinBaseWithPath(base, pathAndQuery string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, base)
	}
	pq := pathAndQuery
	if pq == "" {
		pq = "/"
	}
	if !strings.HasPrefix(pq, "/") {
		pq = "/" + pq
	}
	path, query, _ := strings.Cut(pq, "?")
	u.Path = path
	u.RawQuery = query
	return u.String(), nil
}

// WorkerBaseURL substitutes the port of base with basePort+workerID. Workers
// listen on consecutive ports starting at the worker-0 port, so the index is
// plain port arithmetic.
func WorkerBaseURL(base string, workerID int) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, base)
	}
	portStr := u.Port()
	if portStr == "" {
		switch u.Scheme {
		case "http", "ws":
			portStr = "80"
		case "https", "wss":
			portStr = "443"
		default:
			return "", fmt.Errorf("%w: %q has no port", ErrInvalidURL, base)
		}
	}
	basePort, err := strconv.Atoi(portStr)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, base)
	}
	port := basePort + workerID
	if port > 65535 {
		return "", fmt.Errorf("%w: %d", ErrPortOverflow, port)
	}
	u.Host = net.JoinHostPort(u.Hostname(), strconv.Itoa(port))
	return u.String(), nil
}

// WorkerURL resolves the full upstream URL for a request aimed at a worker.
func WorkerURL(base string, workerID int, pathAndQuery string) (string, error) {
	wb, err := WorkerBaseURL(base, workerID)
	if err != nil {
		return "", err
	}
	return JoinBaseWithPath(wb, pathAndQuery)
}

// ExtractWorkerID parses the worker index out of paths shaped like /w<N>/...
// The digit run must be terminated by "/" or end of string, so /w12x/foo is
// not a worker path. The index is deliberately not bounds-checked against the
// configured pool size; an out-of-range id resolves to an unreachable port.
func ExtractWorkerID(path string) (int, bool) {
	if !strings.HasPrefix(path, "/w") {
		return 0, false
	}
	rest := path[2:]
	i := 0
	for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, false
	}
	if i < len(rest) && rest[i] != '/' {
		return 0, false
	}
	id, err := strconv.Atoi(rest[:i])
	if err != nil {
		return 0, false
	}
	return id, true
}

// WebsocketURL is JoinBaseWithPath with the scheme translated to its
// WebSocket counterpart (http->ws, https->wss; ws/wss pass through).
func WebsocketURL(base, pathAndQuery string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, base)
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	return JoinBaseWithPath(u.String(), pathAndQuery)
}
