package httpapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const bridgeWriteWait = 15 * time.Second

// bridge relays a client WebSocket to the upstream at target until either
// side closes or errors. The upstream is dialed first; a failed dial answers
// 502 and the client is never upgraded.
func (d *Deps) bridge(w http.ResponseWriter, r *http.Request, target string) {
	dialer := websocket.Dialer{HandshakeTimeout: d.Cfg.RequestTimeout}
	hdr := http.Header{}
	copyHeaderIfPresent(&hdr, r.Header, "Authorization")
	copyHeaderIfPresent(&hdr, r.Header, "Cookie")
	copyHeaderIfPresent(&hdr, r.Header, "Origin")
	copyHeaderIfPresent(&hdr, r.Header, "User-Agent")
	if sp := r.Header.Get("Sec-WebSocket-Protocol"); sp != "" {
		hdr.Set("Sec-WebSocket-Protocol", sp)
	}

	upstreamConn, resp, err := dialer.Dial(target, hdr)
	if err != nil {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		d.Logger.Error().Err(err).Str("path", r.URL.Path).Str("upstream", target).Msg("bridge dial failed")
		writeError(w, http.StatusBadGateway, "UPSTREAM_UNAVAILABLE", "websocket dial failed", map[string]any{"target": target})
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin:  func(r *http.Request) bool { return true },
		Subprotocols: []string{r.Header.Get("Sec-WebSocket-Protocol")},
	}
	clientConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		_ = upstreamConn.Close()
		d.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("client upgrade failed")
		return
	}

	d.Metrics.ActiveBridges.Inc()
	d.Logger.Info().Str("path", r.URL.Path).Str("upstream", target).Str("client", r.RemoteAddr).Msg("bridge established")

	// First pipe to finish tears the whole bridge down, exactly once.
	var once sync.Once
	closeBoth := func() {
		once.Do(func() {
			_ = clientConn.Close()
			_ = upstreamConn.Close()
			d.Metrics.ActiveBridges.Dec()
			d.Logger.Info().Str("path", r.URL.Path).Str("upstream", target).Msg("bridge closed")
		})
	}

	relayControlFrames(clientConn, upstreamConn)
	relayControlFrames(upstreamConn, clientConn)

	go pipe(clientConn, upstreamConn, closeBoth)
	go pipe(upstreamConn, clientConn, closeBoth)
}

// pipe copies data frames from src to dst until src fails or closes. A close
// is relayed to dst best-effort before tearing the bridge down.
func pipe(src, dst *websocket.Conn, done func()) {
	defer done()
	for {
		mt, data, err := src.ReadMessage()
		if err != nil {
			deadline := time.Now().Add(time.Second)
			if ce, ok := err.(*websocket.CloseError); ok {
				_ = dst.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(ce.Code, ce.Text), deadline)
			} else {
				_ = dst.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			}
			return
		}
		_ = dst.SetWriteDeadline(time.Now().Add(bridgeWriteWait))
		if err := dst.WriteMessage(mt, data); err != nil {
			return
		}
	}
}

// relayControlFrames forwards pings and pongs from src to dst. gorilla
// consumes control frames inside ReadMessage, so the data pipes never see
// them; WriteControl is safe to call concurrently with WriteMessage.
func relayControlFrames(src, dst *websocket.Conn) {
	src.SetPingHandler(func(data string) error {
		return dst.WriteControl(websocket.PingMessage, []byte(data), time.Now().Add(bridgeWriteWait))
	})
	src.SetPongHandler(func(data string) error {
		return dst.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(bridgeWriteWait))
	})
}

func copyHeaderIfPresent(dst *http.Header, src http.Header, key string) {
	if v := src.Get(key); v != "" {
		dst.Set(key, v)
	}
}
