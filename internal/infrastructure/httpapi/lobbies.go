package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const subscriberWriteWait = 10 * time.Second

// serveLobbySubscriber runs one standalone-mode /lobbies connection. The
// subscription is registered before the initial snapshot send, so a client
// sees either the connect-time snapshot or a later one, never a gap; races
// resolve through the hub's lag/catch-up path.
func (d *Deps) serveLobbySubscriber(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		d.Logger.Warn().Err(err).Str("client", r.RemoteAddr).Msg("lobby subscriber upgrade failed")
		return
	}

	sub := d.Hub.Subscribe()
	d.Metrics.LobbySubscribers.Inc()
	defer func() {
		d.Hub.Unsubscribe(sub)
		d.Metrics.LobbySubscribers.Dec()
		_ = conn.Close()
	}()
	d.Logger.Info().Str("client", r.RemoteAddr).Msg("lobby subscriber connected")

	// Reader detects close/EOF; pings are answered by gorilla's default
	// ping handler, other inbound frames are ignored.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := d.writeUpdate(conn, d.Lobbies.UpdateMessage()); err != nil {
		return
	}

	for {
		select {
		case <-done:
			return
		case msg, ok := <-sub.C:
			if !ok {
				return
			}
			if sub.Lagged() {
				// Missed updates are covered by the current snapshot;
				// payloads are full snapshots, not deltas.
				msg = d.Lobbies.UpdateMessage()
			}
			if err := d.writeUpdate(conn, msg); err != nil {
				return
			}
		}
	}
}

func (d *Deps) writeUpdate(conn *websocket.Conn, msg []byte) error {
	_ = conn.SetWriteDeadline(time.Now().Add(subscriberWriteWait))
	if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		d.Logger.Debug().Err(err).Msg("lobby subscriber write failed")
		return err
	}
	return nil
}
