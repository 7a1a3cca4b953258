package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"openfront-gateway/internal/infrastructure/config"
	"openfront-gateway/internal/lobby"
)

func startEchoWSServer(t *testing.T) *httptest.Server {
	t.Helper()
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		var wmu sync.Mutex
		for {
			mt, data, err := c.ReadMessage()
			if err != nil {
				return
			}
			wmu.Lock()
			err = c.WriteMessage(mt, data)
			wmu.Unlock()
			if err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(httpURL, path string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http") + path
}

func TestWorkerWebSocketBridgeEcho(t *testing.T) {
	upstreamSrv := startEchoWSServer(t)

	d := newTestDeps(t, config.Config{Mode: config.ModeStandalone, WorkerBaseURL: upstreamSrv.URL})
	gw := httptest.NewServer(NewRouterWithDeps(d))
	defer gw.Close()

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(gw.URL, "/w0/game/ws"), nil)
	if err != nil {
		t.Fatalf("dial through gateway: %v", err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte("hello")); err != nil {
		t.Fatal(err)
	}
	mt, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if mt != websocket.TextMessage || string(data) != "hello" {
		t.Errorf("echo = (%d, %q)", mt, data)
	}

	if err := conn.WriteMessage(websocket.BinaryMessage, []byte{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	mt, data, err = conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if mt != websocket.BinaryMessage || len(data) != 3 {
		t.Errorf("binary echo = (%d, %v)", mt, data)
	}
}

func TestBridgeDialFailureIs502(t *testing.T) {
	upstreamSrv := startEchoWSServer(t)
	base := upstreamSrv.URL
	upstreamSrv.Close()

	d := newTestDeps(t, config.Config{Mode: config.ModeProxy, MasterURL: base})
	gw := httptest.NewServer(NewRouterWithDeps(d))
	defer gw.Close()

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(gw.URL, "/anything/ws"), nil)
	if err == nil {
		t.Fatal("expected dial failure")
	}
	if resp == nil || resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502 handshake response, got %v", resp)
	}
	resp.Body.Close()
}

func TestLobbiesWSProxyModeBridgesToMaster(t *testing.T) {
	master := startEchoWSServer(t)

	d := newTestDeps(t, config.Config{Mode: config.ModeProxy, MasterURL: master.URL})
	gw := httptest.NewServer(NewRouterWithDeps(d))
	defer gw.Close()

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(gw.URL, "/lobbies"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte("ping-payload")); err != nil {
		t.Fatal(err)
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "ping-payload" {
		t.Errorf("echo through master bridge = %q", data)
	}
}

func TestLobbySubscriberReceivesSnapshotAndUpdates(t *testing.T) {
	d := newTestDeps(t, config.Config{Mode: config.ModeStandalone})
	d.Lobbies.Replace([]lobby.Lobby{{"gameID": "initial"}})
	gw := httptest.NewServer(NewRouterWithDeps(d))
	defer gw.Close()

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(gw.URL, "/lobbies"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("initial snapshot: %v", err)
	}
	if !strings.Contains(string(data), `"gameID":"initial"`) || !strings.Contains(string(data), `"type":"lobbies_update"`) {
		t.Errorf("initial message = %s", data)
	}

	// A refresh-cycle change reaches the subscriber.
	d.Lobbies.Replace([]lobby.Lobby{{"gameID": "next"}})
	d.Hub.Publish(d.Lobbies.UpdateMessage())

	_, data, err = conn.ReadMessage()
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !strings.Contains(string(data), `"gameID":"next"`) {
		t.Errorf("update message = %s", data)
	}
}
