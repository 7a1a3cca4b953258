package upstream

import (
	"errors"
	"testing"
)

func TestExtractWorkerID(t *testing.T) {
	cases := []struct {
		path string
		id   int
		ok   bool
	}{
		{"/w7/api/game/id", 7, true},
		{"/w0/readyz", 0, true},
		{"/w12", 12, true},
		{"/w12/", 12, true},
		{"/w123/deep/er/path", 123, true},
		{"/w/api", 0, false},
		{"/w12x/api", 0, false},
		{"/w+2/api", 0, false},
		{"/api/public_lobbies", 0, false},
		{"/lobbies", 0, false},
		{"/", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		id, ok := ExtractWorkerID(tc.path)
		if ok != tc.ok || id != tc.id {
			t.Errorf("ExtractWorkerID(%q) = (%d, %v), want (%d, %v)", tc.path, id, ok, tc.id, tc.ok)
		}
	}
}

func TestWorkerURL(t *testing.T) {
	got, err := WorkerURL("http://127.0.0.1:3001", 7, "/w7/api/game/id")
	if err != nil {
		t.Fatalf("WorkerURL: %v", err)
	}
	if want := "http://127.0.0.1:3008/w7/api/game/id"; got != want {
		t.Errorf("WorkerURL = %q, want %q", got, want)
	}
}

func TestWorkerBaseURLSchemeDefaultPort(t *testing.T) {
	got, err := WorkerBaseURL("http://worker.internal", 3)
	if err != nil {
		t.Fatalf("WorkerBaseURL: %v", err)
	}
	if want := "http://worker.internal:83"; got != want {
		t.Errorf("WorkerBaseURL = %q, want %q", got, want)
	}
}

func TestWorkerBaseURLPortOverflow(t *testing.T) {
	_, err := WorkerBaseURL("http://127.0.0.1:65530", 10)
	if !errors.Is(err, ErrPortOverflow) {
		t.Errorf("expected ErrPortOverflow, got %v", err)
	}
}

func TestJoinBaseWithPath(t *testing.T) {
	cases := []struct {
		base string
		pq   string
		want string
	}{
		{"http://127.0.0.1:3000", "", "http://127.0.0.1:3000/"},
		{"http://127.0.0.1:3000", "healthz", "http://127.0.0.1:3000/healthz"},
		{"http://127.0.0.1:3000/old?x=1", "/new?y=2", "http://127.0.0.1:3000/new?y=2"},
		{"http://127.0.0.1:3000", "/a/b?c=d&e=f", "http://127.0.0.1:3000/a/b?c=d&e=f"},
	}
	for _, tc := range cases {
		got, err := JoinBaseWithPath(tc.base, tc.pq)
		if err != nil {
			t.Errorf("JoinBaseWithPath(%q, %q): %v", tc.base, tc.pq, err)
			continue
		}
		if got != tc.want {
			t.Errorf("JoinBaseWithPath(%q, %q) = %q, want %q", tc.base, tc.pq, got, tc.want)
		}
	}
}

func TestWebsocketURL(t *testing.T) {
	cases := []struct {
		base string
		pq   string
		want string
	}{
		{"http://127.0.0.1:3000", "/lobbies", "ws://127.0.0.1:3000/lobbies"},
		{"https://openfront.io", "/lobbies?v=1", "wss://openfront.io/lobbies?v=1"},
		{"ws://127.0.0.1:3000", "/lobbies", "ws://127.0.0.1:3000/lobbies"},
		{"wss://openfront.io", "/lobbies", "wss://openfront.io/lobbies"},
	}
	for _, tc := range cases {
		got, err := WebsocketURL(tc.base, tc.pq)
		if err != nil {
			t.Errorf("WebsocketURL(%q, %q): %v", tc.base, tc.pq, err)
			continue
		}
		if got != tc.want {
			t.Errorf("WebsocketURL(%q, %q) = %q, want %q", tc.base, tc.pq, got, tc.want)
		}
	}
}

func TestWebsocketURLUnsupportedScheme(t *testing.T) {
	if _, err := WebsocketURL("ftp://example.com", "/lobbies"); !errors.Is(err, ErrUnsupportedScheme) {
		t.Errorf("expected ErrUnsupportedScheme, got %v", err)
	}
}
