package lobby

import (
	"bytes"
	"encoding/json"
	"sync"
)

// Lobby is an opaque record describing a joinable game session. The gateway
// interprets exactly one field: the "gameID" string identifier.
type Lobby = map[string]any

type updateEnvelope struct {
	Type string     `json:"type"`
	Data updateData `json:"data"`
}

type updateData struct {
	Lobbies []Lobby `json:"lobbies"`
}

// EncodeUpdate serializes the lobbies_update message pushed over /lobbies.
// encoding/json sorts map keys, so identical snapshots serialize identically.
func EncodeUpdate(lobbies []Lobby) []byte {
	if lobbies == nil {
		lobbies = []Lobby{}
	}
	b, _ := json.Marshal(updateEnvelope{Type: "lobbies_update", Data: updateData{Lobbies: lobbies}})
	return b
}

// Store holds the current public-lobbies snapshot. Handlers and subscriber
// catch-ups read concurrently; only the refresh cycle writes.
type Store struct {
	mu      sync.RWMutex
	lobbies []Lobby
	update  []byte
}

func NewStore() *Store {
	return &Store{lobbies: []Lobby{}, update: EncodeUpdate(nil)}
}

// Snapshot returns the current lobby list. Callers must not mutate it.
func (s *Store) Snapshot() []Lobby {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lobbies
}

// UpdateMessage returns the serialized lobbies_update for the current snapshot.
func (s *Store) UpdateMessage() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.update
}

// Replace swaps in a new snapshot and reports whether it differed from the
// previous one. Equality is judged on the serialized update message, so the
// opaque lobby payloads compare by value.
func (s *Store) Replace(lobbies []Lobby) bool {
	msg := EncodeUpdate(lobbies)
	s.mu.Lock()
	defer s.mu.Unlock()
	if bytes.Equal(msg, s.update) {
		return false
	}
	s.lobbies = lobbies
	s.update = msg
	return true
}
