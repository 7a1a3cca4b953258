package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Fleet talks to the fixed-size pool of worker processes. Worker i listens on
// the worker-0 port offset by i and expects its own /w<i>/ route prefix.
type Fleet struct {
	client  *http.Client
	baseURL string
	size    int
	logger  *zerolog.Logger
}

func NewFleet(client *http.Client, baseURL string, size int, logger *zerolog.Logger) *Fleet {
	return &Fleet{client: client, baseURL: baseURL, size: size, logger: logger}
}

// Size returns the configured worker count.
func (f *Fleet) Size() int { return f.size }

// Ready probes every worker's /readyz concurrently and reports the logical
// AND. An empty pool is vacuously ready. Any per-worker failure counts that
// worker as not ready; it is never fatal.
func (f *Fleet) Ready(ctx context.Context) bool {
	if f.size == 0 {
		return true
	}
	var notReady atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < f.size; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if !f.workerReady(ctx, id) {
				notReady.Add(1)
			}
		}(i)
	}
	wg.Wait()
	return notReady.Load() == 0
}

func (f *Fleet) workerReady(ctx context.Context, id int) bool {
	target, err := WorkerURL(f.baseURL, id, fmt.Sprintf("/w%d/readyz", id))
	if err != nil {
		f.logger.Warn().Err(err).Int("worker", id).Msg("readiness url build failed")
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		f.logger.Warn().Err(err).Int("worker", id).Str("upstream", target).Msg("readiness request build failed")
		return false
	}
	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Warn().Err(err).Int("worker", id).Str("upstream", target).Msg("worker readiness probe failed")
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// Lobbies fetches one worker's public lobby list. Every failure mode: dial
// error, non-success status, malformed JSON, missing or non-array "lobbies"
// field, degrades to an empty contribution for this cycle.
func (f *Fleet) Lobbies(ctx context.Context, id int) []map[string]any {
	target, err := WorkerURL(f.baseURL, id, fmt.Sprintf("/w%d/api/public_lobbies", id))
	if err != nil {
		f.logger.Warn().Err(err).Int("worker", id).Msg("lobby url build failed")
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		f.logger.Warn().Err(err).Int("worker", id).Str("upstream", target).Msg("lobby request build failed")
		return nil
	}
	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Warn().Err(err).Int("worker", id).Str("upstream", target).Msg("lobby fetch failed")
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		f.logger.Warn().Int("worker", id).Int("status", resp.StatusCode).Str("upstream", target).Msg("lobby fetch returned non-success status")
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		f.logger.Warn().Err(err).Int("worker", id).Str("upstream", target).Msg("lobby response is not valid json")
		return nil
	}
	raw, ok := body["lobbies"].([]any)
	if !ok {
		f.logger.Warn().Int("worker", id).Str("upstream", target).Msg("lobby response missing lobbies array")
		return nil
	}
	out := make([]map[string]any, 0, len(raw))
	for _, entry := range raw {
		if obj, ok := entry.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}
