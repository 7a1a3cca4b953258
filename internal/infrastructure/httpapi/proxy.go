package httpapi

import (
	"io"
	"net/http"
	"net/textproto"
)

// Hop-by-hop headers are stripped from both directions; they describe the
// connection to the gateway, not the end-to-end exchange.
var hopHeaders = map[string]struct{}{
	"Connection":          {},
	"Keep-Alive":          {},
	"Proxy-Authenticate":  {},
	"Proxy-Authorization": {},
	"Te":                  {},
	"Trailers":            {},
	"Transfer-Encoding":   {},
	"Upgrade":             {},
}

func isHopHeader(key string) bool {
	_, ok := hopHeaders[textproto.CanonicalMIMEHeaderKey(key)]
	return ok
}

func removeHopHeaders(h http.Header) {
	for k := range hopHeaders {
		h.Del(k)
	}
}

// forward relays the request to target over the shared pooled client and
// copies the upstream response back verbatim, minus hop-by-hop headers. Any
// upstream failure answers 502; retries belong to the caller, not here.
func (d *Deps) forward(w http.ResponseWriter, r *http.Request, kind, target string) {
	// A nil body for bodyless requests keeps the outbound request from being
	// sent with chunked transfer encoding.
	var body io.Reader
	if r.ContentLength != 0 {
		body = r.Body
	}
	req, err := http.NewRequestWithContext(r.Context(), r.Method, target, body)
	if err != nil {
		d.Metrics.ProxiedRequests.WithLabelValues(kind, "error").Inc()
		d.Logger.Error().Err(err).Str("path", r.URL.Path).Str("upstream", target).Msg("upstream request build failed")
		writeError(w, http.StatusBadGateway, "BAD_UPSTREAM_REQUEST", err.Error(), map[string]any{"target": target})
		return
	}
	if r.ContentLength > 0 {
		req.ContentLength = r.ContentLength
	}
	req.Header = r.Header.Clone()
	req.Header.Del("Host")
	removeHopHeaders(req.Header)

	resp, err := d.Client.Do(req)
	if err != nil {
		d.Metrics.ProxiedRequests.WithLabelValues(kind, "error").Inc()
		d.Logger.Error().Err(err).Str("path", r.URL.Path).Str("upstream", target).Msg("upstream request failed")
		writeError(w, http.StatusBadGateway, "UPSTREAM_UNAVAILABLE", err.Error(), map[string]any{"target": target})
		return
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		d.Metrics.ProxiedRequests.WithLabelValues(kind, "error").Inc()
		d.Logger.Error().Err(err).Str("path", r.URL.Path).Str("upstream", target).Msg("upstream body read failed")
		writeError(w, http.StatusBadGateway, "UPSTREAM_READ_FAILED", err.Error(), map[string]any{"target": target})
		return
	}

	hdr := w.Header()
	for k, vv := range resp.Header {
		if isHopHeader(k) {
			continue
		}
		for _, v := range vv {
			hdr.Add(k, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := w.Write(respBody); err != nil {
		d.Logger.Warn().Err(err).Str("path", r.URL.Path).Msg("client write failed")
	}
	d.Metrics.ProxiedRequests.WithLabelValues(kind, "ok").Inc()
}
