package httpapi

import (
	"errors"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var contentTypes = map[string]string{
	".html": "text/html; charset=utf-8",
	".css":  "text/css; charset=utf-8",
	".js":   "application/javascript",
	".json": "application/json",
	".svg":  "image/svg+xml",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
	".ico":  "image/x-icon",
	".wasm": "application/wasm",
	".map":  "application/json",
	".txt":  "text/plain; charset=utf-8",
}

// Hashed build outputs are safe to cache forever; their names change when
// their content does.
var immutableExts = map[string]struct{}{
	".js": {}, ".css": {}, ".svg": {}, ".bin": {}, ".dat": {},
	".exe": {}, ".dll": {}, ".so": {}, ".dylib": {},
}

// sanitizeRelativePath turns a request path into a path relative to the
// static root, rejecting anything that could escape it.
func sanitizeRelativePath(p string) (string, error) {
	p = strings.TrimPrefix(p, "/")
	if filepath.VolumeName(p) != "" || filepath.IsAbs(p) {
		return "", errors.New("absolute path rejected")
	}
	parts := strings.Split(p, "/")
	clean := make([]string, 0, len(parts))
	for _, part := range parts {
		switch part {
		case "..":
			return "", errors.New("parent traversal rejected")
		case "", ".":
			// harmless, skip
		default:
			clean = append(clean, part)
		}
	}
	return strings.Join(clean, "/"), nil
}

// serveStatic serves the pre-built asset bundle with SPA fallback: extension-
// less misses land on index.html so client-side routes resolve.
func (d *Deps) serveStatic(w http.ResponseWriter, r *http.Request) {
	rel, err := sanitizeRelativePath(r.URL.Path)
	if err != nil {
		d.Logger.Warn().Str("path", r.URL.Path).Str("client", r.RemoteAddr).Msg("rejected static path")
		writeError(w, http.StatusBadRequest, "BAD_PATH", err.Error(), nil)
		return
	}
	if rel == "" {
		rel = "index.html"
	}
	full := filepath.Join(d.Cfg.StaticDir, rel)
	if info, err := os.Stat(full); err != nil || info.IsDir() {
		if path.Ext(r.URL.Path) != "" {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "asset not found", map[string]any{"path": r.URL.Path})
			return
		}
		full = filepath.Join(d.Cfg.StaticDir, "index.html")
	}
	data, err := os.ReadFile(full)
	if err != nil {
		d.Logger.Warn().Err(err).Str("path", r.URL.Path).Str("file", full).Msg("static read failed")
		writeError(w, http.StatusNotFound, "NOT_FOUND", "asset not found", map[string]any{"path": r.URL.Path})
		return
	}

	ext := strings.ToLower(filepath.Ext(full))
	hdr := w.Header()
	if ct, ok := contentTypes[ext]; ok {
		hdr.Set("Content-Type", ct)
	} else {
		hdr.Set("Content-Type", "application/octet-stream")
	}
	switch {
	case ext == ".html":
		// The SPA shell must always be revalidated or stale clients keep
		// loading removed asset hashes.
		hdr.Set("Cache-Control", "no-store, no-cache, must-revalidate")
		hdr.Set("Pragma", "no-cache")
		hdr.Set("Expires", "0")
		hdr.Set("ETag", "")
	default:
		if _, ok := immutableExts[ext]; ok {
			hdr.Set("Cache-Control", "public, max-age=31536000, immutable")
		}
	}
	if _, err := w.Write(data); err != nil {
		d.Logger.Warn().Err(err).Str("path", r.URL.Path).Msg("static write failed")
	}
}
