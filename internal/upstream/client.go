package upstream

import (
	"net/http"
	"time"

	http2 "golang.org/x/net/http2"
)

// NewClient builds the single connection-pooled client shared by every
// upstream call the gateway makes. The timeout bounds each request whole,
// including body read, so one hung worker cannot stall a refresh cycle.
func NewClient(timeout time.Duration) (*http.Client, error) {
	tr := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	// Enable HTTP/2 for outbound HTTPS where possible; falls back to HTTP/1.1.
	if err := http2.ConfigureTransport(tr); err != nil {
		return nil, err
	}
	return &http.Client{Transport: tr, Timeout: timeout}, nil
}
