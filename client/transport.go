package client

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// newHTTPClient builds the HTTP client used for Code Assist calls. The
// overall timeout is left to the caller's context so streaming responses
// are not cut off mid-body; per-phase limits guard connect, TLS, and
// time-to-first-header instead.
func newHTTPClient(responseHeaderTimeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: responseHeaderTimeout,
			MaxIdleConns:          10,
			MaxIdleConnsPerHost:   5,
			IdleConnTimeout:       90 * time.Second,
		},
	}
}
