package store

import (
	"fmt"
	"net/http"
	"time"

	"golang.org/x/net/http2"
)

// NewHTTPClient creates an HTTP client sized for maxConns parallel range
// requests against one host, with HTTP/2 enabled over TLS.
func NewHTTPClient(maxConns int, timeout time.Duration) (*http.Client, error) {
	if maxConns < 1 {
		maxConns = 1
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          max(200, 2*maxConns),
		MaxIdleConnsPerHost:   maxConns,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		DisableCompression:    true,
	}

	if err := http2.ConfigureTransport(transport); err != nil {
		return nil, fmt.Errorf("configure http2: %w", err)
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}, nil
}
