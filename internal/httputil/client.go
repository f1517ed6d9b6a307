// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the HTTP client shared by the VO query and
// download stages.
package httputil

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pdiddy/gleam-vo/pkg/types"
)

const (
	// DefaultTimeout bounds every VO query and every file download.
	DefaultTimeout = 200 * time.Second

	DefaultUserAgent = "gleam-vo/0.1"
)

// NewClient returns an http.Client with cfg.Timeout (DefaultTimeout when
// zero) that sends cfg.UserAgent on every request that does not set one.
func NewClient(cfg types.HTTPConfig) *http.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: &userAgentTransport{base: http.DefaultTransport, userAgent: ua},
	}
}

type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.userAgent)
	}
	return t.base.RoundTrip(req)
}

// Get issues a single GET for url. There is no retry: a transport failure or
// timeout is returned as is. The caller owns the response body.
func Get(ctx context.Context, client *http.Client, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	return client.Do(req)
}
