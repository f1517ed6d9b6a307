// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/gleam-vo/pkg/types"
)

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(types.HTTPConfig{})
	assert.Equal(t, DefaultTimeout, c.Timeout)
	assert.Equal(t, 200*time.Second, c.Timeout)
}

func TestNewClient_CustomTimeout(t *testing.T) {
	c := NewClient(types.HTTPConfig{Timeout: 5 * time.Second})
	assert.Equal(t, 5*time.Second, c.Timeout)
}

func TestGet_SetsUserAgent(t *testing.T) {
	var got string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	resp, err := Get(context.Background(), NewClient(types.HTTPConfig{UserAgent: "test-agent/1"}), ts.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "test-agent/1", got)
}

func TestGet_DefaultUserAgent(t *testing.T) {
	var got string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
	}))
	defer ts.Close()

	resp, err := Get(context.Background(), NewClient(types.HTTPConfig{}), ts.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, DefaultUserAgent, got)
}

func TestGet_ServerErrorIsNotAnError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	resp, err := Get(context.Background(), ts.Client(), ts.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestGet_ContextCancelled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := Get(ctx, ts.Client(), ts.URL)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGet_InvalidURL(t *testing.T) {
	_, err := Get(context.Background(), http.DefaultClient, "://bad")
	assert.ErrorContains(t, err, "creating request")
}
