package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-vine/internal/config"
	"github.com/joeblew999/plat-vine/internal/devbackend"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	b, closer, err := devbackend.Open(context.Background(), "")
	require.NoError(t, err)
	t.Cleanup(func() { closer.Close() })
	h, _ := b.Handler()
	backend := httptest.NewServer(h)
	t.Cleanup(backend.Close)

	cfg := config.Default()
	cfg.Backend.URL = backend.URL

	srv, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return srv, ts
}

func TestServer_Page(t *testing.T) {
	srv, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "/api/v1/dashboard/date")
	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "vine_session" {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	c, ok := srv.Store().Get(cookie.Value)
	require.True(t, ok)
	c.Wait()
	s, _ := c.Snapshot()
	assert.Len(t, s.Places, 4)
	assert.Len(t, s.Zones, 4)

	resp, err = http.Get(ts.URL + "/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_Info(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/info")
	require.NoError(t, err)
	defer resp.Body.Close()

	var info struct {
		Name      string `json:"name"`
		BackendOK bool   `json:"backend_ok"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	assert.Equal(t, Name, info.Name)
	assert.True(t, info.BackendOK)
}

func TestServer_HealthLinks(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Values("Link"))
}

func TestServer_Metrics(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "vine_session_active")
}

func TestServer_OpenAPI(t *testing.T) {
	srv, _ := newTestServer(t)

	paths := srv.OpenAPI().Paths
	for _, p := range []string{
		"/health",
		"/api/v1/info",
		"/api/v1/sessions",
		"/api/v1/sessions/{id}",
		"/api/v1/dashboard/stream",
		"/api/v1/dashboard/places/{id}/select",
	} {
		assert.Contains(t, paths, p)
	}
}
