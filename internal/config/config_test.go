package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-vine/internal/service"
	"github.com/joeblew999/plat-vine/internal/session"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8086, cfg.Server.Port)
	assert.Equal(t, "http://localhost:8087", cfg.Backend.URL)
	assert.Equal(t, 10*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "2021-07-31", cfg.Session.Date)
	assert.Equal(t, "Vineyard", cfg.Session.PromptDefault)
	assert.Equal(t, string(session.PolicyLatest), cfg.Session.Policy)
	assert.True(t, cfg.Session.Caps.HasZoneClick)
	assert.Equal(t, service.DefaultSettings(), cfg.Session.Settings)
	assert.Equal(t, 45.1, cfg.Map.CenterLat)
	assert.Equal(t, 37.5, cfg.Map.CenterLon)
	assert.Equal(t, 10, cfg.Map.Zoom)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vine.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend:
  url: https://alerts.example.org/api
  timeout: 3s
  headers:
    X-Client: vine
session:
  policy: last-write-wins
  caps:
    filters: true
    alerts: true
  settings:
    - {key: back, title: Days back, value: 1, min: 0, max: 5}
  filters:
    - name: area
      label: Area
      type: range
      default_start: {start: 10, end: 20}
      min: 0
      max: 100
      step: 1
    - name: grape
      label: Grape
      type: select
      default: [merlot]
      options:
        - {id: merlot, label: Merlot}
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://alerts.example.org/api", cfg.Backend.URL)
	assert.Equal(t, 3*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "vine", cfg.Backend.Headers["x-client"])
	assert.True(t, cfg.Session.Caps.HasFilters)
	assert.True(t, cfg.Session.Caps.HasAlerts)
	require.Len(t, cfg.Session.Settings, 1)
	assert.Equal(t, 1.0, cfg.Session.Settings[0].Value)
	require.Len(t, cfg.Session.Filters, 2)
	assert.Equal(t, service.Interval{Start: 10, End: 20}, cfg.Session.Filters[0].DefaultStart)
	assert.Equal(t, []string{"merlot"}, cfg.Session.Filters[1].Default)

	opts := cfg.Session.Options()
	assert.Equal(t, session.PolicyLastWriteWins, opts.Policy)
	assert.Equal(t, "2021-07-31", opts.Date)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("VINE_BACKEND_URL", "http://backend:9000")
	t.Setenv("VINE_SESSION_DATE", "2021-08-01")
	t.Setenv("VINE_SERVER_PORT", "9090")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://backend:9000", cfg.Backend.URL)
	assert.Equal(t, "2021-08-01", cfg.Session.Date)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 0
	cfg.Backend.URL = "ftp://nowhere"
	cfg.Session.Policy = "first"
	cfg.Session.Date = "31.07.2021"
	cfg.Session.Filters = []service.FilterDescriptor{
		{Name: "a", Type: service.FilterSelect},
		{Name: "a", Type: service.FilterSelect},
	}

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "server.port")
	assert.Contains(t, msg, "backend.url")
	assert.Contains(t, msg, "session.policy")
	assert.Contains(t, msg, "session.date")
	assert.Contains(t, msg, `duplicate filter "a"`)
}

func TestYAML(t *testing.T) {
	out, err := Default().YAML()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(out, &doc))
	backend := doc["backend"].(map[string]any)
	assert.Equal(t, "10s", backend["timeout"])
	assert.Contains(t, string(out), "prompt_default: Vineyard")
}

func TestLoad_ExampleFile(t *testing.T) {
	cfg, err := Load("../../configs/vine.example.yaml")
	require.NoError(t, err)

	assert.True(t, cfg.Session.Caps.HasFilters)
	require.Len(t, cfg.Session.Filters, 3)
	assert.Equal(t, "zone", cfg.Session.Filters[2].Name)
	assert.Len(t, cfg.Session.Filters[2].Options, 4)
	assert.Equal(t, 44.5, cfg.Session.Filters[0].DefaultStart.Start)
	assert.Equal(t, "Alert threshold (days)", cfg.Session.Settings[2].Title)
	assert.Equal(t, ".data/vine.duckdb", cfg.DevBackend.DBPath)
}
