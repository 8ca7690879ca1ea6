package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-querystring/query"

	"github.com/joeblew999/plat-vine/internal/metrics"
	"github.com/joeblew999/plat-vine/internal/service"
)

// Config configures the backend client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Headers map[string]string
}

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: backend returned status %d", e.Method, e.Path, e.Code)
	}
	return fmt.Sprintf("%s %s: backend returned status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// Client talks to the backend over HTTP. One Client is built at startup
// and shared; its headers are fixed at construction.
type Client struct {
	base    *url.URL
	http    *http.Client
	headers http.Header
}

var _ Gateway = (*Client)(nil)

// New creates a backend client.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parsing backend url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("backend url %q: scheme must be http or https", cfg.BaseURL)
	}

	headers := http.Header{}
	headers.Set("Accept", "application/json")
	for k, v := range cfg.Headers {
		headers.Set(k, v)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		base:    base,
		http:    &http.Client{Timeout: timeout},
		headers: headers,
	}, nil
}

// BaseURL returns the configured backend address.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Health checks the backend is up.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, "health", http.MethodGet, "health", nil, nil, nil)
}

// ListPlaces returns all vineyards, annotated with alerts when requested.
func (c *Client) ListPlaces(ctx context.Context, p ListParams) ([]service.Place, error) {
	q, err := p.values()
	if err != nil {
		return nil, err
	}
	var places []service.Place
	if err := c.do(ctx, "list_places", http.MethodGet, "vineyards", q, nil, &places); err != nil {
		return nil, err
	}
	if places == nil {
		places = []service.Place{}
	}
	return places, nil
}

// ListZones returns the map polygons for the scope.
func (c *Client) ListZones(ctx context.Context, p ListParams) ([]service.Zone, error) {
	q, err := p.values()
	if err != nil {
		return nil, err
	}
	var zones []service.Zone
	if err := c.do(ctx, "list_zones", http.MethodGet, "map", q, nil, &zones); err != nil {
		return nil, err
	}
	if zones == nil {
		zones = []service.Zone{}
	}
	return zones, nil
}

// CreatePlace adds a vineyard and returns it as stored by the backend.
func (c *Client) CreatePlace(ctx context.Context, name string, lat, lon float64) (service.Place, error) {
	body := struct {
		Name string  `json:"name"`
		Lat  float64 `json:"lat"`
		Lon  float64 `json:"lon"`
	}{name, lat, lon}

	var created service.Place
	if err := c.do(ctx, "create_place", http.MethodPost, "vineyards", nil, body, &created); err != nil {
		return service.Place{}, err
	}
	return created, nil
}

// DeletePlace removes a vineyard.
func (c *Client) DeletePlace(ctx context.Context, id string) error {
	return c.do(ctx, "delete_place", http.MethodDelete, "vineyards/"+url.PathEscape(id), nil, nil, nil)
}

// GetPlaceAlerts fetches the alert detail of one vineyard for a date.
func (c *Client) GetPlaceAlerts(ctx context.Context, id, date string) (service.AlertSummary, error) {
	q := url.Values{}
	if date != "" {
		q.Set("date", date)
	}
	var alerts service.AlertSummary
	if err := c.do(ctx, "place_alerts", http.MethodGet, "vineyards/"+url.PathEscape(id)+"/alerts", q, nil, &alerts); err != nil {
		return nil, err
	}
	if alerts == nil {
		alerts = service.AlertSummary{}
	}
	return alerts, nil
}

// Search runs a filter search.
func (c *Client) Search(ctx context.Context, payload service.SearchPayload) (service.SearchResult, error) {
	var res service.SearchResult
	if err := c.do(ctx, "search", http.MethodPost, "suggest", nil, payload, &res); err != nil {
		return service.SearchResult{}, err
	}
	if res.Points == nil {
		res.Points = []service.Place{}
	}
	return res, nil
}

func (p ListParams) values() (url.Values, error) {
	q, err := query.Values(p)
	if err != nil {
		return nil, fmt.Errorf("encoding list params: %w", err)
	}
	for k, v := range p.Settings {
		q.Set(k, v)
	}
	return q, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, q url.Values, in, out any) (err error) {
	start := time.Now()
	status := "error"
	defer func() {
		metrics.GatewayRequests.WithLabelValues(op, status).Inc()
		metrics.GatewayDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	ref, err := url.Parse(path)
	if err != nil {
		return fmt.Errorf("building %s request: %w", op, err)
	}
	u := c.base.ResolveReference(ref)
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding %s request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("building %s request: %w", op, err)
	}
	for k, v := range c.headers {
		req.Header[k] = v
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json;charset=utf-8")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, u.Path, err)
	}
	defer resp.Body.Close()
	status = strconv.Itoa(resp.StatusCode)

	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return fmt.Errorf("reading %s response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Method: method, Path: u.Path, Code: resp.StatusCode, Body: strings.TrimSpace(string(truncate(data, 512)))}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", op, err)
	}
	return nil
}

func truncate(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}
