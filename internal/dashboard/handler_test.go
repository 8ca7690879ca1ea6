package dashboard

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-vine/internal/controller"
	"github.com/joeblew999/plat-vine/internal/gateway"
	"github.com/joeblew999/plat-vine/internal/service"
	"github.com/joeblew999/plat-vine/internal/session"
	"github.com/joeblew999/plat-vine/internal/templates"
)

type stubGateway struct {
	mu      sync.Mutex
	places  []service.Place
	dates   []string
	created []string
}

func (g *stubGateway) ListPlaces(_ context.Context, p gateway.ListParams) ([]service.Place, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.dates = append(g.dates, p.Date)
	return append([]service.Place{}, g.places...), nil
}

func (g *stubGateway) ListZones(context.Context, gateway.ListParams) ([]service.Zone, error) {
	return []service.Zone{{ID: "z1", Geometry: square(37, 45)}}, nil
}

func (g *stubGateway) CreatePlace(_ context.Context, name string, lat, lon float64) (service.Place, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.created = append(g.created, name)
	p := service.Place{ID: "9", Name: name, Lat: lat, Lon: lon}
	g.places = append(g.places, p)
	return p, nil
}

func (g *stubGateway) DeletePlace(context.Context, string) error { return nil }

func (g *stubGateway) GetPlaceAlerts(context.Context, string, string) (service.AlertSummary, error) {
	return service.AlertSummary{"alerts": []any{}}, nil
}

func (g *stubGateway) Search(context.Context, service.SearchPayload) (service.SearchResult, error) {
	return service.SearchResult{}, nil
}

type testServer struct {
	mux   *http.ServeMux
	store *controller.Store
	gw    *stubGateway
}

func newTestServer(t *testing.T, caps session.Capabilities) *testServer {
	t.Helper()
	renderer, err := templates.New()
	require.NoError(t, err)

	gw := &stubGateway{places: []service.Place{{ID: "5", Name: "Plot A", Lat: 46.8, Lon: 39.7}}}
	store := controller.NewStore(gw, service.NewEventBus(), testOptions(caps), time.Second, 0)

	mux := http.NewServeMux()
	api := humago.New(mux, huma.DefaultConfig("test", "1.0.0"))
	NewHandler(store, renderer).RegisterRoutes(api)
	page := NewPage(api, store, renderer, DefaultPageConfig())
	mux.Handle("/{$}", page)
	mux.Handle("/dashboard", page)

	return &testServer{mux: mux, store: store, gw: gw}
}

func (ts *testServer) session(t *testing.T) *controller.Controller {
	t.Helper()
	c, created := ts.store.GetOrCreate("")
	require.True(t, created)
	c.Wait()
	return c
}

func (ts *testServer) post(path, sessionID, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: sessionID})
	}
	rec := httptest.NewRecorder()
	ts.mux.ServeHTTP(rec, req)
	return rec
}

func TestGestureUnknownSession(t *testing.T) {
	ts := newTestServer(t, session.Capabilities{})

	rec := ts.post(BasePath+"/zones/toggle", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.post(BasePath+"/zones/toggle", "no-such-session", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGestureRendersView(t *testing.T) {
	ts := newTestServer(t, session.Capabilities{})
	c := ts.session(t)

	rec := ts.post(BasePath+"/zones/toggle", c.ID(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/event-stream")

	body := rec.Body.String()
	assert.Contains(t, body, "datastar-patch-signals")
	assert.Contains(t, body, `"zonesVisible":true`)
	assert.Contains(t, body, "datastar-patch-elements")
	assert.Contains(t, body, "#popup")

	s, _ := c.Snapshot()
	assert.True(t, s.ZonesVisible)
}

func TestSelectDateGesture(t *testing.T) {
	ts := newTestServer(t, session.Capabilities{HasAlerts: true})
	c := ts.session(t)

	rec := ts.post(BasePath+"/date", c.ID(), `{"date":"2021-08-01","loading":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	c.Wait()

	s, _ := c.Snapshot()
	assert.Equal(t, "2021-08-01", s.Date)
	ts.gw.mu.Lock()
	assert.Equal(t, []string{"2021-07-31", "2021-08-01"}, ts.gw.dates)
	ts.gw.mu.Unlock()

	rec = ts.post(BasePath+"/date", c.ID(), `{"date":"01.08.2021"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCreatePlaceGestures(t *testing.T) {
	ts := newTestServer(t, session.Capabilities{})
	c := ts.session(t)

	// Unwrapped longitudes are rejected; the page wraps them before posting.
	rec := ts.post(BasePath+"/map/click?lat=45.1&lon=397.5", c.ID(), "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = ts.post(BasePath+"/map/click?lat=45.1&lon=37.5", c.ID(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "name-prompt")
	assert.Contains(t, rec.Body.String(), `data-bind="promptName"`)

	rec = ts.post(BasePath+"/prompt", c.ID(), `{"promptName":"  Plot C "}`)
	require.Equal(t, http.StatusOK, rec.Code)
	c.Wait()

	s, _ := c.Snapshot()
	assert.Len(t, s.Places, 2)
	assert.False(t, s.Loading)
	ts.gw.mu.Lock()
	assert.Equal(t, []string{"Plot C"}, ts.gw.created)
	ts.gw.mu.Unlock()
}

func TestSelectPlaceGesture(t *testing.T) {
	ts := newTestServer(t, session.Capabilities{})
	c := ts.session(t)

	rec := ts.post(BasePath+"/places/5/select", c.ID(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Plot A")
	assert.Contains(t, rec.Body.String(), "/api/v1/dashboard/places/5/delete")
	c.Wait()

	s, _ := c.Snapshot()
	assert.True(t, s.Popup.Open)
	assert.False(t, s.Popup.Loading)
	assert.Contains(t, s.Popup.Data, "alerts")
}

func TestSettingsGestures(t *testing.T) {
	ts := newTestServer(t, session.Capabilities{})
	c := ts.session(t)

	require.Equal(t, http.StatusOK, ts.post(BasePath+"/settings/open", c.ID(), "").Code)
	require.Equal(t, http.StatusOK, ts.post(BasePath+"/settings/forward?value=5", c.ID(), "").Code)
	require.Equal(t, http.StatusOK, ts.post(BasePath+"/settings/commit", c.ID(), "").Code)
	c.Wait()

	s, _ := c.Snapshot()
	assert.False(t, s.SettingsOpen)
	forward, ok := s.Settings.Get("forward")
	require.True(t, ok)
	assert.Equal(t, 5.0, forward.Value)
}

func TestPageStartsSession(t *testing.T) {
	ts := newTestServer(t, session.Capabilities{HasFilters: true})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	ts.mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.Equal(t, 1, ts.store.Len())

	body := rec.Body.String()
	assert.Contains(t, body, "/api/v1/dashboard/stream")
	assert.Contains(t, body, "Filters")
	assert.Contains(t, body, `id="popup"`)
	assert.Contains(t, body, "e.latlng.wrap()")

	// A returning browser keeps its session.
	req = httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	ts.mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
	assert.Equal(t, 1, ts.store.Len())
}

func TestPromptNameSeededOnce(t *testing.T) {
	ts := newTestServer(t, session.Capabilities{})
	c := ts.session(t)

	srv := httptest.NewServer(ts.mux)
	t.Cleanup(srv.Close)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+BasePath+"/stream", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: c.ID()})
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	require.Equal(t, http.StatusOK, resp.StatusCode)

	lines := make(chan string, 256)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(resp.Body)
		sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	rec := ts.post(BasePath+"/map/click?lat=45.1&lon=37.5", c.ID(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"promptName":"Vineyard"`)

	// Places arrive from the backend while the user is typing a name.
	ts.gw.mu.Lock()
	ts.gw.places = append(ts.gw.places, service.Place{ID: "6", Name: "Plot B", Lat: 46.9, Lon: 39.8})
	ts.gw.mu.Unlock()
	c.Reload()
	c.Wait()

	timeout := time.After(2 * time.Second)
	for {
		select {
		case line, ok := <-lines:
			require.True(t, ok, "stream closed early")
			if !strings.HasPrefix(line, "data: signals") {
				continue
			}
			assert.NotContains(t, line, "promptName")
			if strings.Contains(line, "Plot B") && strings.Contains(line, `"modal":"name-prompt"`) {
				return
			}
		case <-timeout:
			t.Fatal("stream never rendered the reloaded places")
		}
	}
}

func TestRepeatedMapClickKeepsPromptInput(t *testing.T) {
	ts := newTestServer(t, session.Capabilities{})
	c := ts.session(t)

	rec := ts.post(BasePath+"/map/click?lat=45.1&lon=37.5", c.ID(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"promptName":"Vineyard"`)

	// A second click while the prompt is open changes nothing.
	rec = ts.post(BasePath+"/map/click?lat=45.2&lon=37.6", c.ID(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "promptName")

	rec = ts.post(BasePath+"/zones/toggle", c.ID(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "promptName")
}
