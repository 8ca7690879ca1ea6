package dashboard

import (
	"log/slog"
	"maps"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-vine/internal/controller"
	"github.com/joeblew999/plat-vine/internal/humastar"
	"github.com/joeblew999/plat-vine/internal/templates"
)

// PageConfig is the static part of the dashboard page.
type PageConfig struct {
	Title       string
	CenterLat   float64
	CenterLon   float64
	Zoom        int
	TileURL     string
	Attribution string
}

// DefaultPageConfig centers the map on the vineyards around Anapa.
func DefaultPageConfig() PageConfig {
	return PageConfig{
		Title:       "Vineyard disease risk",
		CenterLat:   45.1,
		CenterLon:   37.5,
		Zoom:        10,
		TileURL:     "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
		Attribution: "&copy; OpenStreetMap contributors",
	}
}

// Page serves the dashboard HTML page and starts the browser's session.
type Page struct {
	api      huma.API
	store    *controller.Store
	renderer *templates.Renderer
	cfg      PageConfig
}

// NewPage creates the page handler. api must already carry the dashboard
// routes so the page can resolve them.
func NewPage(api huma.API, store *controller.Store, renderer *templates.Renderer, cfg PageConfig) *Page {
	return &Page{api: api, store: store, renderer: renderer, cfg: cfg}
}

func (p *Page) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/dashboard" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var id string
	if ck, err := r.Cookie(SessionCookie); err == nil {
		id = ck.Value
	}
	c, created := p.store.GetOrCreate(id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    c.ID(),
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	s, _ := c.Snapshot()
	signals := Signals(s)
	maps.Copy(signals, PromptSignals(s))
	pd := humastar.BuildPageData(p.api, BasePath, signals)
	pd.Extra["Title"] = p.cfg.Title
	pd.Extra["CenterLat"] = p.cfg.CenterLat
	pd.Extra["CenterLon"] = p.cfg.CenterLon
	pd.Extra["Zoom"] = p.cfg.Zoom
	pd.Extra["TileURL"] = p.cfg.TileURL
	pd.Extra["Attribution"] = p.cfg.Attribution
	pd.Extra["Caps"] = s.Caps

	html, err := p.renderer.Render("dashboard", pd)
	if err != nil {
		slog.Error("render dashboard page", "error", err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}

	for _, link := range humastar.RootLinks() {
		w.Header().Add("Link", link)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(html))
}
