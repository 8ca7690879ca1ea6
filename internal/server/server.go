package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/joeblew999/plat-vine/internal/api"
	"github.com/joeblew999/plat-vine/internal/config"
	"github.com/joeblew999/plat-vine/internal/controller"
	"github.com/joeblew999/plat-vine/internal/dashboard"
	"github.com/joeblew999/plat-vine/internal/gateway"
	"github.com/joeblew999/plat-vine/internal/humastar"
	"github.com/joeblew999/plat-vine/internal/metrics"
	"github.com/joeblew999/plat-vine/internal/service"
	"github.com/joeblew999/plat-vine/internal/templates"
)

// Name and Version identify the dashboard in the API docs and /api/v1/info.
const (
	Name    = "plat-vine"
	Version = "0.1.0"
)

// Server is the vineyard dashboard HTTP server.
type Server struct {
	config   *config.Config
	mux      *http.ServeMux
	humaAPI  huma.API
	gateway  *gateway.Client
	store    *controller.Store
	renderer *templates.Renderer
	cancel   context.CancelFunc
}

// New creates the dashboard server. Call Close to stop the session sweeper.
func New(cfg *config.Config) (*Server, error) {
	mux := http.NewServeMux()

	humaConfig := huma.DefaultConfig("plat-vine API", Version)
	humaConfig.Info.Description = "Vineyard disease-risk map dashboard: Datastar gesture endpoints and session inspection."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, humastar.LinkTransformer())

	humaAPI := humago.New(mux, humaConfig)

	renderer, err := newRenderer(cfg.Server.TemplatesDir)
	if err != nil {
		return nil, err
	}

	gw, err := gateway.New(gateway.Config{
		BaseURL: cfg.Backend.URL,
		Timeout: cfg.Backend.Timeout,
		Headers: cfg.Backend.Headers,
	})
	if err != nil {
		return nil, err
	}

	store := controller.NewStore(gw, service.NewEventBus(), cfg.Session.Options(), cfg.Backend.Timeout, cfg.Session.TTL)

	ctx, cancel := context.WithCancel(context.Background())
	go store.Run(ctx)

	s := &Server{
		config:   cfg,
		mux:      mux,
		humaAPI:  humaAPI,
		gateway:  gw,
		store:    store,
		renderer: renderer,
		cancel:   cancel,
	}
	s.routes()
	return s, nil
}

func newRenderer(dir string) (*templates.Renderer, error) {
	if dir == "" {
		return templates.New()
	}
	r, err := templates.NewFromDir(dir)
	if err != nil {
		return nil, err
	}
	slog.Info("loaded templates from disk", "dir", dir)
	return r, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// OpenAPI returns the API description.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Store returns the live sessions.
func (s *Server) Store() *controller.Store {
	return s.store
}

// Close stops the session sweeper.
func (s *Server) Close() error {
	s.cancel()
	return nil
}

func (s *Server) routes() {
	// JSON API (OpenAPI-documented)
	huma.AutoRegister(s.humaAPI, api.NewAPIHandler(s.store, Version))
	api.NewInfoHandler(Name, Version, s.gateway, s.store, s.config.Session.Caps).RegisterRoutes(s.humaAPI)

	// Datastar gesture endpoints
	dashboard.NewHandler(s.store, s.renderer).RegisterRoutes(s.humaAPI)

	// Link headers for the JSON API; gesture endpoints answer with SSE.
	humastar.AutoLinks(s.humaAPI, "dashboard")

	s.mux.Handle("/metrics", metrics.Handler())

	page := dashboard.NewPage(s.humaAPI, s.store, s.renderer, dashboard.PageConfig{
		Title:       s.config.Map.Title,
		CenterLat:   s.config.Map.CenterLat,
		CenterLon:   s.config.Map.CenterLon,
		Zoom:        s.config.Map.Zoom,
		TileURL:     s.config.Map.TileURL,
		Attribution: s.config.Map.Attribution,
	})
	s.mux.Handle("/{$}", page)
	s.mux.Handle("/dashboard", page)
}
