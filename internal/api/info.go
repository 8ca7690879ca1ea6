package api

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-vine/internal/controller"
	"github.com/joeblew999/plat-vine/internal/session"
)

// BackendProbe reports whether the vineyard backend answers.
type BackendProbe interface {
	Health(ctx context.Context) error
	BaseURL() string
}

type InfoHandler struct {
	name    string
	version string
	backend BackendProbe
	store   *controller.Store
	caps    session.Capabilities
}

func NewInfoHandler(name, version string, backend BackendProbe, store *controller.Store, caps session.Capabilities) *InfoHandler {
	return &InfoHandler{name: name, version: version, backend: backend, store: store, caps: caps}
}

func (h *InfoHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

type InfoBody struct {
	Name         string   `json:"name" doc:"Service name"`
	Version      string   `json:"version" doc:"Service version"`
	Backend      string   `json:"backend" doc:"Backend base URL"`
	BackendOK    bool     `json:"backend_ok" doc:"Whether the backend health probe succeeded"`
	BackendError string   `json:"backend_error,omitempty" doc:"Probe failure"`
	Sessions     int      `json:"sessions" doc:"Live dashboard sessions"`
	Features     []string `json:"features" doc:"Enabled dashboard capabilities"`
}

func (h *InfoHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	body := InfoBody{
		Name:     h.name,
		Version:  h.version,
		Backend:  h.backend.BaseURL(),
		Sessions: h.store.Len(),
		Features: features(h.caps),
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := h.backend.Health(ctx); err != nil {
		body.BackendError = err.Error()
	} else {
		body.BackendOK = true
	}
	return &struct{ Body InfoBody }{Body: body}, nil
}

func features(c session.Capabilities) []string {
	f := []string{"places", "zones", "settings"}
	if c.HasZoneClick {
		f = append(f, "zone-click")
	}
	if c.HasFilters {
		f = append(f, "filters")
	}
	if c.HasAlerts {
		f = append(f, "alerts")
	}
	return f
}
