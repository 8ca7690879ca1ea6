// Package api defines the JSON API routes and handlers.
package api

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-vine/internal/controller"
	"github.com/joeblew999/plat-vine/internal/dashboard"
	"github.com/joeblew999/plat-vine/internal/humastar"
	"github.com/joeblew999/plat-vine/internal/session"
)

// Types

type IDInput struct {
	ID string `path:"id" doc:"Session ID" example:"6f1c2a8e-4b7d-4f5e-9a61-0d3c7b2e9f10"`
}

type ListInput struct {
	Offset int `query:"offset" minimum:"0" default:"0" doc:"Items to skip"`
	Limit  int `query:"limit" minimum:"1" maximum:"100" default:"20" doc:"Page size"`
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"0.1.0"`
}

// SessionSummary is the list view of a dashboard session.
type SessionSummary struct {
	ID           string    `json:"id" doc:"Session ID"`
	Date         string    `json:"date" doc:"Selected date" example:"2021-07-31"`
	Places       int       `json:"places" doc:"Number of loaded places"`
	Zones        int       `json:"zones" doc:"Number of loaded zones"`
	ZonesVisible bool      `json:"zones_visible" doc:"Whether zones are drawn"`
	PopupOpen    bool      `json:"popup_open" doc:"Whether the detail popup is open"`
	Loading      bool      `json:"loading" doc:"Whether a write is in flight"`
	Revision     uint64    `json:"revision" doc:"State revision"`
	LastSeen     time.Time `json:"last_seen" doc:"Time of the last gesture"`
}

// SessionBody is the full state of one session. Its popup actions become
// Link headers.
type SessionBody struct {
	ID       string        `json:"id" doc:"Session ID"`
	Revision uint64        `json:"revision" doc:"State revision"`
	State    session.State `json:"state" doc:"Session state"`
}

// Actions implements humastar.Actor.
func (b SessionBody) Actions() []humastar.Action {
	return dashboard.PopupActions(b.State.Popup)
}

// APIHandler holds the JSON API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	store   *controller.Store
	version string
}

func NewAPIHandler(store *controller.Store, version string) *APIHandler {
	return &APIHandler{store: store, version: version}
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

// RegisterSessions registers the read-only session inspection routes.
func (h *APIHandler) RegisterSessions(api huma.API) {
	huma.Get(api, "/api/v1/sessions", h.ListSessions, huma.OperationTags("sessions"))
	huma.Get(api, "/api/v1/sessions/{id}", h.GetSession, huma.OperationTags("sessions"))
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: h.version}}, nil
}

func (h *APIHandler) ListSessions(ctx context.Context, input *ListInput) (*struct {
	Body humastar.PageBody[SessionSummary]
}, error) {
	page := humastar.Paginate(h.store.List(), input.Offset, input.Limit, summarize)
	return &struct {
		Body humastar.PageBody[SessionSummary]
	}{Body: page}, nil
}

func (h *APIHandler) GetSession(ctx context.Context, input *IDInput) (*struct{ Body SessionBody }, error) {
	c, ok := h.store.Get(input.ID)
	if !ok {
		return nil, huma.Error404NotFound("session not found")
	}
	s, rev := c.Snapshot()
	return &struct{ Body SessionBody }{Body: SessionBody{ID: c.ID(), Revision: rev, State: s}}, nil
}

func summarize(c *controller.Controller) SessionSummary {
	s, rev := c.Snapshot()
	return SessionSummary{
		ID:           c.ID(),
		Date:         s.Date,
		Places:       len(s.Places),
		Zones:        len(s.Zones),
		ZonesVisible: s.ZonesVisible,
		PopupOpen:    s.Popup.Open,
		Loading:      s.Loading,
		Revision:     rev,
		LastSeen:     c.LastSeen(),
	}
}
