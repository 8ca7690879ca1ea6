// Package dashboard serves the map dashboard: the page, the long-lived
// Datastar stream that mirrors a session's state, and one endpoint per
// user gesture.
package dashboard

import (
	"context"
	"html/template"
	"log/slog"
	"maps"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-vine/internal/controller"
	"github.com/joeblew999/plat-vine/internal/humastar"
	"github.com/joeblew999/plat-vine/internal/metrics"
	"github.com/joeblew999/plat-vine/internal/service"
	"github.com/joeblew999/plat-vine/internal/session"
	"github.com/joeblew999/plat-vine/internal/templates"
)

// SessionCookie carries the dashboard session id.
const SessionCookie = "vine_session"

// SessionInput identifies the browser session.
type SessionInput struct {
	Session string `cookie:"vine_session" doc:"Dashboard session id"`
}

// SignalsInput carries the Datastar signals of a gesture.
type SignalsInput struct {
	SessionInput
	humastar.SignalsInput
}

type IDInput struct {
	SessionInput
	ID string `path:"id" doc:"Place or zone id" example:"5"`
}

type CoordInput struct {
	SessionInput
	Lat float64 `query:"lat" minimum:"-90" maximum:"90" doc:"Latitude"`
	Lon float64 `query:"lon" minimum:"-180" maximum:"180" doc:"Longitude"`
}

type SettingInput struct {
	SessionInput
	Key   string  `path:"key" doc:"Setting key" example:"back"`
	Value float64 `query:"value" doc:"New value"`
}

type ThumbInput struct {
	SessionInput
	Index int     `path:"index" minimum:"0" doc:"Filter position"`
	Thumb int     `path:"thumb" enum:"0,1" doc:"0 for the lower endpoint, 1 for the upper"`
	Value float64 `query:"value" doc:"New endpoint value"`
}

type ToggleInput struct {
	SessionInput
	Index  int    `path:"index" minimum:"0" doc:"Filter position"`
	Option string `path:"option" doc:"Option id"`
}

// Handler serves the dashboard gesture endpoints.
type Handler struct {
	humastar.Handler
	store *controller.Store
}

// NewHandler creates the dashboard handler.
func NewHandler(store *controller.Store, renderer *templates.Renderer) *Handler {
	return &Handler{
		Handler: humastar.Handler{Renderer: renderer},
		store:   store,
	}
}

func opID(id string) func(*huma.Operation) {
	return func(o *huma.Operation) {
		o.OperationID = id
		o.Tags = []string{"dashboard"}
	}
}

func (h *Handler) RegisterRoutes(api huma.API) {
	huma.Get(api, BasePath+"/stream", h.Events, opID("dashboard-stream"))
	huma.Post(api, BasePath+"/reload", h.Reload, opID("dashboard-reload"))
	huma.Post(api, BasePath+"/date", h.SelectDate, opID("dashboard-date"))

	huma.Post(api, BasePath+"/map/click", h.ClickMap, opID("dashboard-map-click"))
	huma.Post(api, BasePath+"/prompt", h.SubmitPrompt, opID("dashboard-prompt"))
	huma.Post(api, BasePath+"/prompt/cancel", h.CancelPrompt, opID("dashboard-prompt-cancel"))

	huma.Post(api, BasePath+"/places/{id}/select", h.SelectPlace, opID("dashboard-place-select"))
	huma.Post(api, BasePath+"/places/{id}/delete", h.RequestDelete, opID("dashboard-place-delete"))
	huma.Post(api, BasePath+"/confirm", h.Confirm, opID("dashboard-confirm"))
	huma.Post(api, BasePath+"/confirm/cancel", h.CancelConfirm, opID("dashboard-confirm-cancel"))
	huma.Post(api, BasePath+"/zones/{id}/select", h.SelectZone, opID("dashboard-zone-select"))
	huma.Post(api, BasePath+"/zones/toggle", h.ToggleZones, opID("dashboard-zones-toggle"))
	huma.Post(api, BasePath+"/popup/close", h.ClosePopup, opID("dashboard-popup-close"))
	huma.Post(api, BasePath+"/notice/dismiss", h.DismissNotice, opID("dashboard-notice-dismiss"))

	huma.Post(api, BasePath+"/settings/open", h.OpenSettings, opID("dashboard-settings-open"))
	huma.Post(api, BasePath+"/settings/commit", h.CommitSettings, opID("dashboard-settings-commit"))
	huma.Post(api, BasePath+"/settings/cancel", h.CancelSettings, opID("dashboard-settings-cancel"))
	huma.Post(api, BasePath+"/settings/{key}", h.EditSetting, opID("dashboard-settings-edit"))

	huma.Post(api, BasePath+"/filters/open", h.OpenFilters, opID("dashboard-filters-open"))
	huma.Post(api, BasePath+"/filters/commit", h.CommitFilters, opID("dashboard-filters-commit"))
	huma.Post(api, BasePath+"/filters/cancel", h.CancelFilters, opID("dashboard-filters-cancel"))
	huma.Post(api, BasePath+"/filters/{index}/thumb/{thumb}", h.MoveThumb, opID("dashboard-filters-thumb"))
	huma.Post(api, BasePath+"/filters/{index}/toggle/{option}", h.ToggleOption, opID("dashboard-filters-toggle"))
}

// Events streams the session's view every time its state changes.
func (h *Handler) Events(ctx context.Context, input *SessionInput) (*huma.StreamResponse, error) {
	c, ok := h.store.Get(input.Session)
	if !ok {
		return nil, huma.Error404NotFound("session not found")
	}
	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			sse := humastar.NewSSE(humaCtx)
			bus := h.store.Bus()
			ch := bus.Subscribe(c.ID())
			defer bus.Unsubscribe(ch)
			// The idle clock starts when the page goes away.
			defer c.Touch()

			metrics.ActiveStreams.Inc()
			defer metrics.ActiveStreams.Dec()

			var sent uint64
			send := func() error {
				s, rev := c.Snapshot()
				if sent != 0 && rev == sent {
					return nil
				}
				sent = rev
				return h.render(sse, s, Signals(s))
			}

			if err := send(); err != nil {
				return
			}
			done := humaCtx.Context().Done()
			for {
				select {
				case <-done:
					return
				case _, ok := <-ch:
					if !ok {
						return
					}
					if err := send(); err != nil {
						return
					}
				}
			}
		},
	}, nil
}

func (h *Handler) Reload(ctx context.Context, input *SessionInput) (*huma.StreamResponse, error) {
	return h.gesture(input.Session, (*controller.Controller).Reload)
}

func (h *Handler) SelectDate(ctx context.Context, input *SignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	date := signals.String("date")
	if !session.ValidDate(date) {
		return nil, huma.Error422UnprocessableEntity("date must be YYYY-MM-DD")
	}
	return h.gesture(input.Session, func(c *controller.Controller) { c.SelectDate(date) })
}

func (h *Handler) ClickMap(ctx context.Context, input *CoordInput) (*huma.StreamResponse, error) {
	coord := service.Coordinate{Lat: input.Lat, Lon: input.Lon}
	var opened bool
	open := func(c *controller.Controller) {
		before, _ := c.Snapshot()
		c.ClickMap(coord)
		after, _ := c.Snapshot()
		opened = before.Modal.Kind != session.ModalNamePrompt && after.Modal.Kind == session.ModalNamePrompt
	}
	// Only the response that opens the prompt seeds its input; later renders
	// must not overwrite what the user is typing.
	return h.gestureWith(input.Session, open, func(s session.State) map[string]any {
		sig := Signals(s)
		if opened {
			maps.Copy(sig, PromptSignals(s))
		}
		return sig
	})
}

func (h *Handler) SubmitPrompt(ctx context.Context, input *SignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	name := signals.String("promptName")
	return h.gesture(input.Session, func(c *controller.Controller) { c.ResolvePrompt(name, true) })
}

func (h *Handler) CancelPrompt(ctx context.Context, input *SessionInput) (*huma.StreamResponse, error) {
	return h.gesture(input.Session, func(c *controller.Controller) { c.ResolvePrompt("", false) })
}

func (h *Handler) SelectPlace(ctx context.Context, input *IDInput) (*huma.StreamResponse, error) {
	return h.gesture(input.Session, func(c *controller.Controller) { c.SelectPlace(input.ID) })
}

func (h *Handler) SelectZone(ctx context.Context, input *IDInput) (*huma.StreamResponse, error) {
	return h.gesture(input.Session, func(c *controller.Controller) { c.SelectZone(input.ID) })
}

func (h *Handler) RequestDelete(ctx context.Context, input *IDInput) (*huma.StreamResponse, error) {
	return h.gesture(input.Session, func(c *controller.Controller) { c.RequestDelete(input.ID) })
}

func (h *Handler) Confirm(ctx context.Context, input *SessionInput) (*huma.StreamResponse, error) {
	return h.gesture(input.Session, func(c *controller.Controller) { c.ResolveConfirm(true) })
}

func (h *Handler) CancelConfirm(ctx context.Context, input *SessionInput) (*huma.StreamResponse, error) {
	return h.gesture(input.Session, func(c *controller.Controller) { c.ResolveConfirm(false) })
}

func (h *Handler) ToggleZones(ctx context.Context, input *SessionInput) (*huma.StreamResponse, error) {
	return h.gesture(input.Session, (*controller.Controller).ToggleZonesVisible)
}

func (h *Handler) ClosePopup(ctx context.Context, input *SessionInput) (*huma.StreamResponse, error) {
	return h.gesture(input.Session, (*controller.Controller).ClosePopup)
}

func (h *Handler) DismissNotice(ctx context.Context, input *SessionInput) (*huma.StreamResponse, error) {
	return h.gesture(input.Session, (*controller.Controller).DismissNotice)
}

func (h *Handler) OpenSettings(ctx context.Context, input *SessionInput) (*huma.StreamResponse, error) {
	return h.gesture(input.Session, (*controller.Controller).OpenSettings)
}

func (h *Handler) EditSetting(ctx context.Context, input *SettingInput) (*huma.StreamResponse, error) {
	return h.gesture(input.Session, func(c *controller.Controller) { c.EditSetting(input.Key, input.Value) })
}

func (h *Handler) CommitSettings(ctx context.Context, input *SessionInput) (*huma.StreamResponse, error) {
	return h.gesture(input.Session, (*controller.Controller).CommitSettingsDraft)
}

func (h *Handler) CancelSettings(ctx context.Context, input *SessionInput) (*huma.StreamResponse, error) {
	return h.gesture(input.Session, func(c *controller.Controller) { c.CommitSettings(nil) })
}

func (h *Handler) OpenFilters(ctx context.Context, input *SessionInput) (*huma.StreamResponse, error) {
	return h.gesture(input.Session, (*controller.Controller).OpenFilters)
}

func (h *Handler) MoveThumb(ctx context.Context, input *ThumbInput) (*huma.StreamResponse, error) {
	return h.gesture(input.Session, func(c *controller.Controller) {
		c.MoveFilterThumb(input.Index, input.Thumb, input.Value)
	})
}

func (h *Handler) ToggleOption(ctx context.Context, input *ToggleInput) (*huma.StreamResponse, error) {
	return h.gesture(input.Session, func(c *controller.Controller) {
		c.ToggleFilterOption(input.Index, input.Option)
	})
}

func (h *Handler) CommitFilters(ctx context.Context, input *SessionInput) (*huma.StreamResponse, error) {
	return h.gesture(input.Session, (*controller.Controller).CommitFilterDraft)
}

func (h *Handler) CancelFilters(ctx context.Context, input *SessionInput) (*huma.StreamResponse, error) {
	return h.gesture(input.Session, func(c *controller.Controller) { c.CommitFilters(nil) })
}

// gesture applies fn to the session and answers with the resulting view.
// Backend results arrive later over the event stream.
func (h *Handler) gesture(id string, fn func(*controller.Controller)) (*huma.StreamResponse, error) {
	return h.gestureWith(id, fn, Signals)
}

func (h *Handler) gestureWith(id string, fn func(*controller.Controller), signals func(session.State) map[string]any) (*huma.StreamResponse, error) {
	c, ok := h.store.Get(id)
	if !ok {
		return nil, huma.Error404NotFound("session not found")
	}
	fn(c)
	return h.Stream(func(sse humastar.SSE) {
		s, _ := c.Snapshot()
		if err := h.render(sse, s, signals(s)); err != nil {
			slog.Error("render dashboard", "session", id, "error", err)
			sse.Error("Could not render the dashboard")
		}
	}), nil
}

// render pushes the whole view: signals first, then every fragment.
func (h *Handler) render(sse humastar.SSE, s session.State, signals map[string]any) error {
	if err := sse.Signals(signals); err != nil {
		return err
	}

	popup := popupView(s)
	popup.FieldsHTML = template.HTML(h.RenderList("popup-field", popup.Fields, "No data", "Nothing is known about this subject yet."))

	fragments := []struct {
		tmpl, selector string
		data           any
	}{
		{"popup", "#popup", popup},
		{"modal", "#modal", modalView(s)},
		{"dialog", "#settings", settingsView(s)},
		{"dialog", "#filters", filtersView(s)},
		{"notice", "#notice", s.Notice},
	}
	for _, f := range fragments {
		html, err := h.Renderer.Render(f.tmpl, f.data)
		if err != nil {
			return err
		}
		if err := sse.Patch(html, f.selector); err != nil {
			return err
		}
	}
	return nil
}
