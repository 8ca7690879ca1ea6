// Package controller runs one dashboard session: it serializes user
// gestures through the session state machine, executes the resulting
// backend calls and announces every state change on the event bus.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/joeblew999/plat-vine/internal/gateway"
	"github.com/joeblew999/plat-vine/internal/metrics"
	"github.com/joeblew999/plat-vine/internal/service"
	"github.com/joeblew999/plat-vine/internal/session"
)

// DefaultTimeout bounds a single backend call.
const DefaultTimeout = 10 * time.Second

// Controller owns the state of one session.
type Controller struct {
	id      string
	gw      gateway.Gateway
	bus     *service.EventBus
	timeout time.Duration
	log     *slog.Logger

	mu       sync.Mutex
	state    session.State
	rev      uint64
	lastSeen time.Time

	wg sync.WaitGroup
}

// New creates a controller. Call Start to issue the initial fetch.
func New(id string, gw gateway.Gateway, bus *service.EventBus, opts session.Options, timeout time.Duration) *Controller {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Controller{
		id:       id,
		gw:       gw,
		bus:      bus,
		timeout:  timeout,
		log:      slog.With("component", "controller", "session", id),
		state:    session.New(opts),
		lastSeen: time.Now(),
	}
}

// ID returns the session id.
func (c *Controller) ID() string { return c.id }

// Snapshot returns the current state and its revision.
func (c *Controller) Snapshot() (session.State, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.rev
}

// LastSeen is the time of the last gesture.
func (c *Controller) LastSeen() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSeen
}

// Touch marks the session as used now.
func (c *Controller) Touch() {
	c.mu.Lock()
	c.lastSeen = time.Now()
	c.mu.Unlock()
}

// Wait blocks until every in-flight backend call has been folded in.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Start loads places and zones for the initial date and settings.
func (c *Controller) Start() {
	c.apply("init", session.Reload)
}

// Reload refetches places and zones.
func (c *Controller) Reload() {
	c.apply("reload", session.Reload)
}

func (c *Controller) SelectDate(date string) {
	c.apply("date", func(s session.State) (session.State, []session.Effect) {
		return session.SelectDate(s, date)
	})
}

func (c *Controller) ClickMap(coord service.Coordinate) {
	c.apply("map-click", func(s session.State) (session.State, []session.Effect) {
		return session.ClickMap(s, coord)
	})
}

func (c *Controller) ResolvePrompt(name string, ok bool) {
	c.apply("prompt", func(s session.State) (session.State, []session.Effect) {
		return session.ResolvePrompt(s, name, ok)
	})
}

// SelectPlace opens the popup on a place of the current list. Unknown ids
// are ignored.
func (c *Controller) SelectPlace(id string) {
	c.apply("place-select", func(s session.State) (session.State, []session.Effect) {
		p, ok := s.FindPlace(id)
		if !ok {
			return s, nil
		}
		return session.SelectPlace(s, p)
	})
}

// SelectZone opens the popup on a zone of the current list.
func (c *Controller) SelectZone(id string) {
	c.apply("zone-select", func(s session.State) (session.State, []session.Effect) {
		z, ok := s.FindZone(id)
		if !ok {
			return s, nil
		}
		return session.SelectZone(s, z)
	})
}

func (c *Controller) ClosePopup() {
	c.apply("popup-close", func(s session.State) (session.State, []session.Effect) {
		return session.ClosePopup(s)
	})
}

func (c *Controller) RequestDelete(id string) {
	c.apply("delete-request", func(s session.State) (session.State, []session.Effect) {
		return session.RequestDelete(s, id)
	})
}

func (c *Controller) ResolveConfirm(ok bool) {
	c.apply("delete-confirm", func(s session.State) (session.State, []session.Effect) {
		return session.ResolveConfirm(s, ok)
	})
}

func (c *Controller) ToggleZonesVisible() {
	c.apply("zones-toggle", session.ToggleZonesVisible)
}

func (c *Controller) OpenSettings() {
	c.apply("settings-open", session.OpenSettings)
}

func (c *Controller) EditSetting(key string, value float64) {
	c.apply("settings-edit", func(s session.State) (session.State, []session.Effect) {
		return session.EditSetting(s, key, value)
	})
}

// CommitSettings commits a draft; nil cancels.
func (c *Controller) CommitSettings(draft service.Settings) {
	c.apply("settings-commit", func(s session.State) (session.State, []session.Effect) {
		return session.CommitSettings(s, draft)
	})
}

func (c *Controller) OpenFilters() {
	c.apply("filters-open", session.OpenFilters)
}

func (c *Controller) MoveFilterThumb(index, thumb int, value float64) {
	c.apply("filters-thumb", func(s session.State) (session.State, []session.Effect) {
		return session.MoveFilterThumb(s, index, thumb, value)
	})
}

func (c *Controller) ToggleFilterOption(index int, id string) {
	c.apply("filters-toggle", func(s session.State) (session.State, []session.Effect) {
		return session.ToggleFilterOption(s, index, id)
	})
}

// CommitFilters commits a draft; nil cancels.
func (c *Controller) CommitFilters(draft service.FilterValues) {
	c.apply("filters-commit", func(s session.State) (session.State, []session.Effect) {
		return session.CommitFilters(s, draft)
	})
}

// CommitFilterDraft commits the draft staged through MoveFilterThumb and
// ToggleFilterOption.
func (c *Controller) CommitFilterDraft() {
	c.apply("filters-commit", func(s session.State) (session.State, []session.Effect) {
		if !s.FiltersOpen {
			return s, nil
		}
		return session.CommitFilters(s, s.FiltersDraft)
	})
}

// CommitSettingsDraft commits the draft staged through EditSetting.
func (c *Controller) CommitSettingsDraft() {
	c.apply("settings-commit", func(s session.State) (session.State, []session.Effect) {
		if !s.SettingsOpen {
			return s, nil
		}
		return session.CommitSettings(s, s.SettingsDraft)
	})
}

func (c *Controller) DismissNotice() {
	c.apply("notice-dismiss", session.DismissNotice)
}

// apply runs a transition under the lock, publishes the change and starts
// its effects.
func (c *Controller) apply(reason string, fn func(session.State) (session.State, []session.Effect)) {
	c.mu.Lock()
	next, effects := fn(c.state)
	c.state = next
	c.rev++
	rev := c.rev
	c.lastSeen = time.Now()
	c.wg.Add(len(effects))
	c.mu.Unlock()

	c.publish(rev, reason)
	for _, e := range effects {
		go c.run(e)
	}
}

func (c *Controller) receive(m session.Msg) {
	c.mu.Lock()
	if session.Stale(c.state, m) {
		c.mu.Unlock()
		metrics.StaleResponses.WithLabelValues(msgKind(m)).Inc()
		c.log.Debug("dropped stale response", "kind", msgKind(m))
		return
	}
	next, effects := session.Receive(c.state, m)
	c.state = next
	c.rev++
	rev := c.rev
	c.wg.Add(len(effects))
	c.mu.Unlock()

	c.publish(rev, msgKind(m))
	for _, e := range effects {
		go c.run(e)
	}
}

func (c *Controller) publish(rev uint64, reason string) {
	if c.bus == nil {
		return
	}
	c.bus.Publish(service.Event{Session: c.id, Revision: rev, Reason: reason})
}

func (c *Controller) run(e session.Effect) {
	defer c.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	m := c.perform(ctx, e)
	if err := msgErr(m); err != nil {
		c.log.Warn("backend call failed", "kind", msgKind(m), "error", err)
	}
	c.receive(m)
}

func (c *Controller) perform(ctx context.Context, e session.Effect) session.Msg {
	switch e := e.(type) {
	case session.FetchPlaces:
		places, err := c.gw.ListPlaces(ctx, e.Params)
		return session.PlacesLoaded{Seq: e.Seq, Places: places, Err: err}
	case session.FetchZones:
		zones, err := c.gw.ListZones(ctx, e.Params)
		return session.ZonesLoaded{Seq: e.Seq, Zones: zones, Err: err}
	case session.CreatePlace:
		p, err := c.gw.CreatePlace(ctx, e.Name, e.Lat, e.Lon)
		return session.PlaceCreated{Place: p, Err: err}
	case session.DeletePlace:
		err := c.gw.DeletePlace(ctx, e.ID)
		return session.PlaceDeleted{ID: e.ID, Err: err}
	case session.FetchPlaceAlerts:
		alerts, err := c.gw.GetPlaceAlerts(ctx, e.PlaceID, e.Date)
		return session.PlaceAlertsLoaded{Seq: e.Seq, PlaceID: e.PlaceID, Alerts: alerts, Err: err}
	case session.Search:
		res, err := c.gw.Search(ctx, e.Payload)
		return session.SearchCompleted{Seq: e.Seq, Result: res, Err: err}
	}
	panic(fmt.Sprintf("controller: unknown effect %T", e))
}

func msgKind(m session.Msg) string {
	switch m.(type) {
	case session.PlacesLoaded:
		return "places"
	case session.ZonesLoaded:
		return "zones"
	case session.PlaceCreated:
		return "create"
	case session.PlaceDeleted:
		return "delete"
	case session.PlaceAlertsLoaded:
		return "alerts"
	case session.SearchCompleted:
		return "search"
	}
	return "unknown"
}

func msgErr(m session.Msg) error {
	switch m := m.(type) {
	case session.PlacesLoaded:
		return m.Err
	case session.ZonesLoaded:
		return m.Err
	case session.PlaceCreated:
		return m.Err
	case session.PlaceDeleted:
		return m.Err
	case session.PlaceAlertsLoaded:
		return m.Err
	case session.SearchCompleted:
		return m.Err
	}
	return errors.New("unknown message")
}
