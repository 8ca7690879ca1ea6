// Package devbackend is a stand-in for the vineyard backend: DuckDB-backed
// vineyard CRUD, GeoJSON map zones, synthetic alerts and filter search on
// the same HTTP surface the dashboard consumes.
package devbackend

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

// Backend serves the backend API.
type Backend struct {
	store *Store
	zones *Zones
	am    *Alertmaker
	log   *slog.Logger
}

// New creates the backend.
func New(store *Store, zones *Zones, am *Alertmaker) *Backend {
	return &Backend{store: store, zones: zones, am: am, log: slog.With("component", "devbackend")}
}

// ScopeInput selects the date and alert window of list endpoints.
type ScopeInput struct {
	WithAlerts bool    `query:"with_alerts" doc:"Annotate items with alerts_data"`
	Date       string  `query:"date" doc:"Day of interest, YYYY-MM-DD; today when empty" example:"2021-07-31"`
	Back       float64 `query:"back" minimum:"0" maximum:"92" default:"2" doc:"Days before the date"`
	Forward    float64 `query:"forward" minimum:"0" maximum:"16" default:"7" doc:"Days after the date"`
	Threshold  float64 `query:"threshold" minimum:"1" default:"3" doc:"Minimum run of days raising an alert"`
}

// Resolve validates the date and fills an AlertParams.
func (i *ScopeInput) Resolve(huma.Context) []error {
	if i.Date == "" {
		return nil
	}
	if _, err := time.Parse("2006-01-02", i.Date); err != nil {
		return []error{&huma.ErrorDetail{Location: "query.date", Message: "date must be YYYY-MM-DD", Value: i.Date}}
	}
	return nil
}

func (i *ScopeInput) params() AlertParams {
	day := time.Now().UTC().Truncate(24 * time.Hour)
	if i.Date != "" {
		day, _ = time.Parse("2006-01-02", i.Date)
	}
	return AlertParams{Date: day, Back: int(i.Back), Forward: int(i.Forward), Threshold: int(i.Threshold)}
}

type IDInput struct {
	ID int `path:"id" doc:"Vineyard id" example:"5"`
}

// VineyardItem is a vineyard, optionally annotated with alerts.
type VineyardItem struct {
	Vineyard
	Alerts *AlertData `json:"alerts_data,omitempty"`
}

type NewVineyard struct {
	Name string  `json:"name" minLength:"1" doc:"Display name" example:"Plot A"`
	Desc string  `json:"desc,omitempty" doc:"Free-form description"`
	Lat  float64 `json:"lat" minimum:"-90" maximum:"90" example:"45.1"`
	Lon  float64 `json:"lon" minimum:"-180" maximum:"180" example:"37.5"`
}

type HealthBody struct {
	Status string `json:"status" example:"OK"`
}

// FilterEntry is one filter value: a [low, high] pair for range filters,
// a list of ids for select filters.
type FilterEntry struct {
	Name  string `json:"name" example:"lat"`
	Value []any  `json:"value"`
}

type SuggestBody struct {
	Points  []VineyardItem `json:"points"`
	Filters map[string]any `json:"filters"`
}

func opID(id, tag string) func(*huma.Operation) {
	return func(o *huma.Operation) {
		o.OperationID = id
		o.Tags = []string{tag}
	}
}

// RegisterRoutes registers the backend routes.
func (b *Backend) RegisterRoutes(api huma.API) {
	huma.Get(api, "/health", b.Health, opID("health", "health"))

	huma.Get(api, "/vineyards", b.ListVineyards, opID("list-vineyards", "vineyards"))
	huma.Register(api, huma.Operation{
		OperationID:   "create-vineyard",
		Method:        http.MethodPost,
		Path:          "/vineyards",
		DefaultStatus: http.StatusCreated,
		Tags:          []string{"vineyards"},
	}, b.CreateVineyard)
	huma.Get(api, "/vineyards/{id}", b.GetVineyard, opID("get-vineyard", "vineyards"))
	huma.Delete(api, "/vineyards/{id}", b.DeleteVineyard, opID("delete-vineyard", "vineyards"))
	huma.Get(api, "/vineyards/{id}/alerts", b.GetAlerts, opID("get-vineyard-alerts", "vineyards"))

	huma.Get(api, "/map", b.ListZones, opID("list-zones", "map"))
	huma.Post(api, "/suggest", b.Suggest, opID("suggest", "map"))

	b.registerInspect(api)
}

func (b *Backend) Health(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "OK"}}, nil
}

func (b *Backend) ListVineyards(ctx context.Context, input *ScopeInput) (*struct{ Body []VineyardItem }, error) {
	vs, err := b.store.List(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list vineyards", err)
	}
	return &struct{ Body []VineyardItem }{Body: b.annotate(vs, input)}, nil
}

func (b *Backend) CreateVineyard(ctx context.Context, input *struct{ Body NewVineyard }) (*struct{ Body Vineyard }, error) {
	v, err := b.store.Add(ctx, Vineyard{
		Name: input.Body.Name,
		Desc: input.Body.Desc,
		Lat:  input.Body.Lat,
		Lon:  input.Body.Lon,
	})
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to add vineyard", err)
	}
	b.log.Info("vineyard added", "id", v.ID, "name", v.Name)
	return &struct{ Body Vineyard }{Body: v}, nil
}

func (b *Backend) GetVineyard(ctx context.Context, input *IDInput) (*struct{ Body Vineyard }, error) {
	v, err := b.get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &struct{ Body Vineyard }{Body: v}, nil
}

func (b *Backend) DeleteVineyard(ctx context.Context, input *IDInput) (*struct{}, error) {
	err := b.store.Delete(ctx, input.ID)
	if errors.Is(err, ErrNotFound) {
		return nil, huma.Error404NotFound("vineyard not found")
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to delete vineyard", err)
	}
	b.log.Info("vineyard deleted", "id", input.ID)
	return nil, nil
}

func (b *Backend) GetAlerts(ctx context.Context, input *struct {
	IDInput
	ScopeInput
}) (*struct{ Body AlertData }, error) {
	v, err := b.get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &struct{ Body AlertData }{Body: b.am.Alerts(v.Lat, v.Lon, input.params())}, nil
}

func (b *Backend) ListZones(ctx context.Context, input *ScopeInput) (*struct{ Body []Zone }, error) {
	var am *Alertmaker
	if input.WithAlerts {
		am = b.am
	}
	return &struct{ Body []Zone }{Body: b.zones.List(am, input.params())}, nil
}

// Suggest returns the vineyards passing every filter. Known filters are
// "lat" and "lon" ranges and a "zone" selection of zone ids; others are
// ignored. The zone holding the first match is returned as yard_id.
func (b *Backend) Suggest(ctx context.Context, input *struct {
	Body struct {
		Filters []FilterEntry `json:"filters"`
	}
}) (*struct{ Body SuggestBody }, error) {
	vs, err := b.store.List(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list vineyards", err)
	}

	match := make([]VineyardItem, 0, len(vs))
	for _, v := range vs {
		if b.passes(v, input.Body.Filters) {
			match = append(match, VineyardItem{Vineyard: v})
		}
	}

	filters := map[string]any{}
	for _, f := range input.Body.Filters {
		filters[f.Name] = f.Value
	}
	if len(match) > 0 {
		if id, ok := b.zones.Containing(match[0].Lat, match[0].Lon); ok {
			filters["yard_id"] = id
		}
	}
	return &struct{ Body SuggestBody }{Body: SuggestBody{Points: match, Filters: filters}}, nil
}

func (b *Backend) passes(v Vineyard, filters []FilterEntry) bool {
	for _, f := range filters {
		switch f.Name {
		case "lat":
			if lo, hi, ok := numberPair(f.Value); ok && (v.Lat < lo || v.Lat > hi) {
				return false
			}
		case "lon":
			if lo, hi, ok := numberPair(f.Value); ok && (v.Lon < lo || v.Lon > hi) {
				return false
			}
		case "zone":
			if len(f.Value) == 0 {
				continue
			}
			id, ok := b.zones.Containing(v.Lat, v.Lon)
			if !ok || !containsID(f.Value, id) {
				return false
			}
		}
	}
	return true
}

func (b *Backend) get(ctx context.Context, id int) (Vineyard, error) {
	v, err := b.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Vineyard{}, huma.Error404NotFound("vineyard not found")
	}
	if err != nil {
		return Vineyard{}, huma.Error500InternalServerError("Failed to get vineyard", err)
	}
	return v, nil
}

func (b *Backend) annotate(vs []Vineyard, scope *ScopeInput) []VineyardItem {
	out := make([]VineyardItem, len(vs))
	for i, v := range vs {
		out[i] = VineyardItem{Vineyard: v}
		if scope.WithAlerts {
			alerts := b.am.Alerts(v.Lat, v.Lon, scope.params())
			out[i].Alerts = &alerts
		}
	}
	return out
}

func numberPair(v []any) (lo, hi float64, ok bool) {
	if len(v) != 2 {
		return 0, 0, false
	}
	lo, ok1 := v[0].(float64)
	hi, ok2 := v[1].(float64)
	return lo, hi, ok1 && ok2
}

func containsID(ids []any, id string) bool {
	for _, v := range ids {
		if s, ok := v.(string); ok && s == id {
			return true
		}
	}
	return false
}
