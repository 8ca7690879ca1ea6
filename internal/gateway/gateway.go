// Package gateway is the client of the vineyard backend: vineyard CRUD,
// map zones, alert lookups and filter search.
package gateway

import (
	"context"

	"github.com/joeblew999/plat-vine/internal/service"
)

// Gateway is the backend surface the view controller depends on. Every call
// is a single request/response without retries.
type Gateway interface {
	ListPlaces(ctx context.Context, p ListParams) ([]service.Place, error)
	ListZones(ctx context.Context, p ListParams) ([]service.Zone, error)
	CreatePlace(ctx context.Context, name string, lat, lon float64) (service.Place, error)
	DeletePlace(ctx context.Context, id string) error
	GetPlaceAlerts(ctx context.Context, id, date string) (service.AlertSummary, error)
	Search(ctx context.Context, payload service.SearchPayload) (service.SearchResult, error)
}

// ListParams scopes the place and zone listings. The zero value requests
// plain, unannotated lists.
type ListParams struct {
	WithAlerts bool              `url:"with_alerts,omitempty,int"`
	Date       string            `url:"date,omitempty"`
	Settings   map[string]string `url:"-"`
}

// NewListParams builds the list scope for a date and settings.
func NewListParams(date string, settings service.Settings, withAlerts bool) ListParams {
	return ListParams{
		WithAlerts: withAlerts,
		Date:       date,
		Settings:   settings.QueryValues(),
	}
}
