package session

import (
	"github.com/joeblew999/plat-vine/internal/gateway"
	"github.com/joeblew999/plat-vine/internal/service"
)

// Effect is a backend call requested by a transition.
type Effect interface{ effect() }

// FetchPlaces lists places.
type FetchPlaces struct {
	Seq    uint64
	Params gateway.ListParams
}

// FetchZones lists map zones.
type FetchZones struct {
	Seq    uint64
	Params gateway.ListParams
}

// CreatePlace adds a place.
type CreatePlace struct {
	Name string
	Lat  float64
	Lon  float64
}

// DeletePlace removes a place.
type DeletePlace struct {
	ID string
}

// FetchPlaceAlerts loads the alert detail shown in the popup.
type FetchPlaceAlerts struct {
	Seq     uint64
	PlaceID string
	Date    string
}

// Search runs a filter search whose result replaces the places list.
type Search struct {
	Seq     uint64
	Payload service.SearchPayload
}

func (FetchPlaces) effect()      {}
func (FetchZones) effect()       {}
func (CreatePlace) effect()      {}
func (DeletePlace) effect()      {}
func (FetchPlaceAlerts) effect() {}
func (Search) effect()           {}

// Msg is the result of an effect.
type Msg interface{ msg() }

// PlacesLoaded answers FetchPlaces.
type PlacesLoaded struct {
	Seq    uint64
	Places []service.Place
	Err    error
}

// ZonesLoaded answers FetchZones.
type ZonesLoaded struct {
	Seq   uint64
	Zones []service.Zone
	Err   error
}

// PlaceCreated answers CreatePlace.
type PlaceCreated struct {
	Place service.Place
	Err   error
}

// PlaceDeleted answers DeletePlace.
type PlaceDeleted struct {
	ID  string
	Err error
}

// PlaceAlertsLoaded answers FetchPlaceAlerts.
type PlaceAlertsLoaded struct {
	Seq     uint64
	PlaceID string
	Alerts  service.AlertSummary
	Err     error
}

// SearchCompleted answers Search.
type SearchCompleted struct {
	Seq    uint64
	Result service.SearchResult
	Err    error
}

func (PlacesLoaded) msg()      {}
func (ZonesLoaded) msg()       {}
func (PlaceCreated) msg()      {}
func (PlaceDeleted) msg()      {}
func (PlaceAlertsLoaded) msg() {}
func (SearchCompleted) msg()   {}
