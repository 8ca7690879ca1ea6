package devbackend

import (
	_ "embed"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

//go:embed fixtures/zones.geojson
var defaultZones []byte

// Geometry is a GeoJSON polygon.
type Geometry struct {
	Type        string      `json:"type" example:"Polygon"`
	Coordinates orb.Polygon `json:"coordinates" doc:"Rings of [lon, lat] positions"`
}

// Zone is a map polygon as served by /map.
type Zone struct {
	ID       string     `json:"id" example:"1"`
	Name     string     `json:"name,omitempty"`
	Geometry Geometry   `json:"geometry"`
	Alerts   *AlertData `json:"alerts_data,omitempty"`
}

type zone struct {
	id   string
	name string
	poly orb.Polygon
}

// Zones is a fixed set of polygons.
type Zones struct {
	zones []zone
}

// DefaultZones returns the built-in zone fixtures.
func DefaultZones() (*Zones, error) {
	return ParseZones(defaultZones)
}

// ParseZones reads a GeoJSON feature collection of polygons. Feature ids
// become zone ids; features without one are numbered.
func ParseZones(data []byte) (*Zones, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse zones: %w", err)
	}

	z := &Zones{}
	for i, f := range fc.Features {
		poly, ok := f.Geometry.(orb.Polygon)
		if !ok {
			return nil, fmt.Errorf("zone %d: geometry is %s, want Polygon", i, f.Geometry.GeoJSONType())
		}
		id := fmt.Sprint(i + 1)
		if f.ID != nil {
			id = fmt.Sprint(f.ID)
		}
		z.zones = append(z.zones, zone{id: id, name: f.Properties.MustString("name", ""), poly: poly})
	}
	return z, nil
}

// Len returns the number of zones.
func (z *Zones) Len() int { return len(z.zones) }

// Containing returns the id of the first zone containing the point.
func (z *Zones) Containing(lat, lon float64) (string, bool) {
	pt := orb.Point{lon, lat}
	for _, zn := range z.zones {
		if planar.PolygonContains(zn.poly, pt) {
			return zn.id, true
		}
	}
	return "", false
}

// List returns every zone. With am set, each zone is annotated with the
// alerts at its centroid.
func (z *Zones) List(am *Alertmaker, p AlertParams) []Zone {
	out := make([]Zone, 0, len(z.zones))
	for _, zn := range z.zones {
		item := Zone{
			ID:       zn.id,
			Name:     zn.name,
			Geometry: Geometry{Type: "Polygon", Coordinates: zn.poly},
		}
		if am != nil {
			c, _ := planar.CentroidArea(zn.poly)
			alerts := am.Alerts(c.Lat(), c.Lon(), p)
			item.Alerts = &alerts
		}
		out = append(out, item)
	}
	return out
}
