package dashboard

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-vine/internal/service"
	"github.com/joeblew999/plat-vine/internal/session"
)

// Zone styling.
const (
	ZoneFill      = "#00FF00"
	HighlightFill = "#FFFF00"
	ZoneStroke    = "#013210"
)

// MapData is what the map widget draws: places as points, zones as
// polygons, and the bounds to fit when zones change.
func MapData(s session.State) map[string]any {
	m := map[string]any{
		"places":    PlaceFeatures(s.Places, s.SelectedID),
		"zones":     ZoneFeatures(s.Zones, s.HighlightID),
		"highlight": s.HighlightID,
		"selected":  s.SelectedID,
		"bounds":    nil,
	}
	if b, ok := ZoneBounds(s.Zones); ok {
		m["bounds"] = [2][2]float64{
			{b.Min.Lat(), b.Min.Lon()},
			{b.Max.Lat(), b.Max.Lon()},
		}
	}
	return m
}

// PlaceFeatures renders places as point features tinted by their alert color.
func PlaceFeatures(places []service.Place, selected string) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, p := range places {
		f := geojson.NewFeature(orb.Point{p.Lon, p.Lat})
		f.ID = p.ID
		f.Properties["id"] = p.ID
		f.Properties["name"] = p.Name
		f.Properties["selected"] = p.ID == selected
		if c := p.Alerts.Color(); c != "" {
			f.Properties["color"] = c
		}
		fc.Append(f)
	}
	return fc
}

// ZoneFeatures renders zones as polygon features. The highlighted zone is
// filled yellow; the others use their alert color or green.
func ZoneFeatures(zones []service.Zone, highlight string) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, z := range zones {
		f := geojson.NewFeature(zonePolygon(z.Geometry))
		f.ID = z.ID
		f.Properties["id"] = z.ID
		f.Properties["fill"] = zoneFill(z, highlight)
		f.Properties["stroke"] = ZoneStroke
		fc.Append(f)
	}
	return fc
}

func zoneFill(z service.Zone, highlight string) string {
	if highlight != "" && z.ID == highlight {
		return HighlightFill
	}
	if c := z.Alerts.Color(); c != "" {
		return c
	}
	return ZoneFill
}

// zonePolygon converts [lon, lat] rings to an orb polygon.
func zonePolygon(g service.Geometry) orb.Polygon {
	poly := make(orb.Polygon, 0, len(g.Coordinates))
	for _, ring := range g.Coordinates {
		r := make(orb.Ring, len(ring))
		for i, c := range ring {
			r[i] = orb.Point{c[0], c[1]}
		}
		poly = append(poly, r)
	}
	return poly
}

// ZoneBounds returns the bounding box of every zone ring.
func ZoneBounds(zones []service.Zone) (orb.Bound, bool) {
	var (
		bound orb.Bound
		found bool
	)
	for _, z := range zones {
		poly := zonePolygon(z.Geometry)
		if len(poly) == 0 || len(poly[0]) == 0 {
			continue
		}
		b := poly.Bound()
		if !found {
			bound, found = b, true
			continue
		}
		bound = bound.Union(b)
	}
	return bound, found
}
