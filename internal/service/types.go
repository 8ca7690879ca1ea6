// Package service contains the domain model of the vineyard dashboard:
// places, zones, alert summaries, the settings model and the filter model.
package service

import (
	"encoding/json"
	"sort"
)

// Place is a user-managed vineyard marker.
// Places are never edited in place; the list is refetched after every write.
type Place struct {
	ID     string       `json:"id" doc:"Vineyard identifier" example:"5"`
	Name   string       `json:"name" required:"true" minLength:"1" doc:"Display name" example:"Plot A"`
	Desc   string       `json:"desc,omitempty" doc:"Free-form description"`
	Lat    float64      `json:"lat" doc:"Latitude" example:"46.8"`
	Lon    float64      `json:"lon" doc:"Longitude" example:"39.7"`
	Alerts AlertSummary `json:"alerts_data,omitempty" doc:"Backend-computed alert summary"`
}

// UnmarshalJSON accepts numeric ids from the backend and stores them as strings.
func (p *Place) UnmarshalJSON(data []byte) error {
	type plain Place
	var raw struct {
		plain
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Place(raw.plain)
	p.ID = rawID(raw.ID)
	return nil
}

// Fields returns the locally held identity fields of the place, the base
// onto which fetched alert details are merged.
func (p Place) Fields() map[string]any {
	m := map[string]any{
		"id":   p.ID,
		"name": p.Name,
		"lat":  p.Lat,
		"lon":  p.Lon,
	}
	if p.Desc != "" {
		m["desc"] = p.Desc
	}
	if len(p.Alerts) > 0 {
		m["alerts_data"] = p.Alerts.Clone()
	}
	return m
}

// Coordinate is a map position.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Geometry holds polygon rings as [lon, lat] pairs.
type Geometry struct {
	Coordinates [][][2]float64 `json:"coordinates"`
}

// Zone is a backend-managed polygon with optional alert data.
type Zone struct {
	ID       string       `json:"id"`
	Geometry Geometry     `json:"geometry"`
	Alerts   AlertSummary `json:"alerts_data,omitempty"`
}

// UnmarshalJSON accepts numeric ids from the backend and stores them as strings.
func (z *Zone) UnmarshalJSON(data []byte) error {
	type plain Zone
	var raw struct {
		plain
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*z = Zone(raw.plain)
	z.ID = rawID(raw.ID)
	return nil
}

// Fields returns what the popup shows for a zone.
func (z Zone) Fields() map[string]any {
	m := map[string]any{"id": z.ID}
	if len(z.Alerts) > 0 {
		m["alerts_data"] = z.Alerts.Clone()
	}
	return m
}

// AlertSummary is an opaque backend risk annotation. Only the color is
// interpreted; every other field is displayed verbatim.
type AlertSummary map[string]any

// Color returns the tint for the annotated marker or polygon, looked up at
// "color" and then at "alerts.color". Empty if neither is a string.
func (a AlertSummary) Color() string {
	if c, ok := a["color"].(string); ok {
		return c
	}
	if nested, ok := a["alerts"].(map[string]any); ok {
		if c, ok := nested["color"].(string); ok {
			return c
		}
	}
	return ""
}

// Clone returns a deep copy of the summary.
func (a AlertSummary) Clone() AlertSummary {
	if a == nil {
		return nil
	}
	return AlertSummary(cloneMap(a))
}

// SearchResult is the backend answer to a filter search.
type SearchResult struct {
	Points  []Place        `json:"points"`
	Filters map[string]any `json:"filters"`
}

// HighlightID returns the zone id the search asks the map to highlight.
func (r SearchResult) HighlightID() string {
	for _, key := range []string{"yard_id", "id"} {
		if v, ok := r.Filters[key]; ok {
			return anyID(v)
		}
	}
	return ""
}

// SortedKeys returns the keys of m in lexical order.
func SortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func rawID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	return anyID(v)
}

func anyID(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		b, _ := json.Marshal(id)
		return string(b)
	case json.Number:
		return id.String()
	case nil:
		return ""
	default:
		b, _ := json.Marshal(id)
		return string(b)
	}
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case AlertSummary:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	default:
		return v
	}
}
