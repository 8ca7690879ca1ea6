package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoveThumb(t *testing.T) {
	tests := []struct {
		name     string
		interval [2]float64
		thumb    int
		value    float64
		want     [2]float64
	}{
		{"lower past upper clamps", [2]float64{10, 20}, 0, 25, [2]float64{20, 20}},
		{"upper below lower clamps", [2]float64{10, 20}, 1, 5, [2]float64{10, 10}},
		{"lower within range", [2]float64{10, 20}, 0, 12, [2]float64{12, 20}},
		{"upper beyond max", [2]float64{10, 20}, 1, 500, [2]float64{10, 100}},
		{"lower below min", [2]float64{10, 20}, 0, -5, [2]float64{0, 20}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MoveThumb(tt.interval, tt.thumb, tt.value, MinRangeSpan, 0, 100)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, got[0], got[1])
		})
	}
}

func TestMoveThumb_MinSpan(t *testing.T) {
	got := MoveThumb([2]float64{10, 20}, 0, 19, 5, 0, 100)
	assert.Equal(t, [2]float64{15, 20}, got)
}

func TestSetRange(t *testing.T) {
	d := FilterDescriptor{Name: "area", Type: FilterRange, Min: 0, Max: 100}

	assert.Equal(t, [2]float64{20, 20}, d.SetRange([2]float64{10, 20}, [2]float64{25, 20}))
	assert.Equal(t, [2]float64{5, 30}, d.SetRange([2]float64{10, 20}, [2]float64{5, 30}))
}

func TestSelectLabels(t *testing.T) {
	d := FilterDescriptor{Name: "grape", Type: FilterSelect, Options: []Option{
		{ID: "m", Label: "Merlot"}, {ID: "r", Label: "Riesling"}, {ID: "c", Label: "Cabernet"},
	}}

	assert.Equal(t, "Merlot, Cabernet", d.SelectLabels([]string{"c", "m"}))
	assert.Equal(t, "", d.SelectLabels(nil))
}

func TestToggleOption(t *testing.T) {
	selected := []string{"a", "b"}

	removed := ToggleOption(selected, "a")
	added := ToggleOption(selected, "c")

	assert.Equal(t, []string{"b"}, removed)
	assert.Equal(t, []string{"a", "b", "c"}, added)
	assert.Equal(t, []string{"a", "b"}, selected)
}

func TestFilterDescriptor_Validate(t *testing.T) {
	assert.NoError(t, FilterDescriptor{Name: "a", Type: FilterRange, Min: 0, Max: 1}.Validate())
	assert.Error(t, FilterDescriptor{Name: "a", Type: FilterRange, Min: 2, Max: 1}.Validate())
	assert.Error(t, FilterDescriptor{Name: "a", Type: "slider"}.Validate())
	assert.Error(t, FilterDescriptor{Type: FilterRange}.Validate())
	assert.Error(t, FilterDescriptor{Name: "g", Type: FilterSelect, Default: []string{"x"}}.Validate())
}

func TestBuildSearchPayload(t *testing.T) {
	descs := []FilterDescriptor{
		{Name: "area", Type: FilterRange, DefaultStart: Interval{Start: 1, End: 5}},
		{Name: "grape", Type: FilterSelect, Default: []string{"m"}, Options: []Option{{ID: "m"}}},
	}

	p := BuildSearchPayload(descs, FilterValues{{Name: "area", Range: [2]float64{2, 3}}})

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"filters":[{"name":"area","value":[2,3]},{"name":"grape","value":["m"]}]}`, string(data))
}

func TestSettings(t *testing.T) {
	s := DefaultSettings()
	require.NoError(t, s.Validate())
	assert.Equal(t, map[string]string{"back": "2", "forward": "7", "threshold": "3"}, s.QueryValues())

	edited := s.With("forward", 2.5)
	assert.False(t, s.Equal(edited))
	assert.True(t, edited.Equal(edited.Clone()))
	assert.Equal(t, "2.5", edited.QueryValues()["forward"])

	assert.Error(t, s.With("threshold", 0).Validate())
	assert.Error(t, append(s.Clone(), Setting{Key: "back"}).Validate())
}

func TestPlace_UnmarshalNumericID(t *testing.T) {
	var p Place
	require.NoError(t, json.Unmarshal([]byte(`{"id":5,"name":"Plot A","lat":46.8,"lon":39.7,"alerts_data":{"color":"#ff0000"}}`), &p))

	assert.Equal(t, "5", p.ID)
	assert.Equal(t, "Plot A", p.Name)
	assert.Equal(t, "#ff0000", p.Alerts.Color())
	assert.Equal(t, map[string]any{
		"id": "5", "name": "Plot A", "lat": 46.8, "lon": 39.7,
		"alerts_data": AlertSummary{"color": "#ff0000"},
	}, p.Fields())
}

func TestZone_Unmarshal(t *testing.T) {
	var z Zone
	require.NoError(t, json.Unmarshal([]byte(`{"id":"z1","geometry":{"coordinates":[[[37.5,45.1],[37.6,45.1],[37.6,45.2],[37.5,45.1]]]},"alerts_data":{"alerts":{"color":"#00ff00"}}}`), &z))

	assert.Equal(t, "z1", z.ID)
	require.Len(t, z.Geometry.Coordinates, 1)
	assert.Len(t, z.Geometry.Coordinates[0], 4)
	assert.Equal(t, "#00ff00", z.Alerts.Color())
}

func TestAlertSummary_CloneIsDeep(t *testing.T) {
	a := AlertSummary{"alerts": map[string]any{"color": "red"}, "list": []any{1.0}}

	c := a.Clone()
	c["alerts"].(map[string]any)["color"] = "blue"
	c["list"].([]any)[0] = 2.0

	assert.Equal(t, "red", a.Color())
	assert.Equal(t, 1.0, a["list"].([]any)[0])
	assert.Nil(t, AlertSummary(nil).Clone())
}

func TestSearchResult_HighlightID(t *testing.T) {
	assert.Equal(t, "12", SearchResult{Filters: map[string]any{"yard_id": 12.0}}.HighlightID())
	assert.Equal(t, "z3", SearchResult{Filters: map[string]any{"id": "z3"}}.HighlightID())
	assert.Equal(t, "", SearchResult{}.HighlightID())
}

func TestEventBus(t *testing.T) {
	bus := NewEventBus()
	mine := bus.Subscribe("s1")
	all := bus.Subscribe("")
	assert.Equal(t, 2, bus.Subscribers())
	assert.True(t, bus.Watching("s1"))
	assert.False(t, bus.Watching("s2"))

	bus.Publish(Event{Session: "s2", Revision: 1})
	bus.Publish(Event{Session: "s1", Revision: 2, Reason: "date"})

	select {
	case e := <-mine:
		assert.Equal(t, uint64(2), e.Revision)
	case <-time.After(time.Second):
		t.Fatal("no event for s1")
	}
	assert.Len(t, all, 2)

	bus.Unsubscribe(mine)
	assert.False(t, bus.Watching("s1"))
	bus.Unsubscribe(all)
	assert.Zero(t, bus.Subscribers())
}
