package devbackend

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultZones(t *testing.T) {
	z, err := DefaultZones()
	require.NoError(t, err)
	assert.Equal(t, 4, z.Len())

	for _, v := range sampleVineyards {
		_, ok := z.Containing(v.Lat, v.Lon)
		assert.True(t, ok, v.Name)
	}
	id, ok := z.Containing(44.80, 37.42)
	require.True(t, ok)
	assert.Equal(t, "1", id)

	_, ok = z.Containing(50, 50)
	assert.False(t, ok)
}

func TestZonesList(t *testing.T) {
	z, err := DefaultZones()
	require.NoError(t, err)

	plain := z.List(nil, AlertParams{})
	require.Len(t, plain, 4)
	assert.Equal(t, "1", plain[0].ID)
	assert.Equal(t, "Sukko valley", plain[0].Name)
	assert.Equal(t, "Polygon", plain[0].Geometry.Type)
	require.Len(t, plain[0].Geometry.Coordinates, 1)
	assert.Len(t, plain[0].Geometry.Coordinates[0], 5)
	assert.Nil(t, plain[0].Alerts)

	day := time.Date(2021, 7, 31, 0, 0, 0, 0, time.UTC)
	annotated := z.List(NewAlertmaker(), AlertParams{Date: day, Back: 2, Forward: 7, Threshold: 3})
	require.NotNil(t, annotated[0].Alerts)
	assert.Len(t, annotated[0].Alerts.Weather, 10)
}

func TestParseZones(t *testing.T) {
	z, err := ParseZones([]byte(`{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{},"geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1],[0,0]]]}}
	]}`))
	require.NoError(t, err)
	id, ok := z.Containing(0.5, 0.5)
	require.True(t, ok)
	assert.Equal(t, "1", id)

	_, err = ParseZones([]byte(`{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{},"geometry":{"type":"Point","coordinates":[0,0]}}
	]}`))
	assert.ErrorContains(t, err, "want Polygon")

	_, err = ParseZones([]byte(`not json`))
	assert.Error(t, err)
}
