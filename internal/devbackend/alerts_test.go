package devbackend

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMask(t *testing.T) {
	days := []bool{true, true, false, true, true, true, false, true}
	assert.Equal(t,
		[]bool{false, false, false, true, true, true, false, false},
		runMask(days, 3))
	assert.Equal(t,
		[]bool{true, true, false, true, true, true, false, true},
		runMask(days, 1))
	assert.Equal(t, []bool{}, runMask([]bool{}, 3))
}

func TestAlertsRaisedOnLongRuns(t *testing.T) {
	day := time.Date(2021, 7, 31, 0, 0, 0, 0, time.UTC)
	am := &Alertmaker{
		Diseases: []Disease{{
			Name:     "Mildew",
			TOptimal: [2]float64{18, 25}, HOptimal: [2]float64{85, 100},
			TBegin: [2]float64{10, 30}, HBegin: [2]float64{70, 100},
		}},
		// Humid days from Aug 1 to Aug 4, dry otherwise.
		Weather: func(lat, lon float64, d time.Time) Weather {
			w := Weather{Dt: d.Format("2006-01-02"), T: 21, H: 50}
			if !d.Before(day.AddDate(0, 0, 1)) && !d.After(day.AddDate(0, 0, 4)) {
				w.H = 90
			}
			return w
		},
	}

	data := am.Alerts(45.1, 37.5, AlertParams{Date: day, Back: 2, Forward: 7, Threshold: 3})
	require.Len(t, data.Weather, 10)
	assert.Equal(t, "2021-07-29", data.Weather[0].Dt)
	assert.Equal(t, "2021-08-07", data.Weather[9].Dt)

	require.Len(t, data.Alerts, 2)
	want := []string{"2021-08-01", "2021-08-02", "2021-08-03", "2021-08-04"}
	assert.Equal(t, Alert{Name: "Mildew", Type: AlertRed, Dt: want}, data.Alerts[0])
	assert.Equal(t, Alert{Name: "Mildew", Type: AlertYellow, Dt: want}, data.Alerts[1])
	assert.Equal(t, "#FF0000", data.Color)

	data = am.Alerts(45.1, 37.5, AlertParams{Date: day, Back: 2, Forward: 7, Threshold: 5})
	assert.Empty(t, data.Alerts)
	assert.Empty(t, data.Color)
}

func TestWorstColor(t *testing.T) {
	assert.Equal(t, "", worstColor(nil))
	assert.Equal(t, "#FFA500", worstColor([]Alert{{Type: AlertYellow}}))
	assert.Equal(t, "#FF0000", worstColor([]Alert{{Type: AlertYellow}, {Type: AlertRed}}))
}

func TestSyntheticWeather(t *testing.T) {
	day := time.Date(2021, 7, 31, 0, 0, 0, 0, time.UTC)
	a := SyntheticWeather(45.1, 37.5, day)
	b := SyntheticWeather(45.1, 37.5, day)
	assert.Equal(t, a, b)
	assert.Equal(t, "2021-07-31", a.Dt)

	for i := range 365 {
		w := SyntheticWeather(44.8, 37.4, day.AddDate(0, 0, i))
		assert.GreaterOrEqual(t, w.H, 0.0)
		assert.LessOrEqual(t, w.H, 100.0)
		assert.Greater(t, w.T, -20.0)
		assert.Less(t, w.T, 45.0)
	}
}

func TestWithinIsOpen(t *testing.T) {
	assert.True(t, within(20, [2]float64{18, 25}))
	assert.False(t, within(18, [2]float64{18, 25}))
	assert.False(t, within(25, [2]float64{18, 25}))
}
