package devbackend

import (
	"math"
	"time"
)

// Disease holds the weather envelope in which a disease develops.
// Optimal conditions raise red alerts, onset conditions yellow ones.
type Disease struct {
	Name string

	TOptimal [2]float64
	HOptimal [2]float64
	TBegin   [2]float64
	HBegin   [2]float64
}

// Diseases are the grapevine diseases checked for every vineyard.
var Diseases = []Disease{
	{Name: "Mildew", TOptimal: [2]float64{18, 25}, HOptimal: [2]float64{85, 100}, TBegin: [2]float64{11, 30}, HBegin: [2]float64{70, 100}},
	{Name: "Oidium", TOptimal: [2]float64{22, 28}, HOptimal: [2]float64{60, 80}, TBegin: [2]float64{15, 32}, HBegin: [2]float64{40, 90}},
	{Name: "Grey rot", TOptimal: [2]float64{15, 22}, HOptimal: [2]float64{90, 100}, TBegin: [2]float64{10, 28}, HBegin: [2]float64{80, 100}},
}

// Alert types.
const (
	AlertRed    = "red"
	AlertYellow = "yellow"
)

// Alert colors used to tint annotated markers and zones.
var alertColors = map[string]string{
	AlertRed:    "#FF0000",
	AlertYellow: "#FFA500",
}

// Alert lists the days on which a disease is likely.
type Alert struct {
	Name string   `json:"name" doc:"Disease"`
	Type string   `json:"type" enum:"red,yellow" doc:"red for optimal conditions, yellow for onset conditions"`
	Dt   []string `json:"dt" doc:"Affected days"`
}

// Weather is one day of weather.
type Weather struct {
	Dt string  `json:"dt" doc:"Day" example:"2021-07-31"`
	T  float64 `json:"t" doc:"Median temperature, °C"`
	H  float64 `json:"h" doc:"Median relative humidity, %"`
}

// AlertData is the alert detail of one point.
type AlertData struct {
	Alerts  []Alert   `json:"alerts"`
	Weather []Weather `json:"weather"`
	Color   string    `json:"color,omitempty" doc:"Tint of the worst alert"`
}

// AlertParams scope an alert computation.
type AlertParams struct {
	Date      time.Time
	Back      int
	Forward   int
	Threshold int
}

// DefaultAlertParams are used for missing query parameters.
var DefaultAlertParams = AlertParams{Back: 2, Forward: 7, Threshold: 3}

// Alertmaker computes alerts from weather.
type Alertmaker struct {
	Diseases []Disease
	Weather  func(lat, lon float64, day time.Time) Weather
}

// NewAlertmaker uses the built-in diseases and synthetic weather.
func NewAlertmaker() *Alertmaker {
	return &Alertmaker{Diseases: Diseases, Weather: SyntheticWeather}
}

// Alerts returns the weather of the days around p.Date and the alerts it
// raises at the given point.
func (a *Alertmaker) Alerts(lat, lon float64, p AlertParams) AlertData {
	start := p.Date.AddDate(0, 0, -p.Back)
	days := p.Back + p.Forward + 1

	weather := make([]Weather, 0, days)
	for i := range days {
		weather = append(weather, a.Weather(lat, lon, start.AddDate(0, 0, i)))
	}

	data := AlertData{Alerts: []Alert{}, Weather: weather}
	for _, d := range a.Diseases {
		optimal := make([]bool, len(weather))
		onset := make([]bool, len(weather))
		for i, w := range weather {
			optimal[i] = within(w.T, d.TOptimal) && within(w.H, d.HOptimal)
			onset[i] = within(w.T, d.TBegin) && within(w.H, d.HBegin)
		}
		if dt := pickDays(weather, runMask(optimal, p.Threshold)); len(dt) > 0 {
			data.Alerts = append(data.Alerts, Alert{Name: d.Name, Type: AlertRed, Dt: dt})
		}
		if dt := pickDays(weather, runMask(onset, p.Threshold)); len(dt) > 0 {
			data.Alerts = append(data.Alerts, Alert{Name: d.Name, Type: AlertYellow, Dt: dt})
		}
	}
	data.Color = worstColor(data.Alerts)
	return data
}

// runMask keeps only the true runs at least threshold days long.
func runMask(days []bool, threshold int) []bool {
	mask := make([]bool, len(days))
	for i := 0; i < len(days); {
		j := i
		for j < len(days) && days[j] == days[i] {
			j++
		}
		if days[i] && j-i >= threshold {
			for k := i; k < j; k++ {
				mask[k] = true
			}
		}
		i = j
	}
	return mask
}

func pickDays(weather []Weather, mask []bool) []string {
	var out []string
	for i, ok := range mask {
		if ok {
			out = append(out, weather[i].Dt)
		}
	}
	return out
}

func worstColor(alerts []Alert) string {
	color := ""
	for _, a := range alerts {
		if a.Type == AlertRed {
			return alertColors[AlertRed]
		}
		color = alertColors[a.Type]
	}
	return color
}

// within is the open interval test.
func within(v float64, r [2]float64) bool {
	return r[0] < v && v < r[1]
}

// SyntheticWeather returns a deterministic daily median temperature and
// humidity: a seasonal curve plus a wobble that depends on the position.
func SyntheticWeather(lat, lon float64, day time.Time) Weather {
	doy := float64(day.YearDay())
	season := math.Sin(2 * math.Pi * (doy - 105) / 365)

	t := 13 + 11*season + 3*math.Sin(doy*0.7+lat) - (lat-45)*1.5
	h := 72 - 8*season + 18*math.Sin(doy*0.45+lon*3)
	h = math.Max(0, math.Min(100, h))

	return Weather{
		Dt: day.Format("2006-01-02"),
		T:  math.Round(t*10) / 10,
		H:  math.Round(h*10) / 10,
	}
}
