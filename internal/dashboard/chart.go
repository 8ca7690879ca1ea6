package dashboard

import (
	"strconv"
	"strings"
)

// Chart is a small static line chart drawn as inline SVG.
type Chart struct {
	Title  string
	Width  int
	Height int
	Labels []ChartLabel
	Series []ChartSeries
}

// ChartLabel is an x-axis label at a pixel offset.
type ChartLabel struct {
	X    float64
	Text string
}

// ChartSeries is one polyline.
type ChartSeries struct {
	Name   string
	Color  string
	Points string
}

// RiskChart returns the illustrative two-series chart shown in the popup.
// Its data is fixed; it does not depend on the subject.
func RiskChart() Chart {
	labels := []string{"May", "June", "July"}
	series := []seriesData{
		{"Mildew", "#3333ff", []float64{12, 31, 47}},
		{"Oidium", "#ff3333", []float64{4, 9, 16}},
	}
	return buildChart("Seasonal risk index", 320, 120, labels, series)
}

type seriesData struct {
	name, color string
	values      []float64
}

func buildChart(title string, w, h int, labels []string, series []seriesData) Chart {
	const pad = 10.0
	c := Chart{Title: title, Width: w, Height: h}

	var maxV float64
	for _, s := range series {
		for _, v := range s.values {
			maxV = max(maxV, v)
		}
	}
	if maxV == 0 {
		maxV = 1
	}
	step := (float64(w) - 2*pad) / float64(max(len(labels)-1, 1))
	for i, l := range labels {
		c.Labels = append(c.Labels, ChartLabel{X: pad + float64(i)*step, Text: l})
	}

	plotH := float64(h) - 2*pad
	for _, s := range series {
		pts := make([]string, len(s.values))
		for i, v := range s.values {
			x := pad + float64(i)*step
			y := pad + plotH - v/maxV*plotH
			pts[i] = strconv.FormatFloat(x, 'f', 1, 64) + "," + strconv.FormatFloat(y, 'f', 1, 64)
		}
		c.Series = append(c.Series, ChartSeries{Name: s.name, Color: s.color, Points: strings.Join(pts, " ")})
	}
	return c
}
