package service

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Filter kinds.
const (
	FilterRange  = "range"
	FilterSelect = "select"
)

// MinRangeSpan is the smallest width a range filter interval may narrow to.
const MinRangeSpan = 0

// Interval is a range filter default.
type Interval struct {
	Start float64 `json:"start" yaml:"start" mapstructure:"start"`
	End   float64 `json:"end" yaml:"end" mapstructure:"end"`
}

// Option is one choice of a select filter.
type Option struct {
	ID    string `json:"id" yaml:"id" mapstructure:"id"`
	Label string `json:"label" yaml:"label" mapstructure:"label"`
}

// FilterDescriptor describes a range slider or a multi-select checklist.
type FilterDescriptor struct {
	Name  string `json:"name" yaml:"name" mapstructure:"name"`
	Label string `json:"label" yaml:"label" mapstructure:"label"`
	Type  string `json:"type" yaml:"type" mapstructure:"type"`

	// range
	DefaultStart Interval `json:"default_start,omitempty" yaml:"default_start,omitempty" mapstructure:"default_start"`
	Min          float64  `json:"min,omitempty" yaml:"min,omitempty" mapstructure:"min"`
	Max          float64  `json:"max,omitempty" yaml:"max,omitempty" mapstructure:"max"`
	Step         float64  `json:"step,omitempty" yaml:"step,omitempty" mapstructure:"step"`

	// select
	Default []string `json:"default,omitempty" yaml:"default,omitempty" mapstructure:"default"`
	Options []Option `json:"options,omitempty" yaml:"options,omitempty" mapstructure:"options"`
}

// Validate checks the descriptor is well formed.
func (d FilterDescriptor) Validate() error {
	if d.Name == "" {
		return errors.New("filter name is required")
	}
	switch d.Type {
	case FilterRange:
		if d.Min > d.Max {
			return fmt.Errorf("filter %q: min %v > max %v", d.Name, d.Min, d.Max)
		}
		if d.DefaultStart.Start > d.DefaultStart.End {
			return fmt.Errorf("filter %q: default start after end", d.Name)
		}
	case FilterSelect:
		for _, id := range d.Default {
			if !slices.ContainsFunc(d.Options, func(o Option) bool { return o.ID == id }) {
				return fmt.Errorf("filter %q: default %q is not an option", d.Name, id)
			}
		}
	default:
		return fmt.Errorf("filter %q: unknown type %q", d.Name, d.Type)
	}
	return nil
}

// DefaultValue returns the live value a fresh dialog starts from.
func (d FilterDescriptor) DefaultValue() FilterValue {
	v := FilterValue{Name: d.Name}
	switch d.Type {
	case FilterRange:
		v.Range = [2]float64{d.DefaultStart.Start, d.DefaultStart.End}
	case FilterSelect:
		v.Selected = slices.Clone(d.Default)
		if v.Selected == nil {
			v.Selected = []string{}
		}
	}
	return v
}

// FilterValue is the live value of one filter. Range is used by range
// filters, Selected by select filters.
type FilterValue struct {
	Name     string     `json:"name"`
	Range    [2]float64 `json:"range"`
	Selected []string   `json:"selected"`
}

// Clone returns an independent copy.
func (v FilterValue) Clone() FilterValue {
	v.Selected = slices.Clone(v.Selected)
	return v
}

// FilterValues is the ordered list of live filter values.
type FilterValues []FilterValue

// Clone returns an independent copy.
func (vs FilterValues) Clone() FilterValues {
	if vs == nil {
		return nil
	}
	out := make(FilterValues, len(vs))
	for i := range vs {
		out[i] = vs[i].Clone()
	}
	return out
}

// DefaultFilterValues returns the descriptors' defaults in order.
func DefaultFilterValues(descs []FilterDescriptor) FilterValues {
	out := make(FilterValues, len(descs))
	for i, d := range descs {
		out[i] = d.DefaultValue()
	}
	return out
}

// MoveThumb moves one endpoint of a range interval. thumb 0 is the lower
// endpoint, anything else the upper one. The value is clamped into
// [lo, hi] and the interval never inverts or narrows below minSpan.
func MoveThumb(interval [2]float64, thumb int, value, minSpan, lo, hi float64) [2]float64 {
	value = clamp(value, lo, hi)
	if thumb == 0 {
		return [2]float64{min(value, interval[1]-minSpan), interval[1]}
	}
	return [2]float64{interval[0], max(value, interval[0]+minSpan)}
}

// SetRange stages a whole interval, resolving an inverted pair by keeping
// whichever endpoint moved.
func (d FilterDescriptor) SetRange(current, next [2]float64) [2]float64 {
	out := current
	if next[0] != current[0] {
		out = MoveThumb(out, 0, next[0], MinRangeSpan, d.Min, d.Max)
	}
	if next[1] != current[1] {
		out = MoveThumb(out, 1, next[1], MinRangeSpan, d.Min, d.Max)
	}
	return out
}

// SelectLabels renders the selected option labels joined for display, in
// option order.
func (d FilterDescriptor) SelectLabels(selected []string) string {
	var labels []string
	for _, o := range d.Options {
		if slices.Contains(selected, o.ID) {
			labels = append(labels, o.Label)
		}
	}
	return strings.Join(labels, ", ")
}

// ToggleOption adds or removes id from the selected set.
func ToggleOption(selected []string, id string) []string {
	if i := slices.Index(selected, id); i >= 0 {
		return slices.Delete(slices.Clone(selected), i, i+1)
	}
	return append(slices.Clone(selected), id)
}

// FilterEntry is one element of a search payload.
type FilterEntry struct {
	Name  string `json:"name"`
	Value []any  `json:"value"`
}

// SearchPayload is the body sent to the backend search endpoint.
type SearchPayload struct {
	Filters []FilterEntry `json:"filters"`
}

// BuildSearchPayload serializes each filter's value according to its
// descriptor kind: an interval for ranges, the selected ids for selects.
func BuildSearchPayload(descs []FilterDescriptor, values FilterValues) SearchPayload {
	p := SearchPayload{Filters: make([]FilterEntry, 0, len(descs))}
	for i, d := range descs {
		v := d.DefaultValue()
		if i < len(values) {
			v = values[i]
		}
		entry := FilterEntry{Name: d.Name}
		switch d.Type {
		case FilterRange:
			entry.Value = []any{v.Range[0], v.Range[1]}
		default:
			entry.Value = make([]any, len(v.Selected))
			for j, id := range v.Selected {
				entry.Value[j] = id
			}
		}
		p.Filters = append(p.Filters, entry)
	}
	return p
}

func clamp(v, lo, hi float64) float64 {
	if lo > hi {
		return v
	}
	return max(lo, min(v, hi))
}
