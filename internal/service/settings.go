package service

import (
	"errors"
	"fmt"
	"strconv"
)

// Setting is one numeric parameter of the alert computation.
type Setting struct {
	Key   string  `json:"key" yaml:"key" mapstructure:"key"`
	Title string  `json:"title" yaml:"title" mapstructure:"title"`
	Value float64 `json:"value" yaml:"value" mapstructure:"value"`
	Min   float64 `json:"min" yaml:"min" mapstructure:"min"`
	Max   float64 `json:"max" yaml:"max" mapstructure:"max"`
}

// Settings is the ordered settings model. Keys double as backend query
// parameter names.
type Settings []Setting

// DefaultSettings returns the forecast parameters the backend defaults to.
func DefaultSettings() Settings {
	return Settings{
		{Key: "back", Title: "Days back", Value: 2, Min: 0, Max: 14},
		{Key: "forward", Title: "Days forward", Value: 7, Min: 1, Max: 16},
		{Key: "threshold", Title: "Alert threshold (days)", Value: 3, Min: 1, Max: 10},
	}
}

// Clone returns an independent copy.
func (s Settings) Clone() Settings {
	if s == nil {
		return nil
	}
	out := make(Settings, len(s))
	copy(out, s)
	return out
}

// Get returns the setting with the given key.
func (s Settings) Get(key string) (Setting, bool) {
	for _, st := range s {
		if st.Key == key {
			return st, true
		}
	}
	return Setting{}, false
}

// With returns a copy with key set to value. The range is not enforced so
// drafts can be invalid while being edited.
func (s Settings) With(key string, value float64) Settings {
	out := s.Clone()
	for i := range out {
		if out[i].Key == key {
			out[i].Value = value
		}
	}
	return out
}

// Equal reports deep equality, order included.
func (s Settings) Equal(other Settings) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Validate checks min <= value <= max for every setting and that keys are
// unique and non-empty.
func (s Settings) Validate() error {
	var errs []error
	seen := make(map[string]bool, len(s))
	for _, st := range s {
		if st.Key == "" {
			errs = append(errs, errors.New("setting key is required"))
			continue
		}
		if seen[st.Key] {
			errs = append(errs, fmt.Errorf("duplicate setting %q", st.Key))
		}
		seen[st.Key] = true
		if st.Min > st.Max {
			errs = append(errs, fmt.Errorf("setting %q: min %v > max %v", st.Key, st.Min, st.Max))
			continue
		}
		if st.Value < st.Min || st.Value > st.Max {
			errs = append(errs, fmt.Errorf("%s must be between %v and %v", st.Title, st.Min, st.Max))
		}
	}
	return errors.Join(errs...)
}

// QueryValues renders each setting as a query parameter. Whole numbers are
// printed without a fraction.
func (s Settings) QueryValues() map[string]string {
	out := make(map[string]string, len(s))
	for _, st := range s {
		out[st.Key] = FormatNumber(st.Value)
	}
	return out
}

// FormatNumber prints integral values without a decimal point.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
