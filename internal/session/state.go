// Package session is the dashboard's view-controller state machine.
//
// State is a value. Every operation is a pure function taking the current
// State and returning the next State plus the effects (backend calls) to
// perform. Effect results come back as messages and are folded in with
// [Receive]. Nothing in this package performs I/O.
package session

import (
	"time"

	"github.com/joeblew999/plat-vine/internal/service"
)

// DateLayout is the ISO calendar date format used for the selected date.
const DateLayout = "2006-01-02"

// FetchPolicy decides what happens to list responses that arrive after a
// newer request for the same list was issued.
type FetchPolicy string

const (
	// PolicyLatest drops responses older than the newest issued request.
	PolicyLatest FetchPolicy = "latest"
	// PolicyLastWriteWins applies every response in arrival order.
	PolicyLastWriteWins FetchPolicy = "last-write-wins"
)

// Capabilities select which dashboard variant is active.
type Capabilities struct {
	// HasZoneClick makes polygons clickable.
	HasZoneClick bool `json:"hasZoneClick" yaml:"zone_click" mapstructure:"zone_click"`
	// HasFilters enables the filter dialog and backend search.
	HasFilters bool `json:"hasFilters" yaml:"filters" mapstructure:"filters"`
	// HasAlerts requests alert-annotated lists; without it the popup
	// fetches alert detail lazily per place.
	HasAlerts bool `json:"hasAlerts" yaml:"alerts" mapstructure:"alerts"`
}

// Options seed a new session.
type Options struct {
	Caps          Capabilities
	Policy        FetchPolicy
	Date          string
	Settings      service.Settings
	Filters       []service.FilterDescriptor
	PromptDefault string
}

// ModalKind identifies the open modal dialog, if any.
type ModalKind string

const (
	ModalNone          ModalKind = ""
	ModalNamePrompt    ModalKind = "name-prompt"
	ModalConfirmDelete ModalKind = "confirm-delete"
)

// Modal is a prompt or confirmation awaiting the user's answer.
type Modal struct {
	Kind    ModalKind          `json:"kind"`
	Default string             `json:"default,omitempty"`
	Coord   service.Coordinate `json:"coord"`
	PlaceID string             `json:"placeId,omitempty"`
}

// Popup is the detail popup. IsPlace discriminates between a place subject
// (deletable, lazily enriched) and a zone subject (read-only).
type Popup struct {
	Open      bool           `json:"open"`
	IsPlace   bool           `json:"isPlace"`
	SubjectID string         `json:"subjectId,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Loading   bool           `json:"loading"`
}

// CanDelete reports whether the delete action is enabled.
func (p Popup) CanDelete() bool {
	return p.Open && p.IsPlace
}

// Sequences are the request tokens of the latest issued fetches.
type Sequences struct {
	Places uint64 `json:"places"`
	Zones  uint64 `json:"zones"`
	Alerts uint64 `json:"alerts"`
}

// State is the whole session. Treat it as immutable: transitions replace
// slices and maps instead of writing into them.
type State struct {
	Caps          Capabilities `json:"caps"`
	Policy        FetchPolicy  `json:"policy"`
	PromptDefault string       `json:"-"`

	Date   string          `json:"date"`
	Places []service.Place `json:"places"`
	Zones  []service.Zone  `json:"zones"`

	Settings      service.Settings `json:"settings"`
	SettingsOpen  bool             `json:"settingsOpen"`
	SettingsDraft service.Settings `json:"settingsDraft,omitempty"`
	SettingsError string           `json:"settingsError,omitempty"`

	FilterDescs  []service.FilterDescriptor `json:"filterDescs,omitempty"`
	Filters      service.FilterValues       `json:"filters,omitempty"`
	FiltersOpen  bool                       `json:"filtersOpen"`
	FiltersDraft service.FilterValues       `json:"filtersDraft,omitempty"`
	HighlightID  string                     `json:"highlightId,omitempty"`

	SelectedID   string `json:"selectedId,omitempty"`
	Popup        Popup  `json:"popup"`
	Modal        Modal  `json:"modal"`
	ZonesVisible bool   `json:"zonesVisible"`

	PendingWrites int    `json:"pendingWrites"`
	Loading       bool   `json:"loading"`
	Notice        string `json:"notice,omitempty"`

	Seq Sequences `json:"seq"`
}

// New builds the initial state: map idle, every dialog closed, not loading.
func New(opts Options) State {
	policy := opts.Policy
	if policy == "" {
		policy = PolicyLatest
	}
	settings := opts.Settings.Clone()
	if settings == nil {
		settings = service.DefaultSettings()
	}
	return State{
		Caps:          opts.Caps,
		Policy:        policy,
		PromptDefault: opts.PromptDefault,
		Date:          opts.Date,
		Places:        []service.Place{},
		Zones:         []service.Zone{},
		Settings:      settings,
		FilterDescs:   append([]service.FilterDescriptor(nil), opts.Filters...),
	}
}

// MapIdle reports that no popup, dialog or modal is open.
func (s State) MapIdle() bool {
	return !s.Popup.Open && !s.SettingsOpen && !s.FiltersOpen && s.Modal.Kind == ModalNone
}

// FindPlace looks a place up by id in the current list.
func (s State) FindPlace(id string) (service.Place, bool) {
	for _, p := range s.Places {
		if p.ID == id {
			return p, true
		}
	}
	return service.Place{}, false
}

// FindZone looks a zone up by id in the current list.
func (s State) FindZone(id string) (service.Zone, bool) {
	for _, z := range s.Zones {
		if z.ID == id {
			return z, true
		}
	}
	return service.Zone{}, false
}

// ValidDate reports whether d is an ISO calendar date.
func ValidDate(d string) bool {
	_, err := time.Parse(DateLayout, d)
	return err == nil
}
