package session

import (
	"strings"

	"github.com/joeblew999/plat-vine/internal/gateway"
	"github.com/joeblew999/plat-vine/internal/service"
)

// Init returns the initial state and the first places and zones fetch.
func Init(opts Options) (State, []Effect) {
	return Reload(New(opts))
}

// Reload refetches places and zones for the current date and settings.
func Reload(s State) (State, []Effect) {
	return refetchAll(s)
}

// SelectDate sets the selected date and refetches places and zones for it.
// An open popup stays open. Malformed dates are ignored.
func SelectDate(s State, date string) (State, []Effect) {
	if !ValidDate(date) {
		return s, nil
	}
	s.Date = date
	return refetchAll(s)
}

// ClickMap opens the name prompt for a new place at coord.
func ClickMap(s State, coord service.Coordinate) (State, []Effect) {
	if s.Modal.Kind != ModalNone || s.SettingsOpen || s.FiltersOpen {
		return s, nil
	}
	s.Modal = Modal{Kind: ModalNamePrompt, Default: s.PromptDefault, Coord: coord}
	return s, nil
}

// ResolvePrompt answers the name prompt. A cancelled prompt or a blank name
// aborts silently; otherwise the place is created at the clicked position.
func ResolvePrompt(s State, name string, ok bool) (State, []Effect) {
	if s.Modal.Kind != ModalNamePrompt {
		return s, nil
	}
	coord := s.Modal.Coord
	s.Modal = Modal{}

	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return s, nil
	}
	s = beginWrite(s)
	return s, []Effect{CreatePlace{Name: name, Lat: coord.Lat, Lon: coord.Lon}}
}

// SelectPlace opens the popup on a place. Without list-provided alerts the
// alert detail for the selected date is fetched now and merged on arrival.
func SelectPlace(s State, place service.Place) (State, []Effect) {
	s.SelectedID = place.ID
	s.Popup = Popup{
		Open:      true,
		IsPlace:   true,
		SubjectID: place.ID,
		Data:      place.Fields(),
	}
	if s.Caps.HasAlerts {
		return s, nil
	}
	s.Seq.Alerts++
	s.Popup.Loading = true
	return s, []Effect{FetchPlaceAlerts{Seq: s.Seq.Alerts, PlaceID: place.ID, Date: s.Date}}
}

// SelectZone opens the popup on a zone's precomputed alert summary. Zones
// cannot be deleted, and no request is made.
func SelectZone(s State, zone service.Zone) (State, []Effect) {
	if !s.Caps.HasZoneClick {
		return s, nil
	}
	s.SelectedID = zone.ID
	s.Popup = Popup{
		Open:      true,
		IsPlace:   false,
		SubjectID: zone.ID,
		Data:      zone.Fields(),
	}
	return s, nil
}

// ClosePopup closes the detail popup.
func ClosePopup(s State) (State, []Effect) {
	s.Popup = Popup{}
	s.SelectedID = ""
	return s, nil
}

// RequestDelete asks the user to confirm deleting a place.
func RequestDelete(s State, id string) (State, []Effect) {
	if id == "" || s.Modal.Kind != ModalNone {
		return s, nil
	}
	if s.Popup.Open && !s.Popup.IsPlace && s.Popup.SubjectID == id {
		return s, nil
	}
	s.Modal = Modal{Kind: ModalConfirmDelete, PlaceID: id}
	return s, nil
}

// ResolveConfirm answers the delete confirmation. On confirmation the popup
// closes immediately, before the backend answers.
func ResolveConfirm(s State, ok bool) (State, []Effect) {
	if s.Modal.Kind != ModalConfirmDelete {
		return s, nil
	}
	id := s.Modal.PlaceID
	s.Modal = Modal{}
	if !ok {
		return s, nil
	}
	s.Popup = Popup{}
	s.SelectedID = ""
	s = beginWrite(s)
	return s, []Effect{DeletePlace{ID: id}}
}

// ToggleZonesVisible shows or hides the zone polygons.
func ToggleZonesVisible(s State) (State, []Effect) {
	s.ZonesVisible = !s.ZonesVisible
	return s, nil
}

// OpenSettings opens the settings dialog on a copy of the settings.
func OpenSettings(s State) (State, []Effect) {
	s.SettingsOpen = true
	s.SettingsDraft = s.Settings.Clone()
	s.SettingsError = ""
	return s, nil
}

// EditSetting stages a value in the settings draft. The draft may leave
// its range while being edited.
func EditSetting(s State, key string, value float64) (State, []Effect) {
	if !s.SettingsOpen {
		return s, nil
	}
	s.SettingsDraft = s.SettingsDraft.With(key, value)
	return s, nil
}

// CommitSettings closes the settings dialog. A nil draft cancels. A valid
// draft replaces the settings and refetches places and zones; an invalid
// one keeps the dialog open with the validation error.
func CommitSettings(s State, draft service.Settings) (State, []Effect) {
	if draft == nil {
		s.SettingsOpen = false
		s.SettingsDraft = nil
		s.SettingsError = ""
		return s, nil
	}
	if err := validateDraft(s.Settings, draft); err != nil {
		s.SettingsOpen = true
		s.SettingsDraft = draft.Clone()
		s.SettingsError = err.Error()
		return s, nil
	}
	s.Settings = draft.Clone()
	s.SettingsOpen = false
	s.SettingsDraft = nil
	s.SettingsError = ""
	return refetchAll(s)
}

// OpenFilters opens the filter dialog on the current values, or on the
// descriptor defaults before the first search.
func OpenFilters(s State) (State, []Effect) {
	if !s.Caps.HasFilters {
		return s, nil
	}
	s.FiltersOpen = true
	if len(s.Filters) > 0 {
		s.FiltersDraft = s.Filters.Clone()
	} else {
		s.FiltersDraft = service.DefaultFilterValues(s.FilterDescs)
	}
	return s, nil
}

// MoveFilterThumb drags one endpoint of a range filter in the draft.
func MoveFilterThumb(s State, index, thumb int, value float64) (State, []Effect) {
	if !s.FiltersOpen || index < 0 || index >= len(s.FiltersDraft) || index >= len(s.FilterDescs) {
		return s, nil
	}
	d := s.FilterDescs[index]
	if d.Type != service.FilterRange {
		return s, nil
	}
	draft := s.FiltersDraft.Clone()
	draft[index].Range = service.MoveThumb(draft[index].Range, thumb, value, service.MinRangeSpan, d.Min, d.Max)
	s.FiltersDraft = draft
	return s, nil
}

// ToggleFilterOption flips one option of a select filter in the draft.
func ToggleFilterOption(s State, index int, id string) (State, []Effect) {
	if !s.FiltersOpen || index < 0 || index >= len(s.FiltersDraft) || index >= len(s.FilterDescs) {
		return s, nil
	}
	if s.FilterDescs[index].Type != service.FilterSelect {
		return s, nil
	}
	draft := s.FiltersDraft.Clone()
	draft[index].Selected = service.ToggleOption(draft[index].Selected, id)
	s.FiltersDraft = draft
	return s, nil
}

// CommitFilters closes the filter dialog. A nil draft cancels; otherwise
// the values are kept and a search replaces the places list.
func CommitFilters(s State, draft service.FilterValues) (State, []Effect) {
	if !s.Caps.HasFilters {
		return s, nil
	}
	s.FiltersOpen = false
	s.FiltersDraft = nil
	if draft == nil {
		return s, nil
	}
	s.Filters = draft.Clone()
	s.Seq.Places++
	return s, []Effect{Search{
		Seq:     s.Seq.Places,
		Payload: service.BuildSearchPayload(s.FilterDescs, s.Filters),
	}}
}

// DismissNotice clears the blocking notification.
func DismissNotice(s State) (State, []Effect) {
	s.Notice = ""
	return s, nil
}

// ListParams returns the scope of the place and zone listings.
func (s State) ListParams() gateway.ListParams {
	return gateway.NewListParams(s.Date, s.Settings, s.Caps.HasAlerts)
}

func refetchAll(s State) (State, []Effect) {
	params := s.ListParams()
	s.Seq.Places++
	s.Seq.Zones++
	return s, []Effect{
		FetchPlaces{Seq: s.Seq.Places, Params: params},
		FetchZones{Seq: s.Seq.Zones, Params: params},
	}
}

func refetchPlaces(s State) (State, []Effect) {
	s.Seq.Places++
	return s, []Effect{FetchPlaces{Seq: s.Seq.Places, Params: s.ListParams()}}
}

func beginWrite(s State) State {
	s.PendingWrites++
	s.Loading = true
	return s
}

func endWrite(s State) State {
	if s.PendingWrites > 0 {
		s.PendingWrites--
	}
	s.Loading = s.PendingWrites > 0
	return s
}

func validateDraft(current, draft service.Settings) error {
	if err := draft.Validate(); err != nil {
		return err
	}
	for _, st := range current {
		if _, ok := draft.Get(st.Key); !ok {
			return &MissingSettingError{Key: st.Key}
		}
	}
	return nil
}

// MissingSettingError reports a draft that dropped a setting.
type MissingSettingError struct {
	Key string
}

func (e *MissingSettingError) Error() string {
	return "setting " + e.Key + " is missing"
}
