package dashboard

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/joeblew999/plat-vine/internal/humastar"
	"github.com/joeblew999/plat-vine/internal/service"
	"github.com/joeblew999/plat-vine/internal/session"
)

// BasePath prefixes every dashboard gesture endpoint.
const BasePath = "/api/v1/dashboard"

var popupActions = []humastar.ActionDef{
	{Rel: "delete", Pattern: BasePath + "/places/%s/delete", Method: "POST", Title: "Delete place"},
	{Rel: "close", Pattern: BasePath + "/popup/close", Method: "POST", Title: "Close"},
}

// PopupActions returns the popup's Delete and Close actions. Delete is
// disabled when the popup shows a zone.
func PopupActions(p session.Popup) []humastar.Action {
	if !p.Open {
		return nil
	}
	var disabled []string
	if !p.CanDelete() {
		disabled = append(disabled, "delete")
	}
	return humastar.ActionsFor(p.SubjectID, popupActions, disabled...)
}

// FieldRow is one line of the popup's field list.
type FieldRow struct {
	Key   string
	Value string
}

// PopupView is the template data of the detail popup.
type PopupView struct {
	Open    bool
	IsPlace bool
	Title   string
	Loading bool
	Fields  []any
	Raw     string
	Actions []humastar.Action
	Chart   Chart

	// FieldsHTML is Fields rendered by the caller.
	FieldsHTML template.HTML
}

func popupView(s session.State) PopupView {
	p := s.Popup
	if !p.Open {
		return PopupView{}
	}
	v := PopupView{
		Open:    true,
		IsPlace: p.IsPlace,
		Loading: p.Loading,
		Actions: PopupActions(p),
		Chart:   RiskChart(),
	}

	if name, ok := p.Data["name"].(string); ok && name != "" {
		v.Title = name
	} else if p.IsPlace {
		v.Title = "Place " + p.SubjectID
	} else {
		v.Title = "Zone " + p.SubjectID
	}

	for _, k := range service.SortedKeys(p.Data) {
		v.Fields = append(v.Fields, FieldRow{Key: k, Value: formatValue(p.Data[k])})
	}
	raw, _ := json.Marshal(p.Data)
	v.Raw = string(raw)
	return v
}

// formatValue renders strings as-is and everything else as JSON.
func formatValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// ModalView is the template data of the prompt and confirmation modals.
type ModalView struct {
	Kind      session.ModalKind
	Default   string
	PlaceName string
	Lat       float64
	Lon       float64
}

func modalView(s session.State) ModalView {
	m := ModalView{
		Kind:    s.Modal.Kind,
		Default: s.Modal.Default,
		Lat:     s.Modal.Coord.Lat,
		Lon:     s.Modal.Coord.Lon,
	}
	if s.Modal.Kind == session.ModalConfirmDelete {
		m.PlaceName = s.Modal.PlaceID
		if p, ok := s.FindPlace(s.Modal.PlaceID); ok && p.Name != "" {
			m.PlaceName = p.Name
		}
	}
	return m
}

// DialogView is the template data of the settings and filter dialogs.
type DialogView struct {
	Open  bool
	Title string
	Form  template.HTML
	Error string
	// Commit and Cancel are the POST targets of the dialog buttons.
	Commit string
	Cancel string
}

func settingsView(s session.State) DialogView {
	if !s.SettingsOpen {
		return DialogView{}
	}
	fields := make([]humastar.Field, 0, len(s.SettingsDraft))
	for _, st := range s.SettingsDraft {
		fields = append(fields, humastar.Field{
			Kind:   humastar.FieldNumber,
			Label:  st.Title,
			Action: BasePath + "/settings/" + pathSegment(st.Key),
			Value:  st.Value,
			Min:    st.Min,
			Max:    st.Max,
			Step:   1,
		})
	}
	return DialogView{
		Open:   true,
		Title:  "Settings",
		Form:   humastar.RenderForm(fields),
		Error:  s.SettingsError,
		Commit: BasePath + "/settings/commit",
		Cancel: BasePath + "/settings/cancel",
	}
}

func filtersView(s session.State) DialogView {
	if !s.FiltersOpen {
		return DialogView{}
	}
	fields := make([]humastar.Field, 0, len(s.FilterDescs))
	for i, d := range s.FilterDescs {
		if i >= len(s.FiltersDraft) {
			break
		}
		v := s.FiltersDraft[i]
		base := BasePath + "/filters/" + strconv.Itoa(i)
		switch d.Type {
		case service.FilterRange:
			fields = append(fields, humastar.Field{
				Kind:     humastar.FieldRange,
				Label:    d.Label,
				Action:   base + "/thumb",
				Interval: v.Range,
				Min:      d.Min,
				Max:      d.Max,
				Step:     d.Step,
			})
		case service.FilterSelect:
			choices := make([]humastar.Choice, len(d.Options))
			for j, o := range d.Options {
				choices[j] = humastar.Choice{
					Label:   o.Label,
					Checked: slices.Contains(v.Selected, o.ID),
					Action:  base + "/toggle/" + pathSegment(o.ID),
				}
			}
			fields = append(fields, humastar.Field{
				Kind:    humastar.FieldChecklist,
				Label:   d.Label,
				Choices: choices,
				Summary: d.SelectLabels(v.Selected),
			})
		}
	}
	return DialogView{
		Open:   true,
		Title:  "Filters",
		Form:   humastar.RenderForm(fields),
		Commit: BasePath + "/filters/commit",
		Cancel: BasePath + "/filters/cancel",
	}
}

// Signals returns the Datastar signals mirroring the session state.
func Signals(s session.State) map[string]any {
	return map[string]any{
		"date":         s.Date,
		"loading":      s.Loading,
		"notice":       s.Notice,
		"error":        "",
		"zonesVisible": s.ZonesVisible,
		"popupOpen":    s.Popup.Open,
		"settingsOpen": s.SettingsOpen,
		"filtersOpen":  s.FiltersOpen,
		"modal":        string(s.Modal.Kind),
		"map":          MapData(s),
	}
}

// PromptSignals seeds the name prompt's input with its default. It is sent
// once when the prompt opens, never with later renders.
func PromptSignals(s session.State) map[string]any {
	if s.Modal.Kind != session.ModalNamePrompt {
		return map[string]any{}
	}
	return map[string]any{"promptName": s.Modal.Default}
}

// pathSegment escapes s for use inside a single-quoted Datastar expression.
func pathSegment(s string) string {
	return strings.ReplaceAll(url.PathEscape(s), "'", "%27")
}
