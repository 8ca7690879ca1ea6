package session

import "github.com/joeblew999/plat-vine/internal/service"

// Notices shown when a write fails.
const (
	NoticeCreateFailed = "Could not add place"
	NoticeDeleteFailed = "Could not delete place"
)

// Receive folds an effect result into the state. Read failures leave the
// state as it was; write failures raise a notice and clear loading.
func Receive(s State, m Msg) (State, []Effect) {
	if Stale(s, m) {
		return s, nil
	}

	switch m := m.(type) {
	case PlacesLoaded:
		if m.Err != nil {
			return s, nil
		}
		s.Places = m.Places
		return s, nil

	case ZonesLoaded:
		if m.Err != nil {
			return s, nil
		}
		s.Zones = m.Zones
		return s, nil

	case PlaceCreated:
		s = endWrite(s)
		if m.Err != nil {
			s.Notice = NoticeCreateFailed
			return s, nil
		}
		return refetchPlaces(s)

	case PlaceDeleted:
		s = endWrite(s)
		if m.Err != nil {
			s.Notice = NoticeDeleteFailed
			return s, nil
		}
		return refetchPlaces(s)

	case PlaceAlertsLoaded:
		if !s.Popup.Open || !s.Popup.IsPlace || s.Popup.SubjectID != m.PlaceID {
			return s, nil
		}
		popup := s.Popup
		popup.Loading = false
		if m.Err == nil {
			popup.Data = mergeAlerts(popup.Data, m.Alerts)
		}
		s.Popup = popup
		return s, nil

	case SearchCompleted:
		if m.Err != nil {
			return s, nil
		}
		s.Places = m.Result.Points
		s.HighlightID = m.Result.HighlightID()
		return s, nil
	}
	return s, nil
}

// Stale reports whether m answers a request that a newer one superseded
// and the fetch policy says to drop it.
func Stale(s State, m Msg) bool {
	switch m := m.(type) {
	case PlacesLoaded:
		return s.Policy != PolicyLastWriteWins && m.Seq != s.Seq.Places
	case ZonesLoaded:
		return s.Policy != PolicyLastWriteWins && m.Seq != s.Seq.Zones
	case SearchCompleted:
		return s.Policy != PolicyLastWriteWins && m.Seq != s.Seq.Places
	case PlaceAlertsLoaded:
		return s.Policy != PolicyLastWriteWins && m.Seq != s.Seq.Alerts
	}
	return false
}

// mergeAlerts overlays the fetched detail with the locally held identity
// fields, which win on conflict.
func mergeAlerts(local map[string]any, alerts service.AlertSummary) map[string]any {
	out := make(map[string]any, len(local)+len(alerts))
	for k, v := range alerts.Clone() {
		out[k] = v
	}
	for _, k := range []string{"id", "name", "lat", "lon", "desc"} {
		if v, ok := local[k]; ok {
			out[k] = v
		}
	}
	return out
}
