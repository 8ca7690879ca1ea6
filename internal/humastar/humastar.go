// Package humastar serves Datastar hypermedia from Huma operations: gesture
// handlers answer with a Server-Sent Events stream of signal and element
// patches, and JSON operations carry RFC 8288 Link headers.
package humastar

import (
	"bytes"
	"encoding/json"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/joeblew999/plat-vine/internal/templates"
)

// Handler is embedded by handlers that render templates into SSE responses.
type Handler struct {
	Renderer *templates.Renderer
}

// Stream answers an operation with an SSE stream driven by fn.
func (h *Handler) Stream(fn func(sse SSE)) *huma.StreamResponse {
	return &huma.StreamResponse{
		Body: func(ctx huma.Context) { fn(NewSSE(ctx)) },
	}
}

// RenderList renders each item with tmpl, or the empty-state fragment when
// there are none.
func (h *Handler) RenderList(tmpl string, items []any, emptyTitle, emptyMsg string) string {
	var buf bytes.Buffer
	if len(items) == 0 {
		h.Renderer.RenderToBuffer(&buf, "empty-state", map[string]string{"Title": emptyTitle, "Message": emptyMsg})
		return buf.String()
	}
	for _, item := range items {
		h.Renderer.RenderToBuffer(&buf, tmpl, item)
	}
	return buf.String()
}

// SSE writes Datastar events to a streaming response.
type SSE struct {
	*datastar.ServerSentEventGenerator
}

// NewSSE starts a Datastar event stream on a Huma streaming context.
func NewSSE(ctx huma.Context) SSE {
	r, w := humago.Unwrap(ctx)
	return SSE{datastar.NewSSE(w, r)}
}

// Patch replaces the children of the element matching selector.
func (s SSE) Patch(html, selector string) error {
	return s.PatchElements(html, datastar.WithSelector(selector), datastar.WithModeInner())
}

// Signals merges signals into the page's signal store.
func (s SSE) Signals(signals map[string]any) error {
	return s.MarshalAndPatchSignals(signals)
}

// Error shows msg in the page's error notice.
func (s SSE) Error(msg string) error {
	return s.Signals(map[string]any{"error": msg})
}

// Signals is the signal store a Datastar action posts as its JSON body.
type Signals map[string]any

// ParseSignals decodes a posted signal store. An empty body has no signals.
func ParseSignals(body []byte) (Signals, error) {
	signals := Signals{}
	if len(bytes.TrimSpace(body)) == 0 {
		return signals, nil
	}
	if err := json.Unmarshal(body, &signals); err != nil {
		return nil, err
	}
	return signals, nil
}

// String returns the string signal key, or "" when it is missing or not a
// string.
func (s Signals) String(key string) string {
	v, _ := s[key].(string)
	return v
}

// SignalsInput takes the raw signal store of a Datastar action.
type SignalsInput struct {
	RawBody []byte
}

// MustParse decodes the signals, failing with 400 on malformed JSON.
func (i *SignalsInput) MustParse() (Signals, error) {
	signals, err := ParseSignals(i.RawBody)
	if err != nil {
		return nil, huma.Error400BadRequest("malformed signals: " + err.Error())
	}
	return signals, nil
}
