// pagedata.go: Reverse mapping: OpenAPI spec → page template data.
//
// BuildPageData extracts what a page template needs from the spec:
//   - Signals JSON (data-signals init)
//   - Routes (operation ID → path, discovered from OpenAPI paths)
//   - SSE inits (GET operations opened when the page loads)
//
// Templates use {{.Route "dashboard-date"}} instead of hardcoding URLs.
package humastar

import (
	"encoding/json"
	"fmt"
	"html/template"
	"slices"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// PageData holds everything a page template needs from the OpenAPI spec.
type PageData struct {
	// Signals is the JSON string for data-signals initialization.
	Signals string

	// Routes maps operation IDs to their paths.
	Routes map[string]string

	// SSEInits holds the SSE endpoint URLs opened on page load.
	SSEInits []string

	// Extra carries page-specific values.
	Extra map[string]any
}

// Route returns the path of an operation, or "#" when it is not registered.
func (pd PageData) Route(operationID string) string {
	if p, ok := pd.Routes[operationID]; ok {
		return p
	}
	return "#"
}

// Post returns the Datastar expression posting to an operation.
func (pd PageData) Post(operationID string) template.JS {
	return template.JS(fmt.Sprintf("@post('%s')", pd.Route(operationID)))
}

// DataInit returns a Datastar data-init attribute value joining all SSE init URLs.
// e.g. "@get('/api/v1/dashboard/stream')"
func (pd PageData) DataInit() string {
	var parts []string
	for _, url := range pd.SSEInits {
		parts = append(parts, fmt.Sprintf("@get('%s')", url))
	}
	return strings.Join(parts, "; ")
}

// BuildPageData builds template data for the operations under basePath.
// Parameterless GET operations there are SSE streams opened on load.
func BuildPageData(api huma.API, basePath string, signals map[string]any) PageData {
	pd := PageData{
		Routes: map[string]string{},
		Extra:  map[string]any{},
	}

	if signals == nil {
		signals = map[string]any{}
	}
	signalsJSON, _ := json.Marshal(signals)
	pd.Signals = string(signalsJSON)

	for p, item := range api.OpenAPI().Paths {
		if !strings.HasPrefix(p, basePath) {
			continue
		}
		for _, op := range operationsOf(item) {
			if op == nil || op.OperationID == "" {
				continue
			}
			pd.Routes[op.OperationID] = p
		}
		if item.Get != nil && !strings.Contains(p, "{") {
			pd.SSEInits = append(pd.SSEInits, p)
		}
	}
	slices.Sort(pd.SSEInits)

	return pd
}
