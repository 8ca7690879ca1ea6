package humastar

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// Action is something the client can do to a resource in its current state.
// The same value renders as a Datastar button and as a Link header such as
//
//	</api/v1/dashboard/popup/close>; rel="close"; method="POST"; title="Close"
type Action struct {
	Rel    string
	Href   string
	Method string // defaults to POST
	Title  string

	// Disabled actions render as inert buttons and are not linked.
	Disabled bool
}

// Actor bodies advertise their available actions as Link headers.
type Actor interface {
	Actions() []Action
}

// ActionDef describes an action on any resource of a kind. A %s in Pattern
// is replaced by the resource id.
type ActionDef struct {
	Rel     string
	Pattern string
	Method  string
	Title   string
}

// ActionsFor resolves defs against the resource id. Rels named in disabled
// come back disabled.
func ActionsFor(id string, defs []ActionDef, disabled ...string) []Action {
	// The href ends up inside a single-quoted Datastar expression.
	seg := strings.ReplaceAll(url.PathEscape(id), "'", "%27")
	out := make([]Action, 0, len(defs))
	for _, d := range defs {
		href := d.Pattern
		if strings.Contains(href, "%s") {
			href = fmt.Sprintf(href, seg)
		}
		out = append(out, Action{
			Rel:      d.Rel,
			Href:     href,
			Method:   d.Method,
			Title:    d.Title,
			Disabled: slices.Contains(disabled, d.Rel),
		})
	}
	return out
}

func (a Action) method() string {
	if a.Method == "" {
		return "POST"
	}
	return strings.ToUpper(a.Method)
}

// DatastarExpr is the data-on:click expression that takes the action.
func (a Action) DatastarExpr() string {
	return fmt.Sprintf("@%s('%s')", strings.ToLower(a.method()), a.Href)
}

// LinkHeader formats the action as an RFC 8288 Link value.
func (a Action) LinkHeader() string {
	var b strings.Builder
	fmt.Fprintf(&b, `<%s>; rel="%s"; method="%s"`, a.Href, a.Rel, a.method())
	if a.Title != "" {
		fmt.Fprintf(&b, `; title="%s"`, a.Title)
	}
	return b.String()
}
