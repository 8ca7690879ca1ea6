package humastar

import (
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// EntryPoint is the route that links to every collection of the JSON API.
const EntryPoint = "/health"

// routeLinks holds the Link values derived by AutoLinks, keyed by route.
var routeLinks map[string][]string

// AutoLinks derives Link headers from the routes registered on api. An item
// route such as /sessions/{id} and its collection /sessions link to each
// other, collections link up to the entry point, and the entry point links
// to every collection and to the API description. Routes tagged with any of
// skipTags are left out. Call it once every route is registered.
func AutoLinks(api huma.API, skipTags ...string) {
	paths := api.OpenAPI().Paths
	routes := make([]string, 0, len(paths))
	for p, item := range paths {
		if !tagged(item, skipTags) {
			routes = append(routes, p)
		}
	}
	slices.Sort(routes)
	_, hasEntry := paths[EntryPoint]

	links := map[string][]string{}
	add := func(from, to, rel string) {
		v := fmt.Sprintf(`<%s>; rel="%s"`, to, rel)
		if !slices.Contains(links[from], v) {
			links[from] = append(links[from], v)
		}
	}
	for _, p := range routes {
		switch {
		case strings.Contains(p, "{"):
			if parent := path.Dir(p); slices.Contains(routes, parent) {
				add(p, parent, "collection")
				add(parent, p, "item")
			}
		case p != EntryPoint && hasEntry:
			add(p, EntryPoint, "up")
			add(EntryPoint, p, path.Base(p))
		}
	}
	if hasEntry {
		add(EntryPoint, "/openapi.json", "service-desc")
		add(EntryPoint, "/docs", "service-doc")
		add(EntryPoint, "/", "start")
	}
	routeLinks = links
}

// LinkTransformer writes the Link headers of each JSON response: the
// route's derived links, a self link on item routes, and whatever the body
// adds as a Pager or an Actor.
func LinkTransformer() huma.Transformer {
	return func(ctx huma.Context, status string, v any) (any, error) {
		op := ctx.Operation()
		if op == nil {
			return v, nil
		}
		for _, l := range responseLinks(op.Path, ctx.URL().Path, v) {
			ctx.AppendHeader("Link", l)
		}
		return v, nil
	}
}

func responseLinks(route, self string, body any) []string {
	links := slices.Clone(routeLinks[route])
	if strings.Contains(route, "{") {
		links = append(links, fmt.Sprintf(`<%s>; rel="self"`, self))
	}
	if p, ok := body.(Pager); ok {
		links = append(links, p.PaginationLinks(self)...)
	}
	if a, ok := body.(Actor); ok {
		for _, action := range a.Actions() {
			if !action.Disabled {
				links = append(links, action.LinkHeader())
			}
		}
	}
	return links
}

// RootLinks returns the entry point's links for handlers outside Huma.
func RootLinks() []string {
	return slices.Clone(routeLinks[EntryPoint])
}

func tagged(item *huma.PathItem, tags []string) bool {
	for _, op := range []*huma.Operation{item.Get, item.Post, item.Put, item.Patch, item.Delete} {
		if op == nil {
			continue
		}
		for _, t := range op.Tags {
			if slices.Contains(tags, t) {
				return true
			}
		}
	}
	return false
}
