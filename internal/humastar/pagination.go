package humastar

import "fmt"

// Pager bodies advertise their neighbouring pages as Link headers.
type Pager interface {
	PaginationLinks(basePath string) []string
}

// PageBody is one window of a list endpoint's result.
type PageBody[T any] struct {
	Total  int `json:"total" doc:"Total number of items"`
	Offset int `json:"offset" doc:"Index of the first item on this page"`
	Limit  int `json:"limit" doc:"Page size"`
	Data   []T `json:"data" doc:"Items"`
}

// Paginate cuts the page [offset, offset+limit) out of all and converts each
// kept element with conv. An offset past the end gives an empty page and a
// non-positive limit gives the rest of the list.
func Paginate[S, T any](all []S, offset, limit int, conv func(S) T) PageBody[T] {
	start := min(max(offset, 0), len(all))
	end := len(all)
	if limit > 0 {
		end = min(start+limit, end)
	}
	data := make([]T, 0, end-start)
	for _, v := range all[start:end] {
		data = append(data, conv(v))
	}
	return PageBody[T]{Total: len(all), Offset: offset, Limit: limit, Data: data}
}

// PaginationLinks returns first, prev, next and last links, leaving out
// prev on the first page and next on the last.
func (p PageBody[T]) PaginationLinks(basePath string) []string {
	if p.Limit <= 0 {
		return nil
	}
	link := func(offset int, rel string) string {
		return fmt.Sprintf(`<%s?offset=%d&limit=%d>; rel="%s"`, basePath, offset, p.Limit, rel)
	}
	links := []string{link(0, "first")}
	if p.Offset > 0 {
		links = append(links, link(max(p.Offset-p.Limit, 0), "prev"))
	}
	if p.Offset+p.Limit < p.Total {
		links = append(links, link(p.Offset+p.Limit, "next"))
	}
	last := max(p.Total-1, 0) / p.Limit * p.Limit
	return append(links, link(last, "last"))
}
