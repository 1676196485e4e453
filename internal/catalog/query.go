package catalog

import (
	"net/url"
	"strings"

	"byproduct-catalog/internal/model"
)

// EncodeQuery serializes q into the query string of /products-with-filter.
//
// Facets are written in canonical key order, each selected id as its own
// key=value pair in selection order. A facet with no selection is left out
// entirely: an empty list means "no filter on this facet", never "match
// nothing". The keyword comes last and only when non-empty.
func EncodeQuery(q model.SearchQuery) string {
	parts := make([]string, 0, 8)
	for _, key := range model.AllFacetKeys {
		for _, id := range q.Selected[key] {
			parts = append(parts, escapeComponent(string(key))+"="+escapeComponent(id))
		}
	}
	if q.Keyword != "" {
		parts = append(parts, "keyword="+escapeComponent(q.Keyword))
	}
	return strings.Join(parts, "&")
}

// componentUnescaper undoes the escapes url.QueryEscape applies but
// encodeURIComponent does not.
var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// escapeComponent percent-encodes like encodeURIComponent: space is %20 and
// !'()* stay literal.
func escapeComponent(s string) string {
	return componentUnescaper.Replace(url.QueryEscape(s))
}
