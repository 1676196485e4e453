package model

// SearchQuery is the keyword plus facet selections driving a product search.
// Values are never mutated in place: every With* method returns a new query.
type SearchQuery struct {
	Keyword  string
	Selected map[FacetKey][]string
}

// Clone returns a deep copy.
func (q SearchQuery) Clone() SearchQuery {
	out := SearchQuery{Keyword: q.Keyword, Selected: make(map[FacetKey][]string, len(q.Selected))}
	for k, ids := range q.Selected {
		out.Selected[k] = append([]string(nil), ids...)
	}
	return out
}

// WithKeyword returns a copy of q with a new keyword.
func (q SearchQuery) WithKeyword(keyword string) SearchQuery {
	out := q.Clone()
	out.Keyword = keyword
	return out
}

// WithFacet returns a copy of q whose selection for key is replaced by ids.
// The other facets are kept.
func (q SearchQuery) WithFacet(key FacetKey, ids []string) SearchQuery {
	out := q.Clone()
	out.Selected[key] = append([]string(nil), ids...)
	return out
}

// Cleared returns a copy of q with no facet selected.
func (q SearchQuery) Cleared() SearchQuery {
	return SearchQuery{Keyword: q.Keyword, Selected: map[FacetKey][]string{}}
}

// SelectedIDs returns the selected ids for key, or nil.
func (q SearchQuery) SelectedIDs(key FacetKey) []string {
	return q.Selected[key]
}

// IsSelected reports whether id is part of the selection for key.
func (q SearchQuery) IsSelected(key FacetKey, id string) bool {
	for _, v := range q.Selected[key] {
		if v == id {
			return true
		}
	}
	return false
}
