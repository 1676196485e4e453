package catalog

import (
	"testing"

	"byproduct-catalog/internal/model"
)

func TestEncodeQuery(t *testing.T) {
	tests := []struct {
		name string
		q    model.SearchQuery
		want string
	}{
		{
			name: "empty",
			q:    model.SearchQuery{},
			want: "",
		},
		{
			name: "empty facet omitted",
			q:    model.SearchQuery{Selected: map[model.FacetKey][]string{model.FacetCategory: {}}},
			want: "",
		},
		{
			name: "repeated pairs keep selection order",
			q:    model.SearchQuery{Selected: map[model.FacetKey][]string{model.FacetCategory: {"a", "b"}}},
			want: "cid=a&cid=b",
		},
		{
			name: "canonical facet order then keyword",
			q: model.SearchQuery{
				Keyword: "rice bran",
				Selected: map[model.FacetKey][]string{
					model.FacetHealthClaim: {"h1"},
					model.FacetCategory:    {"c2", "c1"},
					model.FacetSupplier:    nil,
				},
			},
			want: "cid=c2&cid=c1&hid=h1&keyword=rice%20bran",
		},
		{
			name: "components escaped",
			q: model.SearchQuery{
				Keyword:  "a&b=c",
				Selected: map[model.FacetKey][]string{model.FacetForm: {"x/y"}},
			},
			want: "fid=x%2Fy&keyword=a%26b%3Dc",
		},
		{
			name: "unreserved marks kept",
			q:    model.SearchQuery{Keyword: "okara (dried)! it's *raw*"},
			want: "keyword=okara%20(dried)!%20it's%20*raw*",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EncodeQuery(tt.q); got != tt.want {
				t.Fatalf("EncodeQuery() = %q, want %q", got, tt.want)
			}
		})
	}
}
