package model

import "fmt"

// FacetKey identifies one filterable attribute of a product.
type FacetKey string

const (
	FacetCategory    FacetKey = "cid" // material category
	FacetForm        FacetKey = "fid" // material form
	FacetApplication FacetKey = "aid"
	FacetIngredient  FacetKey = "iid"
	FacetSupplier    FacetKey = "sid"
	FacetHealthClaim FacetKey = "hid"
)

// AllFacetKeys is the canonical order used when serializing a query.
var AllFacetKeys = []FacetKey{
	FacetCategory,
	FacetForm,
	FacetApplication,
	FacetIngredient,
	FacetSupplier,
	FacetHealthClaim,
}

var facetLabels = map[FacetKey]string{
	FacetCategory:    "Material category",
	FacetForm:        "Material form",
	FacetApplication: "Application",
	FacetIngredient:  "Ingredient",
	FacetSupplier:    "Supplier",
	FacetHealthClaim: "Health claim",
}

// ParseFacetKey accepts only the closed set of facet keys.
func ParseFacetKey(s string) (FacetKey, error) {
	k := FacetKey(s)
	if _, ok := facetLabels[k]; !ok {
		return "", fmt.Errorf("unknown facet key %q", s)
	}
	return k, nil
}

// Label is the human readable name of the facet.
func (k FacetKey) Label() string {
	if l, ok := facetLabels[k]; ok {
		return l
	}
	return string(k)
}

// FacetValue is one selectable value of a facet.
type FacetValue struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name"`
}

// FacetOption lists the values the server offers for one facet in the current
// search context.
type FacetOption struct {
	Key    FacetKey     `json:"key" validate:"required,oneof=cid fid aid iid sid hid"`
	Values []FacetValue `json:"options" validate:"dive"`
}
