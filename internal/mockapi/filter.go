package mockapi

import (
	"strings"

	"byproduct-catalog/internal/model"
)

// optionOrder is the order facet options are returned in.
var optionOrder = []model.FacetKey{
	model.FacetCategory,
	model.FacetForm,
	model.FacetApplication,
	model.FacetHealthClaim,
	model.FacetIngredient,
	model.FacetSupplier,
}

// FilterProducts keeps the products matching keyword and every non-empty
// facet selection. The keyword is a case-insensitive substring of the product
// name or of one of its application names. A facet matches when the product
// carries any of the selected ids.
func FilterProducts(products []model.Product, keyword string, selected map[model.FacetKey][]string) []model.Product {
	kw := strings.ToLower(keyword)
	out := make([]model.Product, 0, len(products))
	for _, p := range products {
		if kw != "" && !matchesKeyword(p, kw) {
			continue
		}
		if !matchesFacets(p, selected) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matchesKeyword(p model.Product, kw string) bool {
	if strings.Contains(strings.ToLower(p.ProductName), kw) {
		return true
	}
	for _, a := range p.Applications {
		if strings.Contains(strings.ToLower(a.ApplicationName), kw) {
			return true
		}
	}
	return false
}

func matchesFacets(p model.Product, selected map[model.FacetKey][]string) bool {
	for key, ids := range selected {
		if len(ids) == 0 {
			continue
		}
		if !anyOf(facetValues(p, key), ids) {
			return false
		}
	}
	return true
}

func anyOf(values []model.FacetValue, ids []string) bool {
	for _, v := range values {
		for _, id := range ids {
			if v.ID == id {
				return true
			}
		}
	}
	return false
}

// facetValues lists the values p carries for key.
func facetValues(p model.Product, key model.FacetKey) []model.FacetValue {
	var out []model.FacetValue
	switch key {
	case model.FacetCategory:
		if p.MaterialCat != nil {
			out = append(out, model.FacetValue{ID: p.MaterialCat.MaterialCatID, Name: p.MaterialCat.MaterialCatName})
		}
	case model.FacetForm:
		if p.MaterialForm != nil {
			out = append(out, model.FacetValue{ID: p.MaterialForm.MaterialFormID, Name: p.MaterialForm.MaterialFormName})
		}
	case model.FacetApplication:
		for _, a := range p.Applications {
			out = append(out, model.FacetValue{ID: a.ApplicationID, Name: a.ApplicationName})
		}
	case model.FacetIngredient:
		for _, i := range p.Ingredients {
			out = append(out, model.FacetValue{ID: i.IngredientsID, Name: i.IngredientsName})
		}
	case model.FacetSupplier:
		for _, s := range p.Suppliers {
			out = append(out, model.FacetValue{ID: s.SupplierID, Name: s.SupplierName})
		}
	case model.FacetHealthClaim:
		for _, h := range p.Healthclaims {
			out = append(out, model.FacetValue{ID: h.HealthclaimID, Name: h.HealthclaimName})
		}
	}
	return out
}

// BuildFacetOptions collects the facet values present in products. Every key
// is returned, possibly with no options; values keep first-seen order and are
// de-duplicated by id.
func BuildFacetOptions(products []model.Product) []model.FacetOption {
	options := make([]model.FacetOption, 0, len(optionOrder))
	for _, key := range optionOrder {
		seen := make(map[string]bool)
		values := []model.FacetValue{}
		for _, p := range products {
			for _, v := range facetValues(p, key) {
				if seen[v.ID] {
					continue
				}
				seen[v.ID] = true
				values = append(values, v)
			}
		}
		options = append(options, model.FacetOption{Key: key, Values: values})
	}
	return options
}
