package ui

import (
	"fmt"
	"strings"

	"byproduct-catalog/internal/model"
)

// RenderProduct formats the detail card of one product.
func RenderProduct(p model.Product) string {
	var b strings.Builder
	b.WriteString(Styles.Title.Render(p.ProductName))
	b.WriteString("\n")
	b.WriteString(Styles.Dim.Render(p.ProductID))
	b.WriteString("\n\n")
	if p.FeaturesDesc != "" {
		b.WriteString(p.FeaturesDesc)
		b.WriteString("\n\n")
	}

	row := func(label, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(&b, "%s %s\n", Styles.Bold.Render(fmt.Sprintf("%-22s", label)), value)
	}
	if p.PlaceOfOrigin != nil {
		row("Place of origin", *p.PlaceOfOrigin)
	}
	row("Manufacturing location", p.ManufacturingLocation)
	row("Weight / volume", p.Summary().WeightLabel)
	if p.MaterialCat != nil {
		row("Material category", p.MaterialCat.MaterialCatName)
	}
	if p.MaterialForm != nil {
		row("Material form", p.MaterialForm.MaterialFormName)
	}

	apps := make([]string, 0, len(p.Applications))
	for _, a := range p.Applications {
		apps = append(apps, a.ApplicationName)
	}
	row("Applications", strings.Join(apps, ", "))

	ings := make([]string, 0, len(p.Ingredients))
	for _, i := range p.Ingredients {
		ings = append(ings, i.IngredientsName)
	}
	row("Ingredients", strings.Join(ings, ", "))

	claims := make([]string, 0, len(p.Healthclaims))
	for _, h := range p.Healthclaims {
		claims = append(claims, h.HealthclaimName)
	}
	row("Health claims", strings.Join(claims, ", "))

	for _, s := range p.Suppliers {
		row("Supplier", fmt.Sprintf("%s, %s, %s", s.SupplierName, s.City, s.Country))
	}
	row("Image", p.Summary().ImageURL)

	return Styles.Card.Render(strings.TrimRight(b.String(), "\n"))
}
