package model

// Product is the full catalog record returned by the product endpoints.
type Product struct {
	ProductID             string            `json:"productId" validate:"required"`
	ProductName           string            `json:"productName" validate:"required"`
	PlaceOfOrigin         *string           `json:"placeOfOrigin"`
	ManufacturingLocation string            `json:"manufacturingLocation"`
	WeightVolume          string            `json:"weightVolume"`
	FeaturesDesc          string            `json:"featuresDesc"`
	MaterialCat           *MaterialCategory `json:"materialCat"`
	MaterialForm          *MaterialForm     `json:"materialForm"`
	Applications          []Application     `json:"applications" validate:"dive"`
	Ingredients           []Ingredient      `json:"ingredients" validate:"dive"`
	Suppliers             []Supplier        `json:"suppliers" validate:"dive"`
	Healthclaims          []Healthclaim     `json:"healthclaims" validate:"dive"`
	Images                []Image           `json:"images" validate:"dive"`
}

type MaterialCategory struct {
	MaterialCatID   string `json:"materialCatId" validate:"required"`
	MaterialCatName string `json:"materialCatName"`
}

type MaterialForm struct {
	MaterialFormID   string `json:"materialFormId" validate:"required"`
	MaterialFormName string `json:"materialFormName"`
}

type Application struct {
	ApplicationID   string `json:"applicationId" validate:"required"`
	ApplicationName string `json:"applicationName"`
}

type Ingredient struct {
	IngredientsID   string `json:"ingredientsId" validate:"required"`
	IngredientsName string `json:"ingredientsName"`
}

type Supplier struct {
	SupplierID    string  `json:"supplierId" validate:"required"`
	SupplierName  string  `json:"supplierName"`
	SupplierCatID string  `json:"supplierCatId"`
	City          string  `json:"city"`
	ProvinceState *string `json:"provinceState"`
	Country       string  `json:"country"`
	Postalcode    string  `json:"postalcode"`
}

type Healthclaim struct {
	HealthclaimID   string `json:"healthclaimId" validate:"required"`
	HealthclaimName string `json:"healthclaimName"`
}

type Image struct {
	ImageID   string  `json:"imageId"`
	ImageURL  string  `json:"imageUrl" validate:"required"`
	MainImage *string `json:"mainImage"`
}

// ProductSummary is the list-rendering projection of a Product.
type ProductSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	WeightLabel string `json:"weightLabel"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

const noWeightLabel = "N/A"

// Summary projects p for list rendering. The main image wins, then the first one.
func (p Product) Summary() ProductSummary {
	weight := p.WeightVolume
	if weight == "" {
		weight = noWeightLabel
	}
	return ProductSummary{
		ID:          p.ProductID,
		Title:       p.ProductName,
		Description: p.FeaturesDesc,
		WeightLabel: weight,
		ImageURL:    p.mainImageURL(),
	}
}

func (p Product) mainImageURL() string {
	for _, img := range p.Images {
		if img.MainImage != nil && *img.MainImage == "1" {
			return img.ImageURL
		}
	}
	if len(p.Images) > 0 {
		return p.Images[0].ImageURL
	}
	return ""
}

// Summaries projects every product in order.
func Summaries(products []Product) []ProductSummary {
	out := make([]ProductSummary, 0, len(products))
	for _, p := range products {
		out = append(out, p.Summary())
	}
	return out
}
