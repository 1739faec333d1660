package dto

import (
	"github.com/mrops-br/qkart-storefront/internal/app/service"
	"github.com/mrops-br/qkart-storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// ProductResponse represents a product card
type ProductResponse struct {
	ID       string          `json:"_id"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Cost     decimal.Decimal `json:"cost"`
	Rating   int             `json:"rating"`
	Image    string          `json:"image"`
}

// CatalogResponse is the product listing as currently shown
type CatalogResponse struct {
	Products        []ProductResponse `json:"products"`
	NoProductsFound bool              `json:"noProductsFound"`
	Loading         bool              `json:"loading"`
}

// KeystrokeRequest carries the search box contents after a keystroke
type KeystrokeRequest struct {
	Text string `json:"text"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p domain.Product) ProductResponse {
	return ProductResponse{
		ID:       p.ID,
		Name:     p.Name,
		Category: p.Category,
		Cost:     p.Cost,
		Rating:   p.Rating,
		Image:    p.Image,
	}
}

// ToProductResponseList converts a list of domain Products to ProductResponse list
func ToProductResponseList(products []domain.Product) []ProductResponse {
	responses := make([]ProductResponse, len(products))
	for i, p := range products {
		responses[i] = ToProductResponse(p)
	}
	return responses
}

// ToCatalogResponse converts the catalog view
func ToCatalogResponse(v service.CatalogView) CatalogResponse {
	return CatalogResponse{
		Products:        ToProductResponseList(v.Products),
		NoProductsFound: v.NoProductsFound,
		Loading:         v.Loading,
	}
}
