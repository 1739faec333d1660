package domain

import (
	"github.com/shopspring/decimal"
)

// Product represents a catalog entry available for purchase.
// Products are immutable once fetched; the catalog replaces them wholesale.
type Product struct {
	ID       string          `json:"_id"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Cost     decimal.Decimal `json:"cost"`
	Rating   int             `json:"rating"`
	Image    string          `json:"image"`
}

// Validate performs sanity checks on a product received from the store
func (p Product) Validate() error {
	if p.ID == "" {
		return ErrInvalidProduct
	}
	if p.Cost.IsNegative() {
		return ErrInvalidProduct
	}
	if p.Rating < 0 || p.Rating > 5 {
		return ErrInvalidProduct
	}
	return nil
}

// IndexProducts builds an id lookup over a product list.
// Later duplicates win.
func IndexProducts(products []Product) map[string]Product {
	index := make(map[string]Product, len(products))
	for _, p := range products {
		index[p.ID] = p
	}
	return index
}
