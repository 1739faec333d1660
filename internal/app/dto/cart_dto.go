package dto

import (
	"errors"
	"fmt"

	"github.com/mrops-br/qkart-storefront/internal/app/service"
	"github.com/mrops-br/qkart-storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// ErrInvalidRequest marks a malformed request body
var ErrInvalidRequest = errors.New("invalid request")

// AddCartItemRequest represents the request to add a product to the cart
type AddCartItemRequest struct {
	ProductID string `json:"productId"`
	Qty       int    `json:"qty"`
}

// Validate checks the request before it reaches the cart
func (r AddCartItemRequest) Validate() error {
	if r.ProductID == "" {
		return fmt.Errorf("%w: productId is required", ErrInvalidRequest)
	}
	if r.Qty < 1 {
		return fmt.Errorf("%w: qty must be at least 1, got %d", domain.ErrInvalidQuantity, r.Qty)
	}
	return nil
}

// UpdateQuantityRequest sets the quantity of a cart line; 0 removes it
type UpdateQuantityRequest struct {
	Qty *int `json:"qty"`
}

// Validate checks the request before it reaches the cart
func (r UpdateQuantityRequest) Validate() error {
	if r.Qty == nil {
		return fmt.Errorf("%w: qty is required", domain.ErrInvalidQuantity)
	}
	if *r.Qty < 0 {
		return fmt.Errorf("%w: qty must not be negative, got %d", domain.ErrInvalidQuantity, *r.Qty)
	}
	return nil
}

// CartItemResponse is one rendered cart line
type CartItemResponse struct {
	ProductID string          `json:"productId"`
	Qty       int             `json:"qty"`
	Name      string          `json:"name,omitempty"`
	Category  string          `json:"category,omitempty"`
	Cost      decimal.Decimal `json:"cost"`
	Rating    int             `json:"rating,omitempty"`
	Image     string          `json:"image,omitempty"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Resolved  bool            `json:"resolved"`
}

// CartResponse is the rendered cart
type CartResponse struct {
	Items     []CartItemResponse `json:"items"`
	Total     decimal.Decimal    `json:"total"`
	ItemCount int                `json:"itemCount"`
}

// ToCartResponse converts the cart view
func ToCartResponse(v service.CartView) CartResponse {
	items := make([]CartItemResponse, len(v.Items))
	for i, it := range v.Items {
		items[i] = CartItemResponse{
			ProductID: it.ProductID,
			Qty:       it.Qty,
			Name:      it.Name,
			Category:  it.Category,
			Cost:      it.Cost,
			Rating:    it.Rating,
			Image:     it.Image,
			Subtotal:  it.Subtotal(),
			Resolved:  it.Resolved,
		}
	}

	return CartResponse{
		Items:     items,
		Total:     v.Total,
		ItemCount: v.ItemCount,
	}
}
