package domain

import (
	"github.com/shopspring/decimal"
)

// CartEntry is the store's authoritative, minimal cart row.
// A cart holds at most one entry per product id.
type CartEntry struct {
	ProductID string `json:"productId"`
	Qty       int    `json:"qty"`
}

// CartItem is a CartEntry denormalized with the product's display fields.
// Items whose product is missing from the catalog are kept with
// Resolved set to false and zero product fields.
type CartItem struct {
	ProductID string
	Qty       int
	Name      string
	Category  string
	Cost      decimal.Decimal
	Rating    int
	Image     string
	Resolved  bool
}

// Subtotal returns cost times quantity, zero for unresolved items
func (i CartItem) Subtotal() decimal.Decimal {
	if !i.Resolved {
		return decimal.Zero
	}
	return i.Cost.Mul(decimal.NewFromInt(int64(i.Qty)))
}

// Reconcile merges cart entries with the catalog, preserving entry order.
func Reconcile(entries []CartEntry, catalog []Product) []CartItem {
	index := IndexProducts(catalog)

	items := make([]CartItem, 0, len(entries))
	for _, e := range entries {
		item := CartItem{
			ProductID: e.ProductID,
			Qty:       e.Qty,
		}
		if p, ok := index[e.ProductID]; ok {
			item.Name = p.Name
			item.Category = p.Category
			item.Cost = p.Cost
			item.Rating = p.Rating
			item.Image = p.Image
			item.Resolved = true
		}
		items = append(items, item)
	}
	return items
}

// Total sums cost times quantity over resolved items.
func Total(items []CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// ItemCount sums the quantities of resolved items.
func ItemCount(items []CartItem) int {
	count := 0
	for _, item := range items {
		if item.Resolved {
			count += item.Qty
		}
	}
	return count
}

// ContainsProduct reports whether the entries already hold productID
func ContainsProduct(entries []CartEntry, productID string) bool {
	for _, e := range entries {
		if e.ProductID == productID {
			return true
		}
	}
	return false
}
