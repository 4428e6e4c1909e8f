package domain

import "github.com/shopspring/decimal"

// Slot names one of the persisted per-owner lists.
type Slot string

const (
	SlotCart     Slot = "cart"
	SlotWishlist Slot = "wishlist"
)

// LineItem is a single product entry with quantity inside the cart.
type LineItem struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image"`
	Quantity int             `json:"quantity"`
	Slug     string          `json:"slug"`
}

type WishlistItem struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Image string          `json:"image"`
	Slug  string          `json:"slug"`
}

// Totals is the price breakdown of a cart snapshot.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}
