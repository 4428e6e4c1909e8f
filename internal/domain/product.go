package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID             int64               `json:"id"`
	Name           string              `json:"name"`
	Slug           string              `json:"slug"`
	Description    string              `json:"description"`
	Price          decimal.Decimal     `json:"price"`
	OriginalPrice  decimal.NullDecimal `json:"original_price"`
	StockQuantity  int                 `json:"stock_quantity"`
	SKU            string              `json:"sku"`
	Images         []string            `json:"images"`
	Specifications map[string]string   `json:"specifications"`
	CategoryID     *int64              `json:"category_id,omitempty"`
	CategorySlug   string              `json:"category_slug,omitempty"`
	BrandID        *int64              `json:"brand_id,omitempty"`
	BrandSlug      string              `json:"brand_slug,omitempty"`
	IsActive       bool                `json:"is_active"`
	IsFeatured     bool                `json:"is_featured"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// PrimaryImage returns the first image of the product, or "" when it has none.
func (p Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// LineItem builds a cart line item for the product.
func (p Product) LineItem(quantity int) LineItem {
	return LineItem{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		Image:    p.PrimaryImage(),
		Quantity: quantity,
		Slug:     p.Slug,
	}
}

func (p Product) WishlistItem() WishlistItem {
	return WishlistItem{
		ID:    p.ID,
		Name:  p.Name,
		Price: p.Price,
		Image: p.PrimaryImage(),
		Slug:  p.Slug,
	}
}

type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Image       string `json:"image"`
	IsActive    bool   `json:"is_active"`
}

type Brand struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Image       string `json:"image"`
	IsActive    bool   `json:"is_active"`
}

// ProductFilter narrows a product listing. Zero values mean "no filter".
type ProductFilter struct {
	Category string
	Search   string
	Featured *bool
	Limit    int
}
