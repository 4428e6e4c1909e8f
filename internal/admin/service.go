package admin

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Products is the write side of the catalog.
type Products interface {
	GetProductByID(ctx context.Context, id int64) (*domain.Product, error)
	CreateProduct(ctx context.Context, p *domain.Product) error
	UpdateProduct(ctx context.Context, p *domain.Product) error
	DeleteProduct(ctx context.Context, id int64) error
}

type Orders interface {
	GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListOrders(ctx context.Context, limit int) ([]domain.Order, error)
}

// ProductInput is the editable part of a product.
type ProductInput struct {
	Name           string              `json:"name"`
	Slug           string              `json:"slug"`
	Description    string              `json:"description"`
	Price          decimal.Decimal     `json:"price"`
	OriginalPrice  decimal.NullDecimal `json:"original_price"`
	StockQuantity  int                 `json:"stock_quantity"`
	SKU            string              `json:"sku"`
	Images         []string            `json:"images"`
	Specifications map[string]string   `json:"specifications"`
	CategoryID     *int64              `json:"category_id"`
	BrandID        *int64              `json:"brand_id"`
	IsActive       *bool               `json:"is_active"`
	IsFeatured     bool                `json:"is_featured"`
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

func (in *ProductInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Slug = strings.ToLower(strings.TrimSpace(in.Slug))
	in.SKU = strings.TrimSpace(in.SKU)
}

func (in ProductInput) validate() error {
	fields := map[string]string{}
	if in.Name == "" {
		fields["name"] = "is required"
	}
	switch {
	case in.Slug == "":
		fields["slug"] = "is required"
	case !slugPattern.MatchString(in.Slug):
		fields["slug"] = "may only contain lowercase letters, digits and single hyphens"
	}
	if in.Price.IsNegative() {
		fields["price"] = "must not be negative"
	}
	if in.OriginalPrice.Valid && in.OriginalPrice.Decimal.IsNegative() {
		fields["original_price"] = "must not be negative"
	}
	if in.StockQuantity < 0 {
		fields["stock_quantity"] = "must not be negative"
	}
	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

func (in ProductInput) apply(p *domain.Product) {
	p.Name = in.Name
	p.Slug = in.Slug
	p.Description = in.Description
	p.Price = in.Price
	p.OriginalPrice = in.OriginalPrice
	p.StockQuantity = in.StockQuantity
	p.SKU = in.SKU
	p.Images = in.Images
	p.Specifications = in.Specifications
	p.CategoryID = in.CategoryID
	p.BrandID = in.BrandID
	p.IsActive = in.IsActive == nil || *in.IsActive
	p.IsFeatured = in.IsFeatured
}

// Service backs the admin screens: product maintenance and read-only order views.
type Service struct {
	products Products
	orders   Orders
}

func NewService(products Products, orders Orders) *Service {
	return &Service{products: products, orders: orders}
}

func (s *Service) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return s.products.GetProductByID(ctx, id)
}

func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (*domain.Product, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}

	var p domain.Product
	in.apply(&p)
	if err := s.products.CreateProduct(ctx, &p); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("product created", zap.Int64("product_id", p.ID), zap.String("slug", p.Slug))
	return &p, nil
}

// UpdateProduct replaces every editable field of product id with in.
func (s *Service) UpdateProduct(ctx context.Context, id int64, in ProductInput) (*domain.Product, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}

	p, err := s.products.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(p)
	if err := s.products.UpdateProduct(ctx, p); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("product updated", zap.Int64("product_id", p.ID))
	return p, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.products.DeleteProduct(ctx, id); err != nil {
		return err
	}
	logger.FromContext(ctx).Info("product deleted", zap.Int64("product_id", id))
	return nil
}

// ListOrders returns every order, newest first.
func (s *Service) ListOrders(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.orders.ListOrders(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *Service) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return s.orders.GetOrder(ctx, id)
}
