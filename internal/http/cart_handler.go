package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/service"
	"github.com/shopspring/decimal"
)

type CartService interface {
	Items(ctx context.Context, owner string) ([]domain.LineItem, error)
	Add(ctx context.Context, owner string, product domain.Product, quantity int) ([]domain.LineItem, error)
	UpdateQuantity(ctx context.Context, owner string, productID int64, quantity int) ([]domain.LineItem, error)
	Remove(ctx context.Context, owner string, productID int64) ([]domain.LineItem, error)
	Clear(ctx context.Context, owner string) error
}

// ProductLookup resolves the product a cart or wishlist request refers to.
type ProductLookup interface {
	GetProductByID(ctx context.Context, id int64) (*domain.Product, error)
}

// ShippingPolicy feeds ComputeTotals.
type ShippingPolicy struct {
	FreeShippingThreshold decimal.Decimal
	FlatShippingFee       decimal.Decimal
}

type CartHandler struct {
	cart     CartService
	products ProductLookup
	shipping ShippingPolicy
	timeout  time.Duration
}

func NewCartHandler(cart CartService, products ProductLookup, shipping ShippingPolicy, timeout time.Duration) *CartHandler {
	return &CartHandler{
		cart:     cart,
		products: products,
		shipping: shipping,
		timeout:  timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type CartResponseDTO struct {
	Items  []domain.LineItem `json:"items"`
	Totals domain.Totals     `json:"totals"`
}

func (h *CartHandler) response(items []domain.LineItem) CartResponseDTO {
	if items == nil {
		items = []domain.LineItem{}
	}
	return CartResponseDTO{
		Items:  items,
		Totals: service.ComputeTotals(items, h.shipping.FreeShippingThreshold, h.shipping.FlatShippingFee),
	}
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	items, err := h.cart.Items(ctx, mustOwner(r).ID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.response(items))
}

// GET /api/v1/cart/totals
func (h *CartHandler) GetTotals(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	items, err := h.cart.Items(ctx, mustOwner(r).ID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.response(items).Totals)
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 1 || req.Quantity > service.MaxLineQuantity {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	product, err := h.products.GetProductByID(ctx, req.ProductID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	items, err := h.cart.Add(ctx, mustOwner(r).ID, *product, req.Quantity)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, h.response(items))
}

// PUT /api/v1/cart/items/{product_id}
// A quantity below 1 leaves the cart unchanged; use DELETE to remove a line.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := productIDParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "invalid product ID")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity > service.MaxLineQuantity {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	items, err := h.cart.UpdateQuantity(ctx, mustOwner(r).ID, productID, req.Quantity)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.response(items))
}

// DELETE /api/v1/cart/items/{product_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := productIDParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "invalid product ID")
		return
	}

	items, err := h.cart.Remove(ctx, mustOwner(r).ID, productID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.response(items))
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.cart.Clear(ctx, mustOwner(r).ID); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
