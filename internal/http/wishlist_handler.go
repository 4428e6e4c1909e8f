package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/service"
)

type WishlistService interface {
	Items(ctx context.Context, owner string) ([]domain.WishlistItem, error)
	Add(ctx context.Context, owner string, product domain.Product) ([]domain.WishlistItem, error)
	Remove(ctx context.Context, owner string, productID int64) ([]domain.WishlistItem, error)
	Clear(ctx context.Context, owner string) error
	MoveToCart(ctx context.Context, owner string, productID int64) ([]domain.LineItem, error)
}

type WishlistHandler struct {
	wishlist WishlistService
	products ProductLookup
	// cart renders the cart returned by MoveToCart.
	cart    *CartHandler
	timeout time.Duration
}

func NewWishlistHandler(wishlist WishlistService, products ProductLookup, cart *CartHandler, timeout time.Duration) *WishlistHandler {
	return &WishlistHandler{
		wishlist: wishlist,
		products: products,
		cart:     cart,
		timeout:  timeout,
	}
}

type AddWishlistItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
}

type WishlistResponseDTO struct {
	Items []domain.WishlistItem `json:"items"`
}

func wishlistResponse(items []domain.WishlistItem) WishlistResponseDTO {
	if items == nil {
		items = []domain.WishlistItem{}
	}
	return WishlistResponseDTO{Items: items}
}

// GET /api/v1/wishlist
func (h *WishlistHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	items, err := h.wishlist.Items(ctx, mustOwner(r).ID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, wishlistResponse(items))
}

// POST /api/v1/wishlist/items
// Adding a product that is already saved answers 200 with the unchanged wishlist.
func (h *WishlistHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddWishlistItemRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}

	product, err := h.products.GetProductByID(ctx, req.ProductID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	owner := mustOwner(r).ID
	items, err := h.wishlist.Add(ctx, owner, *product)
	if errors.Is(err, service.ErrAlreadyInWishlist) {
		items, err = h.wishlist.Items(ctx, owner)
		if err != nil {
			handleError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, wishlistResponse(items))
		return
	}
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, wishlistResponse(items))
}

// DELETE /api/v1/wishlist/items/{product_id}
func (h *WishlistHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := productIDParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "invalid product ID")
		return
	}

	items, err := h.wishlist.Remove(ctx, mustOwner(r).ID, productID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, wishlistResponse(items))
}

// DELETE /api/v1/wishlist
func (h *WishlistHandler) ClearWishlist(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.wishlist.Clear(ctx, mustOwner(r).ID); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/v1/wishlist/items/{product_id}/move-to-cart
func (h *WishlistHandler) MoveToCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := productIDParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "invalid product ID")
		return
	}

	items, err := h.wishlist.MoveToCart(ctx, mustOwner(r).ID, productID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.cart.response(items))
}
