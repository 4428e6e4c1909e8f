package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const idempotencyHeader = "Idempotency-Key"

type CheckoutService interface {
	Submit(ctx context.Context, owner, idempotencyKey string, form checkout.Form) (*checkout.Result, error)
	GetOrder(ctx context.Context, owner string, id uuid.UUID) (*domain.Order, error)
	ListOrders(ctx context.Context, owner string) ([]domain.Order, error)
}

type CheckoutHandler struct {
	checkout CheckoutService
	timeout  time.Duration
}

func NewCheckoutHandler(checkout CheckoutService, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		timeout:  timeout,
	}
}

// CheckoutErrorDTO reports a failed submission; State tells the client the form is editable again.
type CheckoutErrorDTO struct {
	ErrorResponse
	State domain.CheckoutState `json:"state"`
}

type OrdersResponse struct {
	Orders []domain.Order `json:"orders"`
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	key := strings.TrimSpace(r.Header.Get(idempotencyHeader))
	if key == "" {
		respondError(w, http.StatusBadRequest, "missing_idempotency_key",
			"Idempotency-Key header is required")
		return
	}

	var form checkout.Form
	if err := decodeJSON(r, &form); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	res, err := h.checkout.Submit(ctx, mustOwner(r).ID, key, form)
	if err != nil {
		status, body, ok := classifyError(r, err)
		if !ok {
			return
		}
		state := domain.CheckoutStateEditing
		if res != nil {
			state = res.State
		}
		respondJSON(w, status, CheckoutErrorDTO{ErrorResponse: body, State: state})
		return
	}
	w.Header().Set("Location", res.Redirect)
	respondJSON(w, http.StatusCreated, res)
}

// GET /api/v1/orders
func (h *CheckoutHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.checkout.ListOrders(ctx, mustOwner(r).ID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	respondJSON(w, http.StatusOK, OrdersResponse{Orders: orders})
}

// GET /api/v1/orders/{order_id}
func (h *CheckoutHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := orderIDParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "invalid order ID")
		return
	}

	order, err := h.checkout.GetOrder(ctx, mustOwner(r).ID, id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func orderIDParam(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "order_id"))
	return id, err == nil
}
