package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/fjod/storefront/internal/auth"
	"github.com/fjod/storefront/internal/catalog"
	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/logger"
	"github.com/fjod/storefront/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// errorMapping pairs a sentinel with the status and code it is reported as.
type errorMapping struct {
	target error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{catalog.ErrProductNotFound, http.StatusNotFound, "product_not_found"},
	{catalog.ErrSlugTaken, http.StatusConflict, "slug_taken"},
	{catalog.ErrUnknownReference, http.StatusUnprocessableEntity, "unknown_reference"},
	{catalog.ErrUnavailable, http.StatusServiceUnavailable, "catalog_unavailable"},
	{service.ErrInvalidQuantity, http.StatusBadRequest, "invalid_quantity"},
	{service.ErrAlreadyInWishlist, http.StatusConflict, "already_in_wishlist"},
	{service.ErrNotInWishlist, http.StatusNotFound, "not_in_wishlist"},
	{service.ErrWriteContention, http.StatusConflict, "write_contention"},
	{checkout.ErrEmptyCart, http.StatusUnprocessableEntity, "empty_cart"},
	{checkout.ErrOrderNotFound, http.StatusNotFound, "order_not_found"},
	{checkout.ErrMissingIdempotencyKey, http.StatusBadRequest, "missing_idempotency_key"},
	{checkout.ErrIdempotencyKeyReused, http.StatusConflict, "idempotency_key_reused"},
	{checkout.ErrIllegalTransition, http.StatusConflict, "illegal_transition"},
	{auth.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{auth.ErrAdminDisabled, http.StatusServiceUnavailable, "admin_disabled"},
	{auth.ErrInvalidToken, http.StatusUnauthorized, "invalid_token"},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout"},
}

// handleError converts a service error into an ErrorResponse.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp, ok := classifyError(r, err)
	if !ok {
		return
	}
	respondJSON(w, status, resp)
}

// classifyError maps err to a status and body. Unknown errors are logged and reported as 500
// without leaking their text. ok is false when the client has gone away.
func classifyError(r *http.Request, err error) (int, ErrorResponse, bool) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return http.StatusUnprocessableEntity, ErrorResponse{
			Error:  verr.Error(),
			Code:   "validation_failed",
			Fields: verr.Fields,
		}, true
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, ErrorResponse{Error: m.target.Error(), Code: m.code}, true
		}
	}

	// the client went away; nobody reads the response
	if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
		return 0, ErrorResponse{}, false
	}

	logger.FromContext(r.Context()).Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err))
	return http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: "internal_error"}, true
}

// decodeJSON reads the request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func productIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
