package http

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/fjod/storefront/internal/admin"
	"github.com/fjod/storefront/internal/auth"
	"github.com/fjod/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminLogin(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/admin/login", LoginRequestDTO{Email: testAdminEmail, Password: "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_credentials", decode[ErrorResponse](t, rec).Code)

	rec = s.do(t, http.MethodPost, "/api/v1/admin/login", LoginRequestDTO{Email: "ADMIN@example.com", Password: testAdminPassword}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[TokenResponseDTO](t, rec)
	assert.True(t, resp.ExpiresAt.After(time.Now()))

	claims, err := s.tokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, claims.Role)
}

func TestAdmin_RequiresAdminRole(t *testing.T) {
	s := newTestServer(t)
	customer, _, err := s.tokens.Issue("user-1", auth.RoleCustomer, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header header
		status int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"guest session", withSession(testSession), http.StatusForbidden},
		{"customer token", bearer(customer), http.StatusForbidden},
		{"admin token", bearer(s.adminToken(t)), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodGet, "/api/v1/admin/orders", nil, tt.header)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestAdmin_ProductLifecycle(t *testing.T) {
	s := newTestServer(t)
	h := bearer(s.adminToken(t))
	input := admin.ProductInput{
		Name:          "Neo QLED 75",
		Slug:          "neo-qled-75",
		Price:         decimal.NewFromInt(250000),
		StockQuantity: 2,
	}

	rec := s.do(t, http.MethodPost, "/api/v1/admin/products", input, h)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[domain.Product](t, rec)
	assert.True(t, created.IsActive)
	path := fmt.Sprintf("/api/v1/admin/products/%d", created.ID)

	rec = s.do(t, http.MethodPost, "/api/v1/admin/products", input, h)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "slug_taken", decode[ErrorResponse](t, rec).Code)

	invalid := input
	invalid.Slug = "Not A Slug!"
	invalid.Price = decimal.NewFromInt(-1)
	rec = s.do(t, http.MethodPost, "/api/v1/admin/products", invalid, h)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	fields := decode[ErrorResponse](t, rec).Fields
	assert.Contains(t, fields, "slug")
	assert.Contains(t, fields, "price")

	inactive := false
	input.Price = decimal.NewFromInt(199000)
	input.IsActive = &inactive
	rec = s.do(t, http.MethodPut, path, input, h)
	require.Equal(t, http.StatusOK, rec.Code)
	decimalEqual(t, 199000, decode[domain.Product](t, rec).Price)

	// inactive products stay visible to admins but not to shoppers
	rec = s.do(t, http.MethodGet, path, nil, h)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[domain.Product](t, rec).IsActive)
	rec = s.do(t, http.MethodGet, "/api/v1/products/neo-qled-75", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, path, nil, h).Code)
	rec = s.do(t, http.MethodDelete, path, nil, h)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/v1/admin/products/zero", input, h)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdmin_SeesEveryOrder(t *testing.T) {
	s := newTestServer(t)
	p := s.seedProduct(t, "Soundbar", "soundbar", 2000, false)

	var ids []string
	for i := range 2 {
		h := s.guest(t)
		require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ProductID: p.ID}, h).Code)
		rec := s.do(t, http.MethodPost, "/api/v1/checkout", validForm(), withKey(h, fmt.Sprintf("order-%d", i)))
		require.Equal(t, http.StatusCreated, rec.Code)
		ids = append(ids, rec.Header().Get("Location"))
	}

	h := bearer(s.adminToken(t))
	rec := s.do(t, http.MethodGet, "/api/v1/admin/orders", nil, h)
	require.Equal(t, http.StatusOK, rec.Code)
	orders := decode[OrdersResponse](t, rec).Orders
	require.Len(t, orders, 2)

	rec = s.do(t, http.MethodGet, "/api/v1/admin/orders/"+orders[0].ID.String(), nil, h)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, ids, "/orders/"+orders[0].ID.String()+"/confirmation")
}
