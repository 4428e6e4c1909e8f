package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fjod/storefront/internal/admin"
	"github.com/fjod/storefront/internal/auth"
	"github.com/fjod/storefront/internal/catalog"
	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/internal/db/dbtest"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/notify"
	"github.com/fjod/storefront/internal/repository"
	"github.com/fjod/storefront/internal/service"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	testAdminEmail    = "admin@example.com"
	testAdminPassword = "correct horse battery"
	testSession       = "session-0001"
)

type testServer struct {
	handler http.Handler
	tokens  *auth.Tokens
	admin   *admin.Service
	broker  *notify.MemoryBroker
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	conn := dbtest.SQLite(t)
	products := catalog.NewSQLRepository(conn)
	orders := checkout.NewSQLRepository(conn)

	broker := notify.NewMemoryBroker()
	slots := service.NewSlotStore(repository.NewMemoryRepository(), nil, broker)
	cart := service.NewCartStore(slots)
	wishlist := service.NewWishlistStore(slots, cart)

	tokens := auth.NewTokens("test-secret")
	hash, err := auth.HashPassword(testAdminPassword)
	require.NoError(t, err)

	adminSvc := admin.NewService(products, orders)
	shipping := ShippingPolicy{
		FreeShippingThreshold: decimal.NewFromInt(50000),
		FlatShippingFee:       decimal.NewFromInt(500),
	}

	handler := NewRouter(Deps{
		Catalog:    catalog.NewService(products, nil),
		Cart:       cart,
		Wishlist:   wishlist,
		Checkout: checkout.NewService(orders, cart, checkout.Pricing{
			FreeShippingThreshold: shipping.FreeShippingThreshold,
			FlatShippingFee:       shipping.FlatShippingFee,
			Currency:              "USD",
		}),
		Admin:      adminSvc,
		AdminLogin: auth.NewAdminLogin(testAdminEmail, hash, tokens, time.Hour),
		Tokens:     tokens,
		Broker:     broker,
		Shipping:   shipping,
		Health: map[string]HealthCheck{
			"database": conn.PingContext,
		},
		RequestTimeout: 5 * time.Second,
		MaxBodySize:    1 << 20,
		GuestTokenTTL:  time.Hour,
		Heartbeat:      50 * time.Millisecond,
	})

	return &testServer{handler: handler, tokens: tokens, admin: adminSvc, broker: broker}
}

// seedProduct creates an active product through the admin service.
func (s *testServer) seedProduct(t *testing.T, name, slug string, price int64, featured bool) *domain.Product {
	t.Helper()
	p, err := s.admin.CreateProduct(context.Background(), admin.ProductInput{
		Name:          name,
		Slug:          slug,
		Price:         decimal.NewFromInt(price),
		StockQuantity: 10,
		Images:        []string{slug + ".jpg"},
		IsFeatured:    featured,
	})
	require.NoError(t, err)
	return p
}

func (s *testServer) adminToken(t *testing.T) string {
	t.Helper()
	token, _, err := s.tokens.Issue(testAdminEmail, auth.RoleAdmin, time.Hour)
	require.NoError(t, err)
	return token
}

// guest returns auth headers for a fresh server-issued guest session.
func (s *testServer) guest(t *testing.T) header {
	t.Helper()
	token, _, err := s.tokens.Issue("guest_"+uuid.NewString(), auth.RoleGuest, time.Hour)
	require.NoError(t, err)
	return bearer(token)
}

type header map[string]string

func withSession(id string) header {
	return header{"X-Session-ID": id}
}

func bearer(token string) header {
	return header{"Authorization": "Bearer " + token}
}

func (s *testServer) do(t *testing.T, method, path string, body any, h header) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range h {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func decimalEqual(t *testing.T, want int64, got decimal.Decimal) {
	t.Helper()
	require.True(t, decimal.NewFromInt(want).Equal(got), "want %d, got %s", want, got)
}
