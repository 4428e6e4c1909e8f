package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fjod/storefront/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ownerEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner, ok := auth.OwnerFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		respondJSON(w, http.StatusOK, owner)
	})
}

func TestResolveOwner(t *testing.T) {
	tokens := auth.NewTokens("test-secret")
	customer, _, err := tokens.Issue("user-42", auth.RoleCustomer, time.Hour)
	require.NoError(t, err)
	expired, _, err := tokens.Issue("user-42", auth.RoleCustomer, -time.Minute)
	require.NoError(t, err)
	foreign, _, err := auth.NewTokens("other-secret").Issue("user-42", auth.RoleAdmin, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name    string
		headers map[string]string
		status  int
		owner   auth.Owner
	}{
		{"no identity", nil, http.StatusNoContent, auth.Owner{}},
		{"bearer token", map[string]string{"Authorization": "Bearer " + customer}, http.StatusOK, auth.Owner{ID: "user-42", Role: auth.RoleCustomer}},
		{"token wins over session", map[string]string{"Authorization": "Bearer " + customer, "X-Session-ID": testSession}, http.StatusOK, auth.Owner{ID: "user-42", Role: auth.RoleCustomer}},
		{"session header", map[string]string{"X-Session-ID": testSession}, http.StatusOK, auth.Owner{ID: "session:" + testSession, Role: auth.RoleGuest, Anonymous: true}},
		{"expired token", map[string]string{"Authorization": "Bearer " + expired}, http.StatusUnauthorized, auth.Owner{}},
		{"foreign signature", map[string]string{"Authorization": "Bearer " + foreign}, http.StatusUnauthorized, auth.Owner{}},
		{"basic auth", map[string]string{"Authorization": "Basic dXNlcjpwYXNz"}, http.StatusUnauthorized, auth.Owner{}},
		{"short session", map[string]string{"X-Session-ID": "abc"}, http.StatusBadRequest, auth.Owner{}},
		{"session with slash", map[string]string{"X-Session-ID": "session/../../x"}, http.StatusBadRequest, auth.Owner{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			ResolveOwner(tokens)(ownerEcho()).ServeHTTP(rec, req)

			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.owner, decode[auth.Owner](t, rec))
			}
		})
	}
}

func TestMaxBodySize(t *testing.T) {
	h := NewCartHandler(nil, nil, ShippingPolicy{}, time.Second)
	handler := MaxBodySize(16)(RequireOwner(http.HandlerFunc(h.AddItem)))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"product_id": 1, "quantity": 1}`))
	req = req.WithContext(auth.WithOwner(req.Context(), auth.Owner{ID: "u", Role: auth.RoleGuest}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", decode[ErrorResponse](t, rec).Code)
}

func TestGuestSession(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/session/guest", nil, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	session := decode[GuestSessionDTO](t, rec)
	assert.True(t, strings.HasPrefix(session.OwnerID, "guest_"))

	claims, err := s.tokens.Verify(session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.OwnerID, claims.Subject)
	assert.Equal(t, auth.RoleGuest, claims.Role)

	rec = s.do(t, http.MethodGet, "/api/v1/cart", nil, bearer(session.Token))
	assert.Equal(t, http.StatusOK, rec.Code)

	other := decode[GuestSessionDTO](t, s.do(t, http.MethodPost, "/api/v1/session/guest", nil, nil))
	assert.NotEqual(t, session.OwnerID, other.OwnerID)
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/does-not-exist", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
