package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestTokens_IssueAndVerify(t *testing.T) {
	tokens := NewTokens("test-secret")

	signed, expires, err := tokens.Issue("user-42", RoleCustomer, time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	claims, err := tokens.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.Subject)
	assert.Equal(t, RoleCustomer, claims.Role)
}

func TestTokens_Rejects(t *testing.T) {
	tokens := NewTokens("test-secret")

	expired := NewTokens("test-secret")
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, _, err := expired.Issue("user-42", RoleCustomer, time.Hour)
	require.NoError(t, err)

	foreign, _, err := NewTokens("other-secret").Issue("user-42", RoleAdmin, time.Hour)
	require.NoError(t, err)

	noSubject, _, err := tokens.Issue("", RoleCustomer, time.Hour)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Role:             RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "x", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"expired":      expiredToken,
		"wrong secret": foreign,
		"no subject":   noSubject,
		"alg none":     none,
		"garbage":      "not.a.token",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := tokens.Verify(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func newAdminLogin(t *testing.T) *AdminLogin {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	return NewAdminLogin("Admin@Example.com", string(hash), NewTokens("test-secret"), 8*time.Hour)
}

func TestAdminLogin(t *testing.T) {
	login := newAdminLogin(t)

	token, _, err := login.Login("admin@example.com ", "correct horse")
	require.NoError(t, err)

	claims, err := NewTokens("test-secret").Verify(token)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, claims.Role)
	assert.Equal(t, "admin@example.com", claims.Subject)

	_, _, err = login.Login("admin@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = login.Login("intruder@example.com", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAdminLogin_NotConfigured(t *testing.T) {
	login := NewAdminLogin("", "", NewTokens("s"), time.Hour)

	_, _, err := login.Login("admin@example.com", "anything")
	assert.ErrorIs(t, err, ErrAdminDisabled)
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")))
}

func TestOwnerContext(t *testing.T) {
	_, ok := OwnerFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithOwner(context.Background(), Owner{ID: "guest_1", Role: RoleGuest})
	o, ok := OwnerFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "guest_1", o.ID)
	assert.False(t, o.IsAdmin())
}
