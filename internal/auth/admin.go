package auth

import (
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAdminDisabled is returned when no admin account is configured.
	ErrAdminDisabled = errors.New("admin login is not configured")
)

// AdminLogin checks the configured admin account and issues admin tokens.
type AdminLogin struct {
	email        string
	passwordHash []byte
	tokens       *Tokens
	ttl          time.Duration
}

func NewAdminLogin(email, passwordHash string, tokens *Tokens, ttl time.Duration) *AdminLogin {
	return &AdminLogin{
		email:        strings.ToLower(strings.TrimSpace(email)),
		passwordHash: []byte(passwordHash),
		tokens:       tokens,
		ttl:          ttl,
	}
}

// Login returns a signed admin token when email and password match.
func (a *AdminLogin) Login(email, password string) (string, time.Time, error) {
	if a.email == "" || len(a.passwordHash) == 0 {
		return "", time.Time{}, ErrAdminDisabled
	}

	emailOK := subtle.ConstantTimeCompare([]byte(strings.ToLower(strings.TrimSpace(email))), []byte(a.email)) == 1
	// always run bcrypt so a wrong email costs the same as a wrong password
	passwordErr := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password))
	if !emailOK || passwordErr != nil {
		return "", time.Time{}, ErrInvalidCredentials
	}

	return a.tokens.Issue(a.email, RoleAdmin, a.ttl)
}

// HashPassword returns a bcrypt hash suitable for the ADMIN_PASSWORD_HASH setting.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
