package http

import (
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/auth"
	"github.com/google/uuid"
)

const guestSubjectPrefix = "guest_"

// TokenIssuer signs owner tokens.
type TokenIssuer interface {
	Issue(subject, role string, ttl time.Duration) (string, time.Time, error)
}

type SessionHandler struct {
	tokens TokenIssuer
	ttl    time.Duration
}

func NewSessionHandler(tokens TokenIssuer, ttl time.Duration) *SessionHandler {
	return &SessionHandler{tokens: tokens, ttl: ttl}
}

type GuestSessionDTO struct {
	TokenResponseDTO
	OwnerID string `json:"owner_id"`
}

// POST /api/v1/session/guest
// Issues a token for a fresh guest owner. Clients that already hold a token keep using it.
func (h *SessionHandler) CreateGuest(w http.ResponseWriter, r *http.Request) {
	subject := guestSubjectPrefix + uuid.NewString()
	token, expires, err := h.tokens.Issue(subject, auth.RoleGuest, h.ttl)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, GuestSessionDTO{
		TokenResponseDTO: TokenResponseDTO{Token: token, ExpiresAt: expires},
		OwnerID:          subject,
	})
}
