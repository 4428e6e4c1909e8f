package http

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/fjod/storefront/internal/auth"
	"github.com/fjod/storefront/internal/logger"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const (
	sessionHeader = "X-Session-ID"
	// sessionOwnerPrefix keeps header sessions apart from token subjects.
	sessionOwnerPrefix = "session:"
)

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,128}$`)

// TokenVerifier checks bearer tokens.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// RequestLogger stores log in the request context and writes one line per request.
func RequestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ctx := logger.WithContext(r.Context(), log)

			next.ServeHTTP(ww, r.WithContext(ctx))

			logger.FromContext(ctx).Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)))
		})
	}
}

// ResolveOwner attaches the caller's identity to the context. A bearer token wins over the
// session header; an invalid token is rejected rather than silently downgraded to a guest.
func ResolveOwner(tokens TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if header := r.Header.Get("Authorization"); header != "" {
				raw, ok := strings.CutPrefix(header, "Bearer ")
				if !ok || raw == "" {
					respondError(w, http.StatusUnauthorized, "invalid_token", "authorization header must be a bearer token")
					return
				}
				claims, err := tokens.Verify(raw)
				if err != nil {
					respondError(w, http.StatusUnauthorized, "invalid_token", auth.ErrInvalidToken.Error())
					return
				}
				ctx := auth.WithOwner(r.Context(), auth.Owner{ID: claims.Subject, Role: claims.Role})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			if session := r.Header.Get(sessionHeader); session != "" {
				if !sessionIDPattern.MatchString(session) {
					respondError(w, http.StatusBadRequest, "invalid_session", "malformed session id")
					return
				}
				owner := auth.Owner{ID: sessionOwnerPrefix + session, Role: auth.RoleGuest, Anonymous: true}
				next.ServeHTTP(w, r.WithContext(auth.WithOwner(r.Context(), owner)))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireOwner rejects requests without a resolved owner.
func RequireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.OwnerFromContext(r.Context()); !ok {
			respondError(w, http.StatusUnauthorized, "unauthorized", "missing owner identity")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireToken rejects owners that only presented a session header. Orders carry customer
// contact data, so they are bound to a server-issued token.
func RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner, ok := auth.OwnerFromContext(r.Context())
		if !ok || owner.Anonymous {
			respondError(w, http.StatusUnauthorized, "token_required", "a bearer token is required, see POST /api/v1/session/guest")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner, ok := auth.OwnerFromContext(r.Context())
		if !ok {
			respondError(w, http.StatusUnauthorized, "unauthorized", "missing admin token")
			return
		}
		if !owner.IsAdmin() {
			respondError(w, http.StatusForbidden, "forbidden", "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// MaxBodySize caps request bodies at limit bytes.
func MaxBodySize(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limit > 0 && r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// mustOwner is used by handlers mounted behind RequireOwner.
func mustOwner(r *http.Request) auth.Owner {
	owner, _ := auth.OwnerFromContext(r.Context())
	return owner
}
