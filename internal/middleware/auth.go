package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/movieflix/backend/internal/identity"
	"github.com/movieflix/backend/internal/models"
)

type contextKey string

const ctxAccountKey contextKey = "account"

// Directory syncs a verified identity to an account record.
type Directory interface {
	Sync(ctx context.Context, ident *identity.Identity) (*models.Account, error)
}

// Authenticate verifies the Bearer credential with the external identity
// provider and syncs the caller's account ("sync on login"). On success the
// account is placed in the request context.
func Authenticate(verifier identity.Verifier, dir Directory, log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extractBearer(r)
			if raw == "" {
				http.Error(w, `{"error":"Unauthorized","message":"No token provided or invalid token format"}`, http.StatusUnauthorized)
				return
			}

			ident, err := verifier.Verify(r.Context(), raw)
			if err != nil {
				http.Error(w, `{"error":"Unauthorized","message":"Invalid token"}`, http.StatusUnauthorized)
				return
			}

			acc, err := dir.Sync(r.Context(), ident)
			if err != nil {
				log.Error("account sync failed", "subject", ident.Subject, "error", err)
				var conflict interface{ Conflict() bool }
				if errors.As(err, &conflict) && conflict.Conflict() {
					http.Error(w, `{"error":"Conflict","message":"User data conflict"}`, http.StatusConflict)
					return
				}
				http.Error(w, `{"error":"Internal Server Error","message":"Failed to sync user"}`, http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), acc)))
		})
	}
}

// AccountFromCtx returns the authenticated account or nil.
func AccountFromCtx(ctx context.Context) *models.Account {
	acc, _ := ctx.Value(ctxAccountKey).(*models.Account)
	return acc
}

// WithAccount returns a context carrying the given account.
func WithAccount(ctx context.Context, acc *models.Account) context.Context {
	return context.WithValue(ctx, ctxAccountKey, acc)
}

func extractBearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
