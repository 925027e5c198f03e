package middleware

import "net/http"

// Elevator reports whether an email belongs to a permanent admin.
type Elevator interface {
	IsElevated(email string) bool
}

// RequireRole gates a route to the given roles. Permanent admins pass every
// role check regardless of their stored role. Must run after Authenticate.
func RequireRole(admins Elevator, roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			acc := AccountFromCtx(r.Context())
			if acc == nil {
				http.Error(w, `{"error":"Unauthorized","message":"Authentication required"}`, http.StatusUnauthorized)
				return
			}
			if admins != nil && admins.IsElevated(acc.Email) {
				next.ServeHTTP(w, r)
				return
			}
			if _, ok := allowed[acc.Role]; !ok {
				http.Error(w, `{"error":"Forbidden","message":"Insufficient permissions"}`, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
