package main

import (
	"log/slog"
	"net/http"

	"github.com/movieflix/backend/internal/accounts"
	"github.com/movieflix/backend/internal/history"
	"github.com/movieflix/backend/internal/identity"
	"github.com/movieflix/backend/internal/middleware"
	"github.com/movieflix/backend/internal/models"
	"github.com/movieflix/backend/internal/mylist"
	"github.com/movieflix/backend/internal/plans"
	"github.com/movieflix/backend/internal/profiles"
	"github.com/movieflix/backend/internal/testimonials"
)

type routerDeps struct {
	verifier     identity.Verifier
	accounts     *accounts.Service
	profiles     *profiles.Service
	plans        *plans.Service
	testimonials *testimonials.Service
	history      *history.Service
	mylist       *mylist.Service
	logger       *slog.Logger
}

// newRouter builds the /api mux. Middleware chain per route:
// Authenticate -> (RequireRole on admin routes) -> handler.
func newRouter(d routerDeps) *http.ServeMux {
	mux := http.NewServeMux()

	auth := middleware.Authenticate(d.verifier, d.accounts, d.logger)
	admin := middleware.RequireRole(d.accounts.Admins(), models.RoleAdmin)

	authed := func(h http.HandlerFunc) http.Handler { return auth(h) }
	adminOnly := func(h http.HandlerFunc) http.Handler { return auth(admin(h)) }

	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Plans: public reads, admin writes.
	ph := plans.NewHandler(d.plans, d.logger)
	mux.HandleFunc("GET /api/plans", ph.List)
	mux.HandleFunc("GET /api/plans/{name}", ph.Get)
	mux.Handle("POST /api/plans", adminOnly(ph.Create))
	mux.Handle("PUT /api/plans/{id}", adminOnly(ph.Update))
	mux.Handle("DELETE /api/plans/{id}", adminOnly(ph.Delete))

	// Testimonials: public wall, admin moderation.
	th := testimonials.NewHandler(d.testimonials, d.logger)
	mux.HandleFunc("GET /api/testimonials", th.List)
	mux.HandleFunc("POST /api/testimonials", th.Submit)
	mux.Handle("GET /api/testimonials/all", adminOnly(th.ListAll))
	mux.Handle("PUT /api/testimonials/{id}/approve", adminOnly(th.Approve))
	mux.Handle("DELETE /api/testimonials/{id}", adminOnly(th.Delete))

	// Accounts.
	ah := accounts.NewHandler(d.accounts, d.logger)
	mux.Handle("GET /api/users/me", authed(ah.Me))
	mux.Handle("PUT /api/users/me", authed(ah.UpdateMe))
	mux.Handle("PUT /api/users/me/subscription", authed(ah.UpdateSubscription))
	mux.Handle("POST /api/users/me/trial", authed(ah.StartTrial))
	mux.Handle("POST /api/users/me/subscription/cancel", authed(ah.CancelSubscription))
	mux.Handle("GET /api/users", adminOnly(ah.List))
	mux.Handle("GET /api/users/search", adminOnly(ah.Search))
	mux.Handle("GET /api/users/{id}", adminOnly(ah.Get))
	mux.Handle("PUT /api/users/{id}/role", adminOnly(ah.UpdateRole))
	mux.Handle("DELETE /api/users/{id}", adminOnly(ah.Delete))

	// Viewer profiles. Literal segments before the {id} wildcard.
	prh := profiles.NewHandler(d.profiles, d.logger)
	mux.Handle("GET /api/profiles", authed(prh.List))
	mux.Handle("POST /api/profiles", authed(prh.Create))
	mux.Handle("GET /api/profiles/limits", authed(prh.Limits))
	mux.Handle("GET /api/profiles/avatars", authed(prh.Avatars))
	mux.Handle("GET /api/profiles/active", authed(prh.GetActive))
	mux.Handle("GET /api/profiles/{id}", authed(prh.Get))
	mux.Handle("PUT /api/profiles/{id}", authed(prh.Update))
	mux.Handle("DELETE /api/profiles/{id}", authed(prh.Delete))
	mux.Handle("POST /api/profiles/{id}/switch", authed(prh.Switch))
	mux.Handle("GET /api/profiles/{id}/history", authed(prh.History))
	mux.Handle("POST /api/profiles/{id}/history", authed(prh.AddHistory))
	mux.Handle("DELETE /api/profiles/{id}/history", authed(prh.ClearHistory))
	mux.Handle("GET /api/profiles/{id}/continue-watching", authed(prh.ContinueWatching))
	mux.Handle("GET /api/profiles/{id}/mylist", authed(prh.MyList))
	mux.Handle("POST /api/profiles/{id}/mylist", authed(prh.AddToList))
	mux.Handle("DELETE /api/profiles/{id}/mylist/{contentId}", authed(prh.RemoveFromList))

	// Account-level watch history.
	wh := history.NewHandler(d.history, d.logger)
	mux.Handle("GET /api/watch-history", authed(wh.List))
	mux.Handle("POST /api/watch-history", authed(wh.Add))
	mux.Handle("DELETE /api/watch-history", authed(wh.Clear))
	mux.Handle("GET /api/watch-history/user/{id}", adminOnly(wh.ForAccount))

	// Account-level my list.
	mh := mylist.NewHandler(d.mylist, d.logger)
	mux.Handle("GET /api/mylist", authed(mh.List))
	mux.Handle("POST /api/mylist", authed(mh.Add))
	mux.Handle("DELETE /api/mylist", authed(mh.Clear))
	mux.Handle("GET /api/mylist/check/{movieId}", authed(mh.Check))
	mux.Handle("DELETE /api/mylist/{movieId}", authed(mh.Remove))

	return mux
}
