package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	authmw "github.com/mind-engage/answerset/internal/auth/middleware"
	"github.com/mind-engage/answerset/internal/history"
	"github.com/mind-engage/answerset/internal/rbac"
	"github.com/mind-engage/answerset/internal/users"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Deps struct {
	DB       Pinger
	Auth     *authmw.AuthService
	Accounts authmw.Accounts
	Users    *users.Store
	Events   *history.EventRepo
	Compare  *Comparer
}

// NewRouter mounts the API on a chi router. Global middleware goes in mw
// since chi wants it before any route.
func NewRouter(d Deps, mw ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(mw...)

	r.Post("/auth/login", authmw.LoginHandler(d.Auth, d.Accounts))

	// Protected API (JWT → role in context → stored role → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(authmw.JWTMiddleware(d.Auth))
		pr.Use(authmw.AttachRoleFromDB(d.Users, d.Accounts.AdminUser))

		pr.With(rbac.Require("answer:compare")).
			Post("/compare", CompareHandler(d.Compare))

		profiles, limits := d.Compare.Profiles, d.Compare.Limits
		pr.With(rbac.RequireAny("profile:view", "profile:write")).
			Get("/profiles", ListProfilesHandler(profiles, limits))
		pr.With(rbac.RequireAny("profile:view", "profile:write")).
			Get("/profiles/{name}", GetProfileHandler(profiles, limits))
		pr.With(rbac.Require("profile:write")).
			Put("/profiles/{name}", PutProfileHandler(profiles, limits))
		pr.With(rbac.Require("profile:write")).
			Delete("/profiles/{name}", DeleteProfileHandler(profiles))

		pr.With(rbac.Require("history:view")).
			Get("/history", ListHistoryHandler(d.Events))

		pr.With(rbac.Require("users:write")).
			Post("/users", UpsertUserHandler(d.Users))
		pr.With(rbac.Require("users:list")).
			Get("/users", ListUsersHandler(d.Users))
		pr.With(rbac.Require("user:change_password")).
			Post("/users/change-password", ChangePasswordHandler(d.Users))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := d.DB.PingContext(ctx); err != nil {
			http.Error(w, "db unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	return r
}
