package http

import (
	"errors"
	"net/http"

	authmw "github.com/mind-engage/answerset/internal/auth/middleware"
	"github.com/mind-engage/answerset/internal/rbac"
	"github.com/mind-engage/answerset/internal/users"
)

type upsertUserReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"` // default: reviewer
}

// POST /users
func UpsertUserHandler(store *users.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req upsertUserReq
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Role == "" {
			req.Role = "reviewer"
		}
		if !rbac.KnownRole(req.Role) {
			http.Error(w, "unknown role: "+req.Role, http.StatusBadRequest)
			return
		}
		u, err := store.Upsert(r.Context(), req.Username, req.Password, req.Role)
		if err != nil {
			userError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}

// GET /users?role=reviewer
func ListUsersHandler(store *users.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		us, err := store.List(r.Context(), r.URL.Query().Get("role"))
		if err != nil {
			userError(w, err)
			return
		}
		if us == nil {
			us = []users.User{}
		}
		writeJSON(w, http.StatusOK, us)
	}
}

type changePasswordReq struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// POST /users/change-password
func ChangePasswordHandler(store *users.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := authmw.SubjectFromContext(r.Context())
		if userID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var req changePasswordReq
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := store.ChangePassword(r.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
			userError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func userError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, users.ErrInvalid):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, users.ErrNotFound):
		http.Error(w, "user not found", http.StatusNotFound)
	case errors.Is(err, users.ErrBadCredentials):
		http.Error(w, "incorrect old password", http.StatusForbidden)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
