package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/answerset/internal/profile"
)

type profileResp struct {
	Name      string                 `json:"name"`
	Options   map[string]interface{} `json:"options"`
	Resolved  map[string]interface{} `json:"resolved"`
	UpdatedAt time.Time              `json:"updated_at"`
}

func toProfileResp(p profile.Profile, l profile.Limits) profileResp {
	return profileResp{
		Name:      p.Name,
		Options:   p.Raw,
		Resolved:  p.Options(l).Settings().Map(),
		UpdatedAt: p.UpdatedAt,
	}
}

func profileError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, profile.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, profile.ErrInvalidName):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "profiles: "+err.Error(), http.StatusInternalServerError)
	}
}

// GET /profiles
func ListProfilesHandler(store profile.Store, l profile.Limits) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ps, err := store.List(r.Context())
		if err != nil {
			profileError(w, err)
			return
		}
		out := make([]profileResp, 0, len(ps))
		for _, p := range ps {
			out = append(out, toProfileResp(p, l))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// GET /profiles/{name}
func GetProfileHandler(store profile.Store, l profile.Limits) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := store.Get(r.Context(), strings.TrimSpace(chi.URLParam(r, "name")))
		if err != nil {
			profileError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toProfileResp(p, l))
	}
}

// PUT /profiles/{name}  body: the raw option map
func PutProfileHandler(store profile.Store, l profile.Limits) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]interface{}
		if !decodeJSON(w, r, &raw) {
			return
		}
		if raw == nil {
			http.Error(w, "options must be a JSON object", http.StatusBadRequest)
			return
		}
		p, err := store.Put(r.Context(), profile.Profile{
			Name: strings.TrimSpace(chi.URLParam(r, "name")),
			Raw:  raw,
		})
		if err != nil {
			profileError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toProfileResp(p, l))
	}
}

// DELETE /profiles/{name}
func DeleteProfileHandler(store profile.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimSpace(chi.URLParam(r, "name"))
		if name == profile.DefaultName {
			http.Error(w, "the default profile cannot be deleted", http.StatusConflict)
			return
		}
		if err := store.Delete(r.Context(), name); err != nil {
			profileError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
