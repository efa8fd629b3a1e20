package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/answerset/internal/answerset"
	api "github.com/mind-engage/answerset/internal/api/http"
	authmw "github.com/mind-engage/answerset/internal/auth/middleware"
	"github.com/mind-engage/answerset/internal/db"
	"github.com/mind-engage/answerset/internal/grading"
	"github.com/mind-engage/answerset/internal/history"
	"github.com/mind-engage/answerset/internal/logger"
	"github.com/mind-engage/answerset/internal/profile"
	"github.com/mind-engage/answerset/internal/users"
)

type harness struct {
	t *testing.T
	h http.Handler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	dbh, err := db.Open(ctx, db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { dbh.Close() })

	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)

	profiles := profile.NewSQLStore(dbh)
	_, err = profile.Seed(ctx, profiles, "")
	require.NoError(t, err)
	grader, err := grading.NewDefaultGrader()
	require.NoError(t, err)
	us := users.NewStore(dbh, bcrypt.MinCost)
	events := history.NewEventRepo(dbh)

	r := api.NewRouter(api.Deps{
		DB:       dbh,
		Auth:     authmw.NewAuthService("test-key"),
		Accounts: authmw.Accounts{AdminUser: "admin", AdminPassHash: string(hash), Users: us},
		Users:    us,
		Events:   events,
		Compare: &api.Comparer{
			Profiles: profiles,
			Grader:   grader,
			History:  history.NewRecorder(events, "test"),
			Log:      logger.Nop(),
		},
	})
	return &harness{t: t, h: r}
}

func (h *harness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		buf, err := json.Marshal(b)
		require.NoError(h.t, err)
		rd = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.h.ServeHTTP(rec, req)
	return rec
}

func (h *harness) login(user, pw string) string {
	h.t.Helper()
	rec := h.do(http.MethodPost, "/auth/login", "", map[string]string{"username": user, "password": pw})
	require.Equal(h.t, http.StatusOK, rec.Code, rec.Body.String())
	var out map[string]string
	require.NoError(h.t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out["access_token"]
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type compareOut struct {
	HTML       string   `json:"html"`
	Correct    bool     `json:"correct"`
	Minor      bool     `json:"minor"`
	AutoPoints float64  `json:"auto_points"`
	MaxPoints  float64  `json:"max_points"`
	Feedback   []string `json:"feedback"`
	EventID    string   `json:"event_id"`
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/healthz", "", nil).Code)
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/readyz", "", nil).Code)
}

func TestCompareFlow(t *testing.T) {
	h := newHarness(t)
	admin := h.login("admin", "secret")

	rec := h.do(http.MethodPost, "/users", admin, map[string]string{"username": "ana", "password": "pw"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "reviewer", decode[users.User](t, rec).Role)
	reviewer := h.login("ana", "pw")

	assert.Equal(t, http.StatusUnauthorized,
		h.do(http.MethodPost, "/compare", "", map[string]string{"correct": "x", "given": "x"}).Code)

	rec = h.do(http.MethodPost, "/compare", reviewer, map[string]any{"correct": "Paris", "given": "paris", "points": 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode[compareOut](t, rec)
	assert.True(t, out.Correct)
	assert.Equal(t, 2.0, out.AutoPoints)
	assert.Contains(t, out.HTML, "typeGood")
	assert.NotEmpty(t, out.EventID)

	// reviewers cannot edit profiles
	assert.Equal(t, http.StatusForbidden,
		h.do(http.MethodPut, "/profiles/cased", reviewer, map[string]any{answerset.KeyIgnoreCase: false}).Code)

	rec = h.do(http.MethodPut, "/profiles/cased", admin, map[string]any{answerset.KeyIgnoreCase: false})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(http.MethodPost, "/compare", reviewer, map[string]any{"correct": "Paris", "given": "paris", "profile": "cased"})
	require.Equal(t, http.StatusOK, rec.Code)
	out = decode[compareOut](t, rec)
	assert.False(t, out.Correct)
	assert.Zero(t, out.AutoPoints)
	assert.Contains(t, out.HTML, "typearrow")

	// per-request overrides
	rec = h.do(http.MethodPost, "/compare", reviewer, map[string]any{
		"correct": "a/b", "given": "b/a", "options": map[string]any{answerset.KeySeparators: "/"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[compareOut](t, rec).Correct)

	assert.Equal(t, http.StatusNotFound,
		h.do(http.MethodPost, "/compare", reviewer, map[string]any{"correct": "x", "given": "x", "profile": "nope"}).Code)
	assert.Equal(t, http.StatusBadRequest,
		h.do(http.MethodPost, "/compare", reviewer, map[string]any{"correct": "x", "given": "x", "points": -1}).Code)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/compare", reviewer, "{").Code)

	big := `{"correct":"` + strings.Repeat("a", 1<<20) + `"}`
	assert.Equal(t, http.StatusRequestEntityTooLarge, h.do(http.MethodPost, "/compare", reviewer, big).Code)

	// history is for editors and admins
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, "/history", reviewer, nil).Code)
	rec = h.do(http.MethodGet, "/history", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	events := decode[[]history.Event](t, rec)
	require.Len(t, events, 3)
	var first history.Comparison
	require.NoError(t, json.Unmarshal([]byte(events[0].DataJSON), &first))
	assert.Equal(t, profile.DefaultName, first.Profile)
	assert.Equal(t, grading.KindTypeIn, first.Kind)
	assert.True(t, first.Correct)

	rec = h.do(http.MethodGet, "/history?after="+strconv.FormatInt(events[1].Seq, 10), admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]history.Event](t, rec), 1)
}

func TestProfileEndpoints(t *testing.T) {
	h := newHarness(t)
	admin := h.login("admin", "secret")

	rec := h.do(http.MethodPut, "/profiles/grey", admin, map[string]any{
		answerset.KeyEquivalentStrings: [][]string{{"grey", "gray"}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(http.MethodGet, "/profiles/grey", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var p struct {
		Name     string         `json:"name"`
		Options  map[string]any `json:"options"`
		Resolved map[string]any `json:"resolved"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "grey", p.Name)
	assert.Len(t, p.Options, 1)
	assert.Equal(t, true, p.Resolved[answerset.KeyIgnoreCase])

	rec = h.do(http.MethodGet, "/profiles", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 2)

	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPut, "/profiles/bad%20name", admin, map[string]any{}).Code)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPut, "/profiles/x", admin, "[1,2]").Code)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPut, "/profiles/x", admin, "null").Code)

	assert.Equal(t, http.StatusConflict, h.do(http.MethodDelete, "/profiles/default", admin, nil).Code)
	assert.Equal(t, http.StatusNoContent, h.do(http.MethodDelete, "/profiles/grey", admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodDelete, "/profiles/grey", admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/profiles/grey", admin, nil).Code)
}

func TestUserEndpoints(t *testing.T) {
	h := newHarness(t)
	admin := h.login("admin", "secret")

	assert.Equal(t, http.StatusBadRequest,
		h.do(http.MethodPost, "/users", admin, map[string]string{"username": "x", "password": "pw", "role": "student"}).Code)
	assert.Equal(t, http.StatusBadRequest,
		h.do(http.MethodPost, "/users", admin, map[string]string{"username": "x"}).Code)
	require.Equal(t, http.StatusOK,
		h.do(http.MethodPost, "/users", admin, map[string]string{"username": "ed", "password": "pw", "role": "editor"}).Code)

	editor := h.login("ed", "pw")
	assert.Equal(t, http.StatusForbidden,
		h.do(http.MethodPost, "/users", editor, map[string]string{"username": "y", "password": "pw"}).Code)
	assert.Equal(t, http.StatusOK,
		h.do(http.MethodPut, "/profiles/mine", editor, map[string]any{}).Code)

	rec := h.do(http.MethodGet, "/users?role=editor", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]users.User](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "ed", list[0].Username)
	assert.NotContains(t, rec.Body.String(), "password")

	assert.Equal(t, http.StatusForbidden,
		h.do(http.MethodPost, "/users/change-password", editor, map[string]string{"old_password": "bad", "new_password": "pw2"}).Code)
	assert.Equal(t, http.StatusNoContent,
		h.do(http.MethodPost, "/users/change-password", editor, map[string]string{"old_password": "pw", "new_password": "pw2"}).Code)
	h.login("ed", "pw2")

	// demoting takes effect on the next request with the old token
	require.Equal(t, http.StatusOK,
		h.do(http.MethodPost, "/users", admin, map[string]string{"username": "ed", "password": "pw3", "role": "reviewer"}).Code)
	assert.Equal(t, http.StatusForbidden,
		h.do(http.MethodPut, "/profiles/mine", editor, map[string]any{}).Code)
}
