package http

import (
	"context"
	"errors"
	"maps"
	"net/http"
	"strings"

	authmw "github.com/mind-engage/answerset/internal/auth/middleware"
	"github.com/mind-engage/answerset/internal/grading"
	"github.com/mind-engage/answerset/internal/history"
	"github.com/mind-engage/answerset/internal/logger"
	"github.com/mind-engage/answerset/internal/profile"
)

type compareReq struct {
	Correct string  `json:"correct"`
	Given   string  `json:"given"`
	Profile string  `json:"profile,omitempty"` // default: "default"
	Kind    string  `json:"kind,omitempty"`    // typein|strict|numeric
	Points  float64 `json:"points,omitempty"`  // default: 1
	// Options override single keys of the profile for this request.
	Options map[string]interface{} `json:"options,omitempty"`
}

type compareResp struct {
	HTML        string   `json:"html"`
	Correct     bool     `json:"correct"`
	Minor       bool     `json:"minor"`
	AutoPoints  float64  `json:"auto_points"`
	MaxPoints   float64  `json:"max_points"`
	NeedsManual bool     `json:"needs_manual,omitempty"`
	Feedback    []string `json:"feedback,omitempty"`
	EventID     string   `json:"event_id,omitempty"`
}

// Comparer grades typed answers against stored profiles.
type Comparer struct {
	Profiles profile.Store
	Grader   grading.Grader
	Limits   profile.Limits
	History  *history.Recorder // nil disables recording
	Log      *logger.Logger
}

// POST /compare
func CompareHandler(c *Comparer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req compareReq
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Points < 0 {
			http.Error(w, "points must not be negative", http.StatusBadRequest)
			return
		}
		if req.Points == 0 {
			req.Points = 1
		}
		name := strings.TrimSpace(req.Profile)
		explicit := name != ""
		if !explicit {
			name = profile.DefaultName
		}

		p, err := c.Profiles.Get(r.Context(), name)
		switch {
		case err == nil:
		case errors.Is(err, profile.ErrNotFound) && !explicit:
			p = profile.Profile{Name: name}
		case errors.Is(err, profile.ErrNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		default:
			c.Log.Error("load profile", "profile", name, "error", err)
			http.Error(w, "load profile", http.StatusInternalServerError)
			return
		}
		if len(req.Options) > 0 {
			merged := maps.Clone(p.Raw)
			if merged == nil {
				merged = map[string]interface{}{}
			}
			maps.Copy(merged, req.Options)
			p.Raw = merged
		}

		res, err := c.Grader.Grade(r.Context(), grading.Card{
			Kind:    req.Kind,
			Correct: req.Correct,
			Points:  req.Points,
			Options: p.Options(c.Limits),
		}, req.Given)
		if err != nil {
			http.Error(w, "grade: "+err.Error(), http.StatusInternalServerError)
			return
		}

		out := compareResp{
			HTML:        res.HTML,
			Correct:     res.Correct,
			Minor:       res.Minor,
			AutoPoints:  res.AutoPoints,
			MaxPoints:   res.MaxPoints,
			NeedsManual: res.NeedsManual,
			Feedback:    res.Feedback,
		}
		if !res.NeedsManual {
			out.EventID = c.record(r.Context(), history.Comparison{
				Profile:    name,
				Kind:       req.Kind,
				Subject:    authmw.SubjectFromContext(r.Context()),
				Correct:    res.Correct,
				Minor:      res.Minor,
				AutoPoints: res.AutoPoints,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// record never fails the request; a lost history row is only logged.
func (c *Comparer) record(ctx context.Context, ev history.Comparison) string {
	if c.History == nil {
		return ""
	}
	if ev.Kind == "" {
		ev.Kind = grading.KindTypeIn
	}
	id, err := c.History.Record(ctx, ev)
	if errors.Is(err, history.ErrPublish) {
		c.Log.Warn("publish comparison", "event_id", id, "error", err)
		return id
	}
	if err != nil {
		c.Log.Warn("record comparison", "profile", ev.Profile, "error", err)
		return ""
	}
	return id
}
