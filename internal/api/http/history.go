package http

import (
	"net/http"
	"strconv"

	"github.com/mind-engage/answerset/internal/history"
)

// GET /history?after=<seq>&limit=<n>
func ListHistoryHandler(repo *history.EventRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		after, _ := strconv.ParseInt(q.Get("after"), 10, 64)
		limit, _ := strconv.Atoi(q.Get("limit"))
		events, err := repo.Since(r.Context(), history.TypeAnswerCompared, after, limit)
		if err != nil {
			http.Error(w, "history: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if events == nil {
			events = []history.Event{}
		}
		writeJSON(w, http.StatusOK, events)
	}
}
