// Package dispatch exposes the HTTP surface of the dispatch engine: the
// audit log query endpoint and the dispatch action trigger.
package dispatch

import (
	"net/http"
	"time"

	"github.com/kilianp07/resq112/core/dispatch/logging"
	"github.com/kilianp07/resq112/pkg/export"
)

// NewLogHandler returns an HTTP handler exposing the local audit log via
// GET. Requests must include an Authorization header with "Bearer <token>"
// when token is non-empty.
func NewLogHandler(store logging.Store, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if token != "" {
			auth := r.Header.Get("Authorization")
			if auth != "Bearer "+token {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		q := logging.Query{}
		if s := r.URL.Query().Get("start"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.Start = t
			}
		}
		if s := r.URL.Query().Get("end"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.End = t
			}
		}
		q.Type = r.URL.Query().Get("type")
		q.SourceCity = r.URL.Query().Get("source_city")
		q.TargetCity = r.URL.Query().Get("target_city")

		entries, err := store.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if r.URL.Query().Get("format") == "csv" {
			w.Header().Set("Content-Type", "text/csv")
			if err := export.WriteCSV(w, entries); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := export.WriteJSON(w, entries); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}
