// Package api implements the REST-over-JSON Query API and task-queue-
// backed mutation endpoints against gorilla/mux, per §4.7 and §6.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

// errorBody is the JSON error payload shape §6 mandates:
// {error, details, queryTime?}.
type errorBody struct {
	Error     string `json:"error"`
	Details   string `json:"details,omitempty"`
	QueryTime int64  `json:"queryTime,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	body := errorBody{Error: msg}
	if err != nil {
		body.Details = err.Error()
	}
	writeJSON(w, status, body)
}

// queryHost returns the ?host= filter, defaulting to defaultHost (the
// local hostname) when absent, per §4.7: "filter by host (default:
// local hostname)."
func queryHost(r *http.Request, defaultHost string) string {
	if h := r.URL.Query().Get("host"); h != "" {
		return h
	}
	return defaultHost
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func queryBool(r *http.Request, key string, def bool) bool {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// querySince parses the ?since= filter as an RFC3339 timestamp; absent
// or unparsable returns nil.
func querySince(r *http.Request) *time.Time {
	v := r.URL.Query().Get("since")
	if v == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil
	}
	return &t
}
