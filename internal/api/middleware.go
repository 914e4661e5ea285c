package api

import (
	"net/http"
	"strings"

	"github.com/omnizone/hostd/internal/auth"
	"github.com/omnizone/hostd/internal/store"
)

// requireAPIKey enforces the Bearer `wh_`-prefixed API key on every
// request except /health and the one-shot bootstrap endpoint, per §6.
func requireAPIKey(s *store.Store, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/monitoring/health" || r.URL.Path == "/auth/bootstrap" {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		raw := strings.TrimPrefix(authHeader, "Bearer ")
		if raw == authHeader || raw == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token", nil)
			return
		}

		ok, err := auth.Verify(s, raw)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "auth check failed", err)
			return
		}
		if !ok {
			writeError(w, http.StatusUnauthorized, "invalid api key", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
