package server

import (
	"net/http"
	"strings"
)

// parseOrigins splits a comma-separated origin list into a set.
func parseOrigins(origins string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, o := range strings.Split(origins, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			set[o] = struct{}{}
		}
	}
	return set
}

// corsMiddleware handles CORS headers for the tablet frontend. An
// origins value of "*" allows everything, which is how the tent kiosk
// runs; a comma-separated whitelist restricts it.
func corsMiddleware(origins string) func(http.Handler) http.Handler {
	allowAll := origins == "*" || origins == ""
	allowed := parseOrigins(origins)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" {
				if allowAll {
					w.Header().Set("Access-Control-Allow-Origin", "*")
				} else if _, ok := allowed[origin]; ok {
					w.Header().Set("Access-Control-Allow-Origin", origin)
				}
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
