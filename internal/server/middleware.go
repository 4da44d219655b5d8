package server

import (
	"net/http"
	"strings"
)

// bearerAuth guards the bulk endpoint with a static bearer token. The header
// must be exactly "Bearer <key>"; anything else is rejected with 403.
func (s *Server) bearerAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.config.APIKey == "" {
			s.respondError(w, http.StatusForbidden, "bulk endpoint disabled: no API key configured")
			return
		}
		parts := strings.Fields(r.Header.Get("Authorization"))
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			s.respondError(w, http.StatusForbidden, "invalid Authorization header format, expected 'Bearer <key>'")
			return
		}
		if parts[1] != s.config.APIKey {
			s.respondError(w, http.StatusForbidden, "invalid API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}
