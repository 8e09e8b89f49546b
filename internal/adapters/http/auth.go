package httpadapter

import (
	"net/http"
	"strings"
)

const adminTokenHeader = "X-Admin-Token"

// adminAuthMiddleware guards the /v1/admin surface with a shared secret. An
// empty configured token disables the surface entirely rather than leaving
// it open.
func (rt *Router) adminAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isAuthorizedAdminToken(r.Header.Get(adminTokenHeader), rt.adminToken) {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isAuthorizedAdminToken(headerValue, expectedToken string) bool {
	headerValue = strings.TrimSpace(headerValue)
	if headerValue == "" || expectedToken == "" {
		return false
	}
	return headerValue == expectedToken
}
