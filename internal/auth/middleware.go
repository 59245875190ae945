package auth

import (
	"net/http"
	"strings"
)

const apiKeyQueryParam = "api-key"

// Middleware enforces token authentication. In open mode all requests pass
// through. Otherwise the request must carry the token as a bearer header or
// the api-key query parameter. Failures get a 401, not a redirect; there is
// no login page to send anyone to.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.IsOpenMode() {
			next.ServeHTTP(w, r)
			return
		}

		if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
			if s.VerifyToken(strings.TrimPrefix(h, "Bearer ")) {
				next.ServeHTTP(w, r)
				return
			}
		}

		if key := r.URL.Query().Get(apiKeyQueryParam); key != "" {
			if s.VerifyToken(key) {
				next.ServeHTTP(w, r)
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"unauthorized"}`))
	})
}
