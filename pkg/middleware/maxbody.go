package middleware

import "net/http"

// MaxBody returns middleware that caps request body reads at limit bytes.
// Reads past the limit fail with *http.MaxBytesError, surfacing as a decode
// error in body-consuming handlers.
func MaxBody(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
