package middleware

import "net/http"

// CacheControl sets the Cache-Control header on every response. Dashboards
// and profile routes use "no-store" since they carry per-user data.
func CacheControl(value string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", value)
			next.ServeHTTP(w, r)
		})
	}
}
