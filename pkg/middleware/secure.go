package middleware

import (
	"net/http"
	"strings"
)

// RedirectSecure redirects plain-HTTP requests to their HTTPS equivalent.
//
// The redirect fires only when production is true and the request carries
// neither a TLS connection state nor an X-Forwarded-Proto header of "https"
// (the latter covers deployments behind TLS-terminating proxies).
func RedirectSecure(production bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if production && !isSecure(r) {
				target := "https://" + r.Host + r.URL.RequestURI()
				http.Redirect(w, r, target, http.StatusMovedPermanently)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isSecure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
