package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
}

func TestRedirectSecureProduction(t *testing.T) {
	handler := RedirectSecure(true)(okHandler())

	req := httptest.NewRequest("GET", "http://example.com/path?q=1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMovedPermanently {
		t.Fatalf("status: got %d, want 301", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "https://example.com/path?q=1" {
		t.Errorf("Location: got %q", loc)
	}
}

func TestRedirectSecureSkipsForwardedHTTPS(t *testing.T) {
	handler := RedirectSecure(true)(okHandler())

	req := httptest.NewRequest("GET", "http://example.com/", nil)
	req.Header.Set("X-Forwarded-Proto", "HTTPS")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("forwarded https should pass through, got %d", rec.Code)
	}
}

func TestRedirectSecureSkipsTLS(t *testing.T) {
	handler := RedirectSecure(true)(okHandler())

	req := httptest.NewRequest("GET", "https://example.com/", nil)
	req.TLS = &tls.ConnectionState{}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("TLS request should pass through, got %d", rec.Code)
	}
}

func TestRedirectSecureDisabledOutsideProduction(t *testing.T) {
	handler := RedirectSecure(false)(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "http://example.com/", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("non-production request should pass through, got %d", rec.Code)
	}
}
