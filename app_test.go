package gantry

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/gantry-dev/gantry/pkg/httperr"
	"github.com/gantry-dev/gantry/pkg/session"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Port = 3000
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return cfg
}

func decodePayload(t *testing.T, rec *httptest.ResponseRecorder) httperr.Payload {
	t.Helper()
	var p httperr.Payload
	if err := json.NewDecoder(rec.Body).Decode(&p); err != nil {
		t.Fatalf("decoding error payload: %v", err)
	}
	return p
}

func TestNewRequiresPort(t *testing.T) {
	cfg := testConfig()
	cfg.Port = 0

	if _, err := New(cfg); err == nil {
		t.Fatal("New accepted a config without a port")
	}
}

func TestNewRejectsUnknownLogFormat(t *testing.T) {
	cfg := testConfig()
	cfg.LogFormat = "clf-extended"

	if _, err := New(cfg); err == nil {
		t.Fatal("New accepted an unknown log format")
	}
}

func TestDefaultNotFoundIsJSON(t *testing.T) {
	app, err := New(testConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	app.MountDefaultHandlers()

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest("GET", "/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type: got %q", ct)
	}
	p := decodePayload(t, rec)
	if p.Code != http.StatusNotFound {
		t.Errorf("payload code: got %d", p.Code)
	}
	if p.Message == "" {
		t.Error("payload message is empty")
	}
}

func TestDefaultMethodNotAllowedIsJSON(t *testing.T) {
	app, err := New(testConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	app.Route("/things", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("ok"))
		})
	})
	app.MountDefaultHandlers()

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest("DELETE", "/things/", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status: got %d, want 405", rec.Code)
	}
	if p := decodePayload(t, rec); p.Code != http.StatusMethodNotAllowed {
		t.Errorf("payload code: got %d", p.Code)
	}
}

func TestRouteGroupsAreIsolated(t *testing.T) {
	app, err := New(testConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// Middleware registered inside one group must not leak into another.
	app.Route("/tagged", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("X-Group", "tagged")
				next.ServeHTTP(w, r)
			})
		})
		r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("pong"))
		})
	})
	app.Route("/plain", func(r chi.Router) {
		r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("pong"))
		})
	})

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest("GET", "/tagged/ping", nil))
	if rec.Header().Get("X-Group") != "tagged" {
		t.Error("group middleware did not run for its own group")
	}

	rec = httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest("GET", "/plain/ping", nil))
	if rec.Header().Get("X-Group") != "" {
		t.Error("group middleware leaked into a sibling group")
	}
}

func TestPanicBecomesJSON500WithStackInDevelopment(t *testing.T) {
	app, err := New(testConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	app.Route("/boom", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			panic("kaboom")
		})
	})

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest("GET", "/boom/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want 500", rec.Code)
	}
	p := decodePayload(t, rec)
	if p.Code != http.StatusInternalServerError {
		t.Errorf("payload code: got %d", p.Code)
	}
	if p.Stack == "" {
		t.Error("development error payload should carry a stack trace")
	}
}

func TestPanicOmitsStackInProduction(t *testing.T) {
	cfg := testConfig()
	cfg.Env = EnvProduction

	app, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	app.Route("/boom", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			panic("kaboom")
		})
	})

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest("GET", "/boom/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want 500", rec.Code)
	}
	if p := decodePayload(t, rec); p.Stack != "" {
		t.Error("production error payload must not leak a stack trace")
	}
}

func TestRenderWithoutEngineFails(t *testing.T) {
	app, err := New(testConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	var renderErr error
	app.Route("/page", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			renderErr = Render(w, r, "index.html", nil)
		})
	})

	app.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/page/", nil))

	if renderErr != ErrNoEngine {
		t.Errorf("render error: got %v, want ErrNoEngine", renderErr)
	}
}

func TestRenderWithEngine(t *testing.T) {
	root := t.TempDir()
	views := filepath.Join(root, "application", "views")
	if err := os.MkdirAll(views, 0o755); err != nil {
		t.Fatal(err)
	}
	page := []byte("<h1>{{.Title}}</h1>")
	if err := os.WriteFile(filepath.Join(views, "index.html"), page, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := testConfig()
	cfg.AppRoot = root
	cfg.ViewEngine = "html"

	app, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	app.Route("/page", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			if err := Render(w, r, "index.html", map[string]string{"Title": "Hello"}); err != nil {
				t.Errorf("render failed: %v", err)
			}
		})
	})

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest("GET", "/page/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != "<h1>Hello</h1>" {
		t.Errorf("body: got %q", got)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type: got %q", ct)
	}
}

func TestUseAddsMiddleware(t *testing.T) {
	app, err := New(testConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	app.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-App", "gantry")
			next.ServeHTTP(w, r)
		})
	})
	app.Route("/", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("ok"))
		})
	})

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Header().Get("X-App") != "gantry" {
		t.Error("app-level middleware did not run")
	}
}

func TestNoSessionCookieWhenDisabled(t *testing.T) {
	app, err := New(testConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	app.Route("/", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			if _, ok := session.FromRequest(r); ok {
				t.Error("session present without redis url and secret")
			}
			w.Write([]byte("ok"))
		})
	})

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if got := rec.Header().Values("Set-Cookie"); len(got) != 0 {
		t.Errorf("Set-Cookie emitted with sessions disabled: %v", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	cfg := testConfig()
	cfg.Metrics.Enabled = true

	app, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	app.Route("/ok", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("ok"))
		})
	})

	app.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/ok/", nil))

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status: got %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "gantry_http_requests_total") {
		t.Error("metrics output missing request counter")
	}
}
