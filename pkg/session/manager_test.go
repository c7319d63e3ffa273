package session

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const testSecret = "test-secret-key-for-sessions-only"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestManager(t *testing.T) (*Manager, *MemoryStore) {
	t.Helper()

	store := NewMemoryStore()
	t.Cleanup(func() { store.Close() })

	mgr, err := NewManager(store, ManagerConfig{
		CookieName: "test.sid",
		Secret:     testSecret,
		TTL:        time.Hour,
	}, discardLogger())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return mgr, store
}

func TestNewManagerRequiresSecret(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	if _, err := NewManager(store, ManagerConfig{}, nil); err != ErrNoSecret {
		t.Fatalf("expected ErrNoSecret, got %v", err)
	}
}

func TestSessionRoundTrip(t *testing.T) {
	mgr, _ := newTestManager(t)

	handler := mgr.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := FromRequest(r)
		if !ok {
			t.Fatal("no session in request context")
		}
		switch r.URL.Path {
		case "/write":
			sess.Set("user_id", "42")
			w.WriteHeader(http.StatusNoContent)
		case "/read":
			w.Write([]byte(sess.GetString("user_id")))
		}
	}))

	// First request writes a value; the response must carry the cookie.
	rec1 := httptest.NewRecorder()
	handler.ServeHTTP(rec1, httptest.NewRequest("GET", "/write", nil))

	cookies := rec1.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "test.sid" {
		t.Fatalf("expected one session cookie, got %v", cookies)
	}
	if !cookies[0].HttpOnly {
		t.Error("session cookie should be HttpOnly")
	}

	// Second request with the cookie reads the value back.
	req2 := httptest.NewRequest("GET", "/read", nil)
	req2.AddCookie(cookies[0])
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req2)

	if got := rec2.Body.String(); got != "42" {
		t.Errorf("read back: got %q, want %q", got, "42")
	}

	// The unmodified read must not re-issue a cookie (non-resaving).
	if extra := rec2.Result().Cookies(); len(extra) != 0 {
		t.Errorf("read request should not set cookies, got %v", extra)
	}
}

func TestUntouchedSessionNotPersisted(t *testing.T) {
	mgr, store := newTestManager(t)

	handler := mgr.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := FromRequest(r); !ok {
			t.Fatal("no session in request context")
		}
		w.Write([]byte("ok"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if cookies := rec.Result().Cookies(); len(cookies) != 0 {
		t.Errorf("untouched session should not set a cookie, got %v", cookies)
	}
	if n := store.Count(); n != 0 {
		t.Errorf("untouched session should not hit the store, count=%d", n)
	}
}

func TestTamperedCookieYieldsFreshSession(t *testing.T) {
	mgr, _ := newTestManager(t)

	var sawFresh bool
	handler := mgr.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := FromRequest(r)
		sawFresh = sess.Fresh()
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: "test.sid", Value: "bogus-value"})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !sawFresh {
		t.Error("tampered cookie should yield a fresh session")
	}
}

func TestExpiredSessionYieldsFreshSession(t *testing.T) {
	store := NewMemoryStore()
	t.Cleanup(func() { store.Close() })

	mgr, err := NewManager(store, ManagerConfig{
		CookieName: "test.sid",
		Secret:     testSecret,
		TTL:        50 * time.Millisecond,
	}, discardLogger())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	handler := mgr.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := FromRequest(r)
		if r.URL.Path == "/write" {
			sess.Set("k", "v")
		}
		w.Write([]byte(sess.GetString("k")))
	}))

	rec1 := httptest.NewRecorder()
	handler.ServeHTTP(rec1, httptest.NewRequest("GET", "/write", nil))
	cookie := rec1.Result().Cookies()[0]

	time.Sleep(80 * time.Millisecond)

	req2 := httptest.NewRequest("GET", "/read", nil)
	req2.AddCookie(cookie)
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req2)

	if got := rec2.Body.String(); got != "" {
		t.Errorf("expired session should be empty, got %q", got)
	}
}

func TestDestroyRemovesSession(t *testing.T) {
	mgr, store := newTestManager(t)

	handler := mgr.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := FromRequest(r)
		switch r.URL.Path {
		case "/login":
			sess.Set("user_id", "42")
		case "/logout":
			sess.Destroy()
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	rec1 := httptest.NewRecorder()
	handler.ServeHTTP(rec1, httptest.NewRequest("GET", "/login", nil))
	cookie := rec1.Result().Cookies()[0]

	if store.Count() != 1 {
		t.Fatalf("expected one stored session, got %d", store.Count())
	}

	req2 := httptest.NewRequest("GET", "/logout", nil)
	req2.AddCookie(cookie)
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req2)

	if store.Count() != 0 {
		t.Errorf("destroy should remove the store entry, count=%d", store.Count())
	}

	var deleted bool
	for _, c := range rec2.Result().Cookies() {
		if c.Name == "test.sid" && c.MaxAge == -1 {
			deleted = true
		}
	}
	if !deleted {
		t.Error("destroy should expire the session cookie")
	}
}

func TestSessionValueOperations(t *testing.T) {
	s := &Session{values: make(map[string]any)}

	s.Set("a", "1")
	s.Set("b", 2)

	if v, ok := s.Get("a"); !ok || v != "1" {
		t.Errorf("Get(a): got %v/%v", v, ok)
	}
	if got := s.GetString("b"); got != "" {
		t.Errorf("GetString on non-string: got %q, want empty", got)
	}

	s.Delete("a")
	if _, ok := s.Get("a"); ok {
		t.Error("Delete did not remove value")
	}

	s.Clear()
	if _, ok := s.Get("b"); ok {
		t.Error("Clear did not remove values")
	}
	if !s.dirty {
		t.Error("mutations should mark the session dirty")
	}
}
