package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/securecookie"
)

// ManagerConfig configures the session manager.
type ManagerConfig struct {
	// CookieName is the name of the session ID cookie.
	// Default: "gantry.sid".
	CookieName string

	// Secret signs the session ID cookie. Required.
	Secret string

	// TTL is how long a session lives after its last save or touch.
	// Default: 24 hours.
	TTL time.Duration

	// Secure marks the session cookie Secure (HTTPS only).
	Secure bool

	// Domain is the cookie domain (blank means current host).
	Domain string
}

// DefaultManagerConfig returns a ManagerConfig with sensible defaults.
// Secret has no default and must be supplied.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		CookieName: "gantry.sid",
		TTL:        24 * time.Hour,
	}
}

// ErrNoSecret is returned by NewManager when no signing secret is configured.
var ErrNoSecret = errors.New("session: signing secret is required")

// Manager ties a Store to HTTP requests through a signed session ID cookie.
//
// Save semantics match the usual web-framework conventions: sessions are
// written only when modified (non-resaving), and a new session that no
// handler touched produces neither a cookie nor a store entry
// (no-save-on-empty). Unmodified existing sessions get their expiry
// refreshed with Touch.
type Manager struct {
	store  Store
	codec  *securecookie.SecureCookie
	config ManagerConfig
	logger *slog.Logger
}

// NewManager creates a session Manager backed by the given store.
func NewManager(store Store, cfg ManagerConfig, logger *slog.Logger) (*Manager, error) {
	if cfg.Secret == "" {
		return nil, ErrNoSecret
	}
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultManagerConfig().CookieName
	}
	if cfg.TTL == 0 {
		cfg.TTL = DefaultManagerConfig().TTL
	}
	if logger == nil {
		logger = slog.Default()
	}

	// HMAC signing only; the session ID is opaque, so encryption buys nothing.
	codec := securecookie.New([]byte(cfg.Secret), nil)
	codec.MaxAge(int(cfg.TTL / time.Second))

	return &Manager{
		store:  store,
		codec:  codec,
		config: cfg,
		logger: logger,
	}, nil
}

// Store returns the backing store.
func (m *Manager) Store() Store {
	return m.store
}

// Close releases the backing store.
func (m *Manager) Close() error {
	return m.store.Close()
}

// Session is the mutable per-request session exposed to handlers.
// All methods are safe for concurrent use.
type Session struct {
	mu        sync.Mutex
	id        string
	createdAt time.Time
	fresh     bool
	values    map[string]any
	dirty     bool
	destroyed bool
}

// ID returns the session identifier.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Fresh reports whether the session was created for this request
// (no valid session cookie came in).
func (s *Session) Fresh() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fresh
}

// Get returns the value stored under key.
func (s *Session) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// GetString returns the string stored under key, or "" if absent
// or not a string.
func (s *Session) GetString(key string) string {
	v, ok := s.Get(key)
	if !ok {
		return ""
	}
	str, _ := v.(string)
	return str
}

// Set stores a value and marks the session dirty.
// Values must round-trip through JSON.
func (s *Session) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	s.dirty = true
}

// Delete removes a value and marks the session dirty.
func (s *Session) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; ok {
		delete(s.values, key)
		s.dirty = true
	}
}

// Clear removes all values and marks the session dirty.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]any)
	s.dirty = true
}

// Destroy removes the session entirely: the store entry is deleted and the
// cookie expired when the response is written.
func (s *Session) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destroyed = true
}

// snapshot copies the session state for commit under a single lock.
func (s *Session) snapshot() (id string, createdAt time.Time, values map[string]any, fresh, dirty, destroyed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values = make(map[string]any, len(s.values))
	for k, v := range s.values {
		values[k] = v
	}
	return s.id, s.createdAt, values, s.fresh, s.dirty, s.destroyed
}

type ctxKey struct{}

// FromRequest returns the session attached to the request by Middleware.
// The second return value is false when session support is not enabled.
func FromRequest(r *http.Request) (*Session, bool) {
	s, ok := r.Context().Value(ctxKey{}).(*Session)
	return s, ok
}

// Middleware attaches a session to each request and commits it to the store
// just before the first response byte is written.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := m.load(r)

		ctx := context.WithValue(r.Context(), ctxKey{}, sess)
		sw := &sessionWriter{
			ResponseWriter: w,
			mgr:            m,
			req:            r,
			sess:           sess,
		}

		next.ServeHTTP(sw, r.WithContext(ctx))

		// Handlers that never write a body still need their session saved.
		sw.commit()
	})
}

// load resolves the request's session: a valid signed cookie with a live
// store entry restores it; anything else yields a fresh session. Store
// errors are logged and degrade to a fresh session rather than failing the
// request.
func (m *Manager) load(r *http.Request) *Session {
	fresh := &Session{
		id:        newSessionID(),
		createdAt: time.Now().UTC(),
		fresh:     true,
		values:    make(map[string]any),
	}

	cookie, err := r.Cookie(m.config.CookieName)
	if err != nil {
		return fresh
	}

	var id string
	if err := m.codec.Decode(m.config.CookieName, cookie.Value, &id); err != nil {
		m.logger.Debug("session cookie rejected", "error", err)
		return fresh
	}

	data, err := m.store.Load(r.Context(), id)
	if err != nil {
		m.logger.Error("session load failed", "error", err)
		return fresh
	}
	if data == nil {
		// Expired or unknown; don't reuse the presented ID.
		return fresh
	}

	rec, err := Deserialize(data)
	if err != nil {
		m.logger.Error("session record corrupt", "session_id", id, "error", err)
		return fresh
	}

	values := rec.Values
	if values == nil {
		values = make(map[string]any)
	}
	return &Session{
		id:        id,
		createdAt: rec.CreatedAt,
		values:    values,
	}
}

// commit writes the session to the store and sets the cookie as needed.
// Store failures are logged; the response proceeds without the session
// having been persisted.
func (m *Manager) commit(w http.ResponseWriter, r *http.Request, s *Session) {
	id, createdAt, values, fresh, dirty, destroyed := s.snapshot()
	ctx := r.Context()
	expiresAt := time.Now().Add(m.config.TTL)

	switch {
	case destroyed:
		if !fresh {
			if err := m.store.Delete(ctx, id); err != nil {
				m.logger.Error("session delete failed", "session_id", id, "error", err)
			}
		}
		m.expireCookie(w)

	case dirty:
		data, err := Serialize(&Record{
			ID:        id,
			CreatedAt: createdAt,
			Values:    values,
		})
		if err != nil {
			m.logger.Error("session serialize failed", "session_id", id, "error", err)
			return
		}
		if err := m.store.Save(ctx, id, data, expiresAt); err != nil {
			m.logger.Error("session save failed", "session_id", id, "error", err)
			return
		}
		if fresh {
			m.setCookie(w, id)
		}

	case !fresh:
		if err := m.store.Touch(ctx, id, expiresAt); err != nil {
			m.logger.Error("session touch failed", "session_id", id, "error", err)
		}
	}
	// Fresh and untouched: nothing to persist, no cookie to set.
}

func (m *Manager) setCookie(w http.ResponseWriter, id string) {
	encoded, err := m.codec.Encode(m.config.CookieName, id)
	if err != nil {
		m.logger.Error("session cookie encode failed", "error", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.config.CookieName,
		Value:    encoded,
		Path:     "/",
		Domain:   m.config.Domain,
		MaxAge:   int(m.config.TTL / time.Second),
		Secure:   m.config.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Manager) expireCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.config.CookieName,
		Value:    "",
		Path:     "/",
		Domain:   m.config.Domain,
		MaxAge:   -1,
		Secure:   m.config.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// newSessionID returns a 256-bit random URL-safe identifier.
func newSessionID() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic("session: crypto/rand unavailable: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// sessionWriter commits the session before the first response byte, since
// Set-Cookie headers cannot be added after the header block is flushed.
type sessionWriter struct {
	http.ResponseWriter
	mgr       *Manager
	req       *http.Request
	sess      *Session
	committed bool
}

func (w *sessionWriter) commit() {
	if w.committed {
		return
	}
	w.committed = true
	w.mgr.commit(w.ResponseWriter, w.req, w.sess)
}

// WriteHeader commits the session, then flushes the header block.
func (w *sessionWriter) WriteHeader(code int) {
	w.commit()
	w.ResponseWriter.WriteHeader(code)
}

// Write commits the session before an implicit 200.
func (w *sessionWriter) Write(b []byte) (int, error) {
	w.commit()
	return w.ResponseWriter.Write(b)
}

// Flush passes through to the underlying writer when it supports flushing.
func (w *sessionWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap supports http.ResponseController.
func (w *sessionWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
