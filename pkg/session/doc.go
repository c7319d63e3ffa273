// Package session provides server-side session storage for Gantry
// applications.
//
// Sessions are identified by a signed cookie carrying an opaque session ID.
// Session values live server-side in a Store; two implementations are
// provided:
//
//   - MemoryStore: in-process map, suitable for tests and single-server
//     development.
//   - RedisStore: backed by github.com/redis/go-redis/v9, suitable for
//     multi-server deployments.
//
// The Manager wires a Store to HTTP requests:
//
//	store := session.NewMemoryStore()
//	mgr, err := session.NewManager(store, session.ManagerConfig{
//	    Secret: "change-me",
//	}, logger)
//
//	handler := mgr.Middleware(mux)
//
// Inside handlers:
//
//	sess, ok := session.FromRequest(r)
//	if ok {
//	    sess.Set("user_id", "42")
//	}
//
// The middleware follows non-resaving, no-save-on-empty semantics: a session
// is written to the store only when a handler modified it, and a brand-new
// session that was never touched produces neither a cookie nor a store entry.
package session
