package gantry

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gantry-dev/gantry/pkg/httperr"
	"github.com/gantry-dev/gantry/pkg/middleware"
	"github.com/gantry-dev/gantry/pkg/session"
)

// App is a configured web application ready to take routes.
//
// The middleware stack is assembled by New in a fixed order: request logging,
// metrics, tracing, panic recovery, view engine, sessions, HTTPS redirection.
// Routes added afterwards run inside that stack.
type App struct {
	config   Config
	router   chi.Router
	views    *ViewEngine
	sessions *session.Manager
	registry *prometheus.Registry
	metrics  http.Handler
	staticFS fs.FS

	server *http.Server
}

// New validates the configuration and assembles the application.
func New(cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	a := &App{
		config:   cfg,
		router:   chi.NewRouter(),
		staticFS: newStaticFS(cfg.AppRoot),
	}

	a.router.Use(middleware.RequestLogger(cfg.Logger, cfg.LogFormat))

	if cfg.Metrics.Enabled {
		// A per-app registry keeps collectors from colliding when several
		// apps run in one process.
		a.registry = prometheus.NewRegistry()
		a.router.Use(middleware.Prometheus(middleware.WithRegistry(a.registry)))
	}

	if cfg.Tracing.Enabled {
		a.router.Use(middleware.Tracing())
	}

	a.router.Use(middleware.Recoverer(cfg.Logger, cfg.IsProduction()))

	if cfg.ViewEngine != "" {
		engine, err := newViewEngine(cfg.AppRoot, cfg.ViewEngine, !cfg.IsProduction())
		if err != nil {
			return nil, err
		}
		a.views = engine
		a.router.Use(withViewEngine(engine))
	}

	if cfg.sessionsEnabled() {
		mgr, err := newSessionManager(cfg)
		if err != nil {
			return nil, err
		}
		a.sessions = mgr
		a.router.Use(mgr.Middleware)
	}

	if cfg.RedirectSecure {
		a.router.Use(middleware.RedirectSecure(cfg.IsProduction()))
	}

	if a.registry != nil {
		a.metrics = promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})
	}

	return a, nil
}

// newSessionManager builds the Redis-backed session manager. An unreachable
// Redis logs a warning instead of failing startup: the client reconnects on
// its own once the server comes back.
func newSessionManager(cfg Config) (*session.Manager, error) {
	store, err := session.NewRedisStoreURL(cfg.Session.RedisURL,
		session.WithKeyPrefix(cfg.Session.KeyPrefix))
	if err != nil {
		return nil, fmt.Errorf("gantry: session store: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.Ping(ctx); err != nil {
		cfg.Logger.Warn("session redis unreachable, continuing", "error", err)
	}

	mgr, err := session.NewManager(store, session.ManagerConfig{
		CookieName: cfg.Session.CookieName,
		Secret:     cfg.Session.Secret,
		TTL:        cfg.Session.TTL,
		Secure:     cfg.IsProduction(),
	}, cfg.Logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("gantry: session manager: %w", err)
	}
	return mgr, nil
}

// Config returns the effective configuration, defaults applied.
func (a *App) Config() Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger {
	return a.config.Logger
}

// Sessions returns the session manager, or nil when sessions are disabled.
func (a *App) Sessions() *session.Manager {
	return a.sessions
}

// Views returns the view engine, or nil in API-only mode.
func (a *App) Views() *ViewEngine {
	return a.views
}

// Route mounts a group of routes under pattern. The group gets its own
// sub-router, so middleware added inside fn stays scoped to the group.
func (a *App) Route(pattern string, fn func(r chi.Router)) {
	a.router.Route(pattern, fn)
}

// Use appends middleware to the application stack. It must be called before
// any route is registered.
func (a *App) Use(mw ...func(http.Handler) http.Handler) {
	a.router.Use(mw...)
}

// MountDefaultHandlers installs JSON 404 and 405 responses for unmatched
// requests. Call it after all routes are registered.
func (a *App) MountDefaultHandlers() {
	a.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httperr.NotFound(w)
	})
	a.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httperr.MethodNotAllowed(w)
	})
}

// ServeHTTP makes the app usable anywhere an http.Handler is.
//
// Static assets and the metrics endpoint are dispatched ahead of the router
// so they never collide with application routes or route-scoped middleware.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if a.metrics != nil && r.URL.Path == "/metrics" {
		a.metrics.ServeHTTP(w, r)
		return
	}
	if a.shouldServeStatic(r.URL.Path) {
		a.serveStatic(w, r)
		return
	}
	a.router.ServeHTTP(w, r)
}

// Start serves HTTP until ctx is cancelled, then shuts down gracefully and
// closes the session store.
func (a *App) Start(ctx context.Context) error {
	a.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", a.config.Port),
		Handler:           a,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.config.Logger.Info("server listening",
			"addr", a.server.Addr, "env", a.config.Env)
		errCh <- a.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		a.closeSessions()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	a.config.Logger.Info("server shutting down")
	err := a.server.Shutdown(shutdownCtx)
	a.closeSessions()
	return err
}

// Run starts the server and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return a.Start(ctx)
}

func (a *App) closeSessions() {
	if a.sessions == nil {
		return
	}
	if err := a.sessions.Close(); err != nil {
		a.config.Logger.Error("closing session store", "error", err)
	}
}
