// Package gantry provides a configuration-driven bootstrapper for HTTP web
// applications.
//
// Gantry wires a router, request logging, static file serving, an optional
// view engine, an optional Redis-backed session store, HTTPS redirection,
// and default JSON error handlers behind a single Config struct. It contains
// no protocol engine of its own: routing is chi, sessions ride go-redis,
// metrics are Prometheus, tracing is OpenTelemetry.
//
// Usage:
//
//	cfg, err := gantry.ConfigFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	app, err := gantry.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	app.Route("/widgets", func(r chi.Router) {
//	    r.Get("/", listWidgets)
//	    r.Post("/", createWidget)
//	})
//
//	app.MountDefaultHandlers()
//	log.Fatal(app.Run())
//
// Applications follow a conventional folder layout under the configured
// application root:
//
//	application/
//	  adapters/     integrations with external services
//	  controllers/  HTTP handlers registered via app.Route
//	  models/       domain types
//	  public/       static assets, served under /public/
//	  views/        templates for the view engine
//
// The gantry CLI (cmd/gantry) scaffolds this layout.
package gantry

// Version is the Gantry release version.
const Version = "0.3.0"
