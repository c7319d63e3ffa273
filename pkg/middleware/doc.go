// Package middleware provides the HTTP middleware set wired by the Gantry
// bootstrapper.
//
// This package includes:
//   - Request logging in morgan-compatible formats (common, combined, dev,
//     short, tiny)
//   - Panic recovery producing the structured JSON 500 payload
//   - HTTPS redirection for production deployments behind proxies
//   - Prometheus metrics middleware
//   - OpenTelemetry tracing middleware
//
// All middleware are standard func(http.Handler) http.Handler wrappers and
// compose with chi routers or plain muxes.
//
// # Prometheus Metrics
//
// The Prometheus middleware records request counts, durations, and in-flight
// requests, labeled by method, route pattern, and status:
//
//	reg := prometheus.NewRegistry()
//	r.Use(middleware.Prometheus(middleware.WithRegistry(reg)))
//
// Construct it once per registry; registering the same collectors twice
// panics, per the Prometheus client contract.
//
// # OpenTelemetry Tracing
//
// The tracing middleware opens a span per request:
//
//	r.Use(middleware.Tracing(
//	    middleware.WithTracerName("my-app"),
//	    middleware.WithRequestFilter(func(r *http.Request) bool {
//	        return r.URL.Path != "/healthz"
//	    }),
//	))
package middleware
