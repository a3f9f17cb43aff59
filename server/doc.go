// Package server provides the HTTP server: a Gin engine served over HTTP/1.1
// and h2c, wrapped in the standard middleware chain.
//
// # Middleware
//
// Applied to every request at the handler level (server/middleware):
//
//   - Recovery: panics become INTERNAL_ERROR responses
//   - RequestID: X-Request-Id generation and propagation into the context
//   - RequestLogger: one line per request, probe paths at debug
//
// Applied on the Gin engine:
//
//   - Metrics: Prometheus request counters and latency histograms
//
// # Endpoints
//
// Built-in endpoints (server/endpoint):
//
//   - /health: component health aggregation
//   - /info: service and build information
//   - /metrics: Prometheus exposition
//
// Unknown routes and methods are answered with NOT_FOUND and
// METHOD_NOT_ALLOWED error bodies.
package server
