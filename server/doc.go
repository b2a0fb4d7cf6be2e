// Package server provides the shoplist HTTP front end: a gin engine on a
// ServeMux, served over HTTP/1.1 and h2c, run as a component.Component.
//
// # Middleware
//
// ApplyMiddleware wraps the whole mux with server/middleware:
//
//   - Recovery: panics become 500 INTERNAL_ERROR
//   - RequestID: X-Request-Id propagation
//   - RequestLogger: one line per request, probes skipped
//   - CORS and BodySizeLimit
//
// and adds Tracing and Metrics on the gin engine. Authenticate,
// RequireAuth, RequireScheme and RateLimit are applied per route group by
// the api package.
//
// # Endpoints
//
// RegisterProbes adds /health, /alive, /ready and /info.
package server
