// Package component manages the lifecycle of long-running infrastructure:
// storage connections, the token expiry sweeper and the HTTP server.
//
// The Registry starts components in registration order, stops them in
// reverse order and aggregates their health for the /health endpoint.
package component
