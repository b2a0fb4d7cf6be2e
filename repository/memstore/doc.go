// Package memstore provides in-process repository backends guarded by a
// sync.RWMutex. Expired tokens are filtered on every read and purged by
// Sweep. Intended for tests and single-instance development.
package memstore
