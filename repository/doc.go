// Package repository enforces the invariants of every stored entity on top
// of a pluggable storage backend.
//
// Template[E] implements create, lookup, update, secret rotation and
// delete once; concrete repositories describe their entity with Traits and
// add entity-specific lookups. TokenTemplate[T] does the same for expiring
// access tokens and authorization codes.
//
// Absence is a normal outcome: lookups return (value, found, err). Callers
// that require existence use the Find variants, which fail with NOT_FOUND.
// Backend failures surface as APPLICATION_ERROR and duplicate keys as
// ALREADY_EXISTING, so backend error types never leave this package.
//
// Backends live in the memstore, sqlstore and redisstore subpackages.
package repository
