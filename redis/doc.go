// Package redis wraps go-redis with configuration, a lifecycle component
// and TypedStore, a JSON value store with create-only, replace-only and
// take-once writes used by the token backends.
package redis
