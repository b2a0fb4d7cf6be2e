// Package domain defines the entities stored by the repositories: users,
// their credentials, client applications and OAuth2 tokens.
//
// Entities are plain values. Factories assign identifiers and validate
// fields; repositories own timestamps and secrets.
package domain
