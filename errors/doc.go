// Package errors provides the application error type shared by repositories,
// authenticators and HTTP handlers. Every AppError carries a machine-readable
// code, a severity and the HTTP status it maps to; the JSON body follows
// RFC 7807 conventions.
package errors
