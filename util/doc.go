// Package util holds small parsing and masking helpers shared by the
// configuration-driven components.
package util
