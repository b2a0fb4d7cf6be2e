// Package version reports the shoplistd build.
//
// Version and Commit are stamped at link time:
//
//	go build -ldflags "-X github.com/kbukum/shoplist/version.Version=1.4.0" ./cmd/shoplistd
//
// Commit falls back to the VCS revision recorded by the Go toolchain.
package version
