// Package version exposes build metadata for the proximity alarm binaries.
//
// Version, Commit and BuildTime are injected with -ldflags. When they are
// left at their defaults, the VCS stamp recorded by the Go toolchain is used
// instead.
package version
