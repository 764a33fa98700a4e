// Package host keeps the process useful while a session runs: it holds an OS
// sleep inhibitor for the lifetime of a session and detects a second daemon
// instance.
package host
