// Package watcher implements alarm-status: it prints the running session
// or follows the daemon's status stream.
package watcher
