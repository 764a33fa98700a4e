// Package daemon runs alarmd: the process that owns the proximity
// monitoring session, plays the alarm and serves the session gRPC API.
package daemon
