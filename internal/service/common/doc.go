// Package common holds helpers shared by several services.
//
// It provides a gRPC client wrapper for the session service with timeouts,
// and detection of the current system actor (username@hostname) that is sent
// to the daemon for audit logging.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
