// Package session contains the state model of one monitoring session: its
// phase and the read-only Snapshot handed to callers, with Clone helpers so
// that snapshots never alias the monitor's own fields.
package session
