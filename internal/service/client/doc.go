// Package client implements the alarm-start and alarm-stop commands.
//
// Both connect to alarmd, send their request and retry while the daemon is
// unreachable.
package client
