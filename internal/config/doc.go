// Package config defines the YAML settings shared by the daemon and the CLIs
// and provides helpers to load, validate and save them.
//
// Validate fills the location cadence policy, timeouts and file names with
// the defaults the monitor was designed around.
package config
