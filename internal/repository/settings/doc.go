// Package settings implements persistence for user settings.
//
// The FileRepository stores namespaces of string key/value pairs as JSON on
// disk and exposes typed helpers for the selected alarm tone.
package settings
