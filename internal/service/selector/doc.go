// Package selector implements alarm-tone, which shows or changes the tone
// persisted in the settings store.
package selector
