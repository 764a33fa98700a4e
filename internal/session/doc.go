// Package session owns the single active proximity monitoring session of
// the process. It validates the target, replaces any previous session, holds
// the host keep-alive token while a session runs and tears everything down
// on Stop or Close.
package session
