// Package logger wraps zap for the proximity alarm binaries:
//   - a global sugared logger writing a compact console format,
//   - context helpers (ToContext/FromContext/WithName/WithKV) so that a
//     session id or a component name follows a request through the daemon,
//   - level parsing and configuration,
//   - leveled helpers (Infof, ErrorKV, etc.) that take the context first.
package logger
