// Package status carries the notification text produced by the monitor to
// whoever displays it: the log (LogSink) and remote watchers (Hub).
package status
