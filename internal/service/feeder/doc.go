// Package feeder implements alarm-feeder, which replays a recorded track
// into alarmd through ReportLocation at the configured interval.
package feeder
