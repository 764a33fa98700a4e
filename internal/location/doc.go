// Package location provides the position stream consumed by the monitor.
//
// A Source hands out a Subscription: a single-consumer channel of samples in
// arrival order plus Cancel. Feed is pushed to from the outside (the
// ReportLocation RPC); Replay plays back a recorded Track. Both apply the
// cadence Policy, which is owned by the source and never by the monitor.
package location
