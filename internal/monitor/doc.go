// Package monitor implements the proximity state machine.
//
// A Monitor is armed against a fixed target, consumes a location
// subscription one sample at a time and fires the alarm the first time the
// device is within ThresholdMeters of the target. Alerting is terminal for the
// trigger: later samples keep the distance current but never replay the tone
// or re-arm. Stop is final and guarantees the tone is released and nothing is
// published afterwards.
package monitor
