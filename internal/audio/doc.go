// Package audio plays the alarm tone.
//
// Player is the scoped wrapper the monitor talks to: Play starts looped
// playback of a tone (stopping any previous one first) and Stop releases
// everything it holds. Tones are resolved into PCM clips by LoadClip, either
// synthesized ("builtin:alarm", "builtin:beep") or decoded from WAV files, and
// handed to a Backend. PulseBackend talks to a PulseAudio server; NoopBackend
// is used on headless hosts.
package audio
