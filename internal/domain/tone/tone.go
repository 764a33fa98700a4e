package tone

// DefaultName is shown when no tone has been selected.
const DefaultName = "No tone selected"

// Reference identifies a sound resource. URI is opaque to the monitor and is
// resolved by the audio package; Name is only for display.
type Reference struct {
	// URI locates the sound, e.g. "builtin:alarm" or "file:///home/me/tone.wav".
	URI string
	// Name is the human-readable tone name.
	Name string
}

// IsZero reports whether the reference points nowhere.
func (r *Reference) IsZero() bool {
	return r == nil || r.URI == ""
}

// DisplayName returns Name, falling back to the URI and then to DefaultName.
func (r *Reference) DisplayName() string {
	switch {
	case r.IsZero():
		return DefaultName
	case r.Name != "":
		return r.Name
	default:
		return r.URI
	}
}

// Clone returns a copy, or nil for a zero reference.
func (r *Reference) Clone() *Reference {
	if r.IsZero() {
		return nil
	}

	cloned := *r

	return &cloned
}
