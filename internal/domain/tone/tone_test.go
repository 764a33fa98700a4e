package tone

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestReference_Clone verifies that Clone copies and normalizes empty references to nil.
func TestReference_Clone(t *testing.T) {
	t.Parallel()

	require.Nil(t, (*Reference)(nil).Clone())
	require.Nil(t, (&Reference{Name: "only a name"}).Clone())

	r := &Reference{URI: "builtin:alarm", Name: "Alarm"}
	c := r.Clone()

	require.Equal(t, r, c)
	require.NotSame(t, r, c)
}

// TestReference_DisplayName covers the fallbacks.
func TestReference_DisplayName(t *testing.T) {
	t.Parallel()

	require.Equal(t, DefaultName, (*Reference)(nil).DisplayName())
	require.Equal(t, "file:///tmp/a.wav", (&Reference{URI: "file:///tmp/a.wav"}).DisplayName())
	require.Equal(t, "Bells", (&Reference{URI: "builtin:beep", Name: "Bells"}).DisplayName())
}
