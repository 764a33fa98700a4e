//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestDetectActor ensures hostname and username are detected and non-empty.
func TestDetectActor(t *testing.T) {
	t.Parallel()

	a, err := DetectActor()
	require.NoError(t, err)
	require.NotEmpty(t, a.Hostname)
	require.NotEmpty(t, a.Username)
	require.Equal(t, a.Username+"@"+a.Hostname, a.String())

	var missing *Actor
	require.Empty(t, missing.String())
}
