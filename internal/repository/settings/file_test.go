package settings

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/proximity-alarm/internal/domain/tone"
)

// TestFileRepository_MissingFileIsEmpty verifies a fresh install reads as unset.
func TestFileRepository_MissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "missing.json"))

	ref, err := repo.LoadTone(context.Background())
	require.NoError(t, err)
	require.Nil(t, ref)

	_, err = repo.Get(context.Background(), AlarmNamespace, KeyToneURI)
	require.ErrorIs(t, err, ErrNotFound)
}

// TestFileRepository_ToneRoundtrip ensures SaveTone followed by LoadTone returns the same tone.
func TestFileRepository_ToneRoundtrip(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "store.json")
	repo := NewFileRepository(file)

	want := tone.Reference{URI: "file:///usr/share/sounds/alarm.wav", Name: "Alarm"}
	require.NoError(t, repo.SaveTone(context.Background(), want))

	// A second repository on the same file sees the persisted value.
	got, err := NewFileRepository(file).LoadTone(context.Background())
	require.NoError(t, err)
	require.Equal(t, &want, got)

	uri, err := repo.Get(context.Background(), AlarmNamespace, KeyToneURI)
	require.NoError(t, err)
	require.Equal(t, want.URI, uri)

	contents, err := os.ReadFile(file)
	require.NoError(t, err)
	require.Contains(t, string(contents), `"AlarmSettings"`)
	require.Contains(t, string(contents), `"selected_tone_uri"`)
}

// TestFileRepository_ClearTone verifies a zero reference removes the selection.
func TestFileRepository_ClearTone(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "store.json"))

	require.NoError(t, repo.SaveTone(context.Background(), tone.Reference{URI: "builtin:beep", Name: "Beep"}))
	require.NoError(t, repo.SaveTone(context.Background(), tone.Reference{}))

	ref, err := repo.LoadTone(context.Background())
	require.NoError(t, err)
	require.Nil(t, ref)
}

// TestFileRepository_NamespacesAreIndependent keeps unrelated keys intact.
func TestFileRepository_NamespacesAreIndependent(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "store.json"))
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "Other", "key", "value"))
	require.NoError(t, repo.SaveTone(ctx, tone.Reference{URI: "builtin:alarm"}))

	value, err := repo.Get(ctx, "Other", "key")
	require.NoError(t, err)
	require.Equal(t, "value", value)

	ref, err := repo.LoadTone(ctx)
	require.NoError(t, err)
	require.Equal(t, "builtin:alarm", ref.URI)

	require.Error(t, repo.Set(ctx, "", "key", "value"))
}

// TestFileRepository_CorruptFile surfaces decode errors.
func TestFileRepository_CorruptFile(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(file, []byte("{not json"), 0o600))

	_, err := NewFileRepository(file).LoadTone(context.Background())
	require.Error(t, err)
}
