package selector

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/proximity-alarm/internal/audio"
	"github.com/oshokin/proximity-alarm/internal/domain/tone"
	"github.com/oshokin/proximity-alarm/internal/repository/settings"
)

func newRepo(t *testing.T) *settings.FileRepository {
	t.Helper()

	return settings.NewFileRepository(filepath.Join(t.TempDir(), "store.json"))
}

func TestRun_ShowsDefault(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	require.NoError(t, run(context.Background(), newRepo(t), &Options{Output: &out}))
	require.Equal(t, tone.DefaultName+"\n", out.String())
}

func TestRun_SelectAndClear(t *testing.T) {
	t.Parallel()

	repo := newRepo(t)
	ctx := context.Background()

	var out bytes.Buffer

	require.NoError(t, run(ctx, repo, &Options{URI: "builtin:beep", Name: "Beep", Output: &out}))
	require.Equal(t, "Beep (builtin:beep)\n", out.String())

	ref, err := repo.LoadTone(ctx)
	require.NoError(t, err)
	require.Equal(t, &tone.Reference{URI: "builtin:beep", Name: "Beep"}, ref)

	out.Reset()
	require.NoError(t, run(ctx, repo, &Options{Clear: true, Output: &out}))
	require.Equal(t, tone.DefaultName+"\n", out.String())
}

func TestRun_RejectsMissingTone(t *testing.T) {
	t.Parallel()

	repo := newRepo(t)
	missing := filepath.Join(t.TempDir(), "missing.wav")

	err := run(context.Background(), repo, &Options{URI: "file://" + missing, Output: new(bytes.Buffer)})
	require.ErrorIs(t, err, audio.ErrToneNotFound)

	ref, err := repo.LoadTone(context.Background())
	require.NoError(t, err)
	require.Nil(t, ref)

	// SkipCheck stores it anyway.
	require.NoError(t, run(context.Background(), repo, &Options{
		URI:       "file://" + missing,
		SkipCheck: true,
		Output:    new(bytes.Buffer),
	}))
}
