package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	api "github.com/oshokin/proximity-alarm/internal/api/grpc/session"
	"github.com/oshokin/proximity-alarm/internal/config"
	"github.com/oshokin/proximity-alarm/internal/domain/geo"
	domain "github.com/oshokin/proximity-alarm/internal/domain/session"
	"github.com/oshokin/proximity-alarm/internal/domain/tone"
	"github.com/oshokin/proximity-alarm/internal/location"
	"github.com/oshokin/proximity-alarm/internal/status"
)

//nolint:gochecknoglobals // Shared test fixture.
var target = geo.Target{Latitude: 37.7749, Longitude: -122.4194}

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := &config.Config{
		ServerAddress: "127.0.0.1:0",
		SettingsFile:  filepath.Join(t.TempDir(), config.DefaultSettingsFilename),
		Audio:         config.Audio{Backend: config.AudioBackendNone},
	}
	require.NoError(t, config.Validate(cfg))

	// Every reported sample is delivered.
	cfg.Location.MinInterval = 0
	cfg.Location.MinDistanceMeters = 0

	return cfg
}

func newTestService(t *testing.T, trackFile string) *service {
	t.Helper()

	cfg := testConfig(t)

	svc, err := newService(context.Background(), cfg, cfg.SettingsFile, trackFile)
	require.NoError(t, err)

	t.Cleanup(func() {
		svc.controller.Close(context.Background())
		svc.hub.Close()
	})

	return svc
}

// TestService_StartUsesPersistedTone falls back to the stored selection.
func TestService_StartUsesPersistedTone(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, "")
	ctx := context.Background()

	persisted := tone.Reference{URI: "builtin:beep", Name: "Beep"}
	require.NoError(t, svc.settings.SaveTone(ctx, persisted))

	snapshot, err := svc.Start(ctx, target, nil)
	require.NoError(t, err)
	require.Equal(t, &persisted, snapshot.Tone)

	explicit := &tone.Reference{URI: "builtin:alarm"}

	snapshot, err = svc.Start(ctx, target, explicit)
	require.NoError(t, err)
	require.Equal(t, explicit, snapshot.Tone)
}

// TestService_StartWithoutTone runs silently when nothing is selected.
func TestService_StartWithoutTone(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, "")

	snapshot, err := svc.Start(context.Background(), target, nil)
	require.NoError(t, err)
	require.Nil(t, snapshot.Tone)
	require.Equal(t, domain.PhaseArmed, snapshot.Phase)
}

// TestService_ReportLocation feeds the running session and fails without one.
func TestService_ReportLocation(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, "")
	ctx := context.Background()

	err := svc.ReportLocation(ctx, geo.Sample{Latitude: 37.7751, Longitude: -122.4195})
	require.ErrorIs(t, err, location.ErrNoSubscriber)

	watcher := svc.Watch(ctx)
	defer watcher.Close()

	_, err = svc.Start(ctx, target, nil)
	require.NoError(t, err)

	require.Equal(t, status.KindStarted, (<-watcher.C()).Kind)

	require.NoError(t, svc.ReportLocation(ctx, geo.Sample{Latitude: 37.7751, Longitude: -122.4195}))

	require.Equal(t, status.KindDistance, (<-watcher.C()).Kind)
	require.Equal(t, status.KindArrived, (<-watcher.C()).Kind)

	current, ok := svc.Status(ctx)
	require.True(t, ok)
	require.Equal(t, domain.PhaseAlerting, current.Phase)

	svc.Stop(ctx)

	require.Equal(t, status.KindCleared, (<-watcher.C()).Kind)

	_, ok = svc.Status(ctx)
	require.False(t, ok)
}

// TestService_ReplayRejectsReports disables ReportLocation with a track.
func TestService_ReplayRejectsReports(t *testing.T) {
	t.Parallel()

	track := filepath.Join(t.TempDir(), "track.yaml")
	writeTrack(t, track)

	svc := newTestService(t, track)
	require.Nil(t, svc.feed)

	err := svc.ReportLocation(context.Background(), geo.Sample{Latitude: 1, Longitude: 1})
	require.ErrorIs(t, err, api.ErrReportsUnsupported)
}

func TestNewService_MissingTrack(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)

	_, err := newService(context.Background(), cfg, cfg.SettingsFile, filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestResolveListenAddress(t *testing.T) {
	t.Parallel()

	address, err := resolveListenAddress("127.0.0.1:7000", "")
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:7000", address)

	address, err = resolveListenAddress("127.0.0.1:7000", ":9000")
	require.NoError(t, err)
	require.Equal(t, ":9000", address)

	_, err = resolveListenAddress("", "")
	require.ErrorIs(t, err, ErrNoServerAddress)

	_, err = resolveListenAddress("no-port", "")
	require.Error(t, err)
}

func writeTrack(t *testing.T, path string) {
	t.Helper()

	contents := []byte(`name: walk
samples:
  - {lat: 37.7803, lon: -122.4194}
  - {lat: 37.7751, lon: -122.4195}
`)
	require.NoError(t, os.WriteFile(path, contents, 0o600))
}
