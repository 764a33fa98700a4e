package integration

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"

	"github.com/oshokin/proximity-alarm/internal/config"
	"github.com/oshokin/proximity-alarm/internal/domain/geo"
	domain "github.com/oshokin/proximity-alarm/internal/domain/session"
	"github.com/oshokin/proximity-alarm/internal/domain/tone"
	"github.com/oshokin/proximity-alarm/internal/service/common"
	"github.com/oshokin/proximity-alarm/internal/service/daemon"
	"github.com/oshokin/proximity-alarm/internal/service/selector"
	"github.com/oshokin/proximity-alarm/internal/service/watcher"
	"github.com/oshokin/proximity-alarm/internal/status"
)

//nolint:gochecknoglobals // Shared test fixture.
var cityHall = geo.Target{Latitude: 37.7749, Longitude: -122.4194}

// testEnv is a running daemon with its files.
type testEnv struct {
	address    string
	configPath string
	settings   string
	cancel     context.CancelFunc
	done       chan error
}

// writeConfig stores a config that plays no audio and holds no inhibitor.
func writeConfig(t *testing.T, location config.Location) (configPath, settingsPath string) {
	t.Helper()

	dir := t.TempDir()
	configPath = filepath.Join(dir, "settings.yaml")
	settingsPath = filepath.Join(dir, "store.json")

	require.NoError(t, config.Save(configPath, &config.Config{
		ServerAddress: "127.0.0.1:0",
		SettingsFile:  settingsPath,
		Timeout:       3 * time.Second,
		LogLevel:      "warn",
		Audio:         config.Audio{Backend: config.AudioBackendNone},
		Location:      location,
	}))

	return configPath, settingsPath
}

// startDaemon runs daemon.Run in the background and waits until it listens.
func startDaemon(t *testing.T, location config.Location) *testEnv {
	t.Helper()

	configPath, settingsPath := writeConfig(t, location)

	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan string, 1)

	env := &testEnv{
		configPath: configPath,
		settings:   settingsPath,
		cancel:     cancel,
		done:       make(chan error, 1),
	}

	go func() {
		env.done <- daemon.Run(ctx, &daemon.Options{
			ConfigPath:    configPath,
			ListenAddress: "127.0.0.1:0",
			AllowMultiple: true,
			Ready:         ready,
		})
	}()

	select {
	case env.address = <-ready:
	case err := <-env.done:
		cancel()
		t.Fatalf("daemon exited early: %v", err)
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("daemon did not start")
	}

	t.Cleanup(func() {
		env.shutdown(t)
	})

	return env
}

func (e *testEnv) shutdown(t *testing.T) {
	t.Helper()

	e.cancel()

	select {
	case err, ok := <-e.done:
		if ok {
			require.NoError(t, err)
			close(e.done)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop")
	}
}

func (e *testEnv) dial(t *testing.T) *common.Client {
	t.Helper()

	client, err := common.Dial(context.Background(), e.address, common.WithCallTimeout(3*time.Second))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()
	})

	return client
}

// statusRecorder collects streamed updates.
type statusRecorder struct {
	mu      sync.Mutex
	updates []status.Status
}

func (r *statusRecorder) add(update status.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.updates = append(r.updates, update)

	return nil
}

func (r *statusRecorder) kinds() []status.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()

	kinds := make([]status.Kind, 0, len(r.updates))
	for _, update := range r.updates {
		kinds = append(kinds, update.Kind)
	}

	return kinds
}

// TestDaemon_ApproachScenario reports three samples and expects exactly one alarm.
func TestDaemon_ApproachScenario(t *testing.T) {
	t.Parallel()

	env := startDaemon(t, config.Location{})
	client := env.dial(t)
	ctx := context.Background()

	_, err := client.GetStatus(ctx)
	require.Equal(t, codes.NotFound, grpcstatus.Code(err))

	_, err = client.Start(ctx, geo.Target{}, nil)
	require.Equal(t, codes.InvalidArgument, grpcstatus.Code(err))

	snapshot, err := client.Start(ctx, cityHall, &tone.Reference{URI: "builtin:alarm", Name: "Alarm"})
	require.NoError(t, err)
	require.Equal(t, domain.PhaseArmed, snapshot.Phase)
	require.NotEmpty(t, snapshot.ID)

	recorder := new(statusRecorder)
	watchCtx, stopWatching := context.WithCancel(ctx)

	watchDone := make(chan error, 1)

	go func() {
		watchDone <- client.WatchStatus(watchCtx, recorder.add)
	}()

	// The latest status is replayed to new watchers.
	require.Eventually(t, func() bool {
		return len(recorder.kinds()) == 1
	}, 3*time.Second, 10*time.Millisecond)

	base := time.Now()
	samples := []geo.Sample{
		{Latitude: 37.80, Longitude: -122.45},
		{Latitude: 37.7795, Longitude: -122.4194},
		{Latitude: 37.7751, Longitude: -122.4195},
	}

	for i, sample := range samples {
		// Spaced to pass the default cadence policy.
		sample.Timestamp = base.Add(time.Duration(i) * 5 * time.Second)
		require.NoError(t, client.ReportLocation(ctx, sample))
	}

	require.Eventually(t, func() bool {
		current, err := client.GetStatus(ctx)

		return err == nil && current.Phase == domain.PhaseAlerting && current.SamplesProcessed == 3
	}, 3*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		return len(recorder.kinds()) == 5
	}, 3*time.Second, 10*time.Millisecond)

	require.Equal(t, []status.Kind{
		status.KindStarted,
		status.KindDistance,
		status.KindDistance,
		status.KindDistance,
		status.KindArrived,
	}, recorder.kinds())

	require.NoError(t, client.Stop(ctx))
	require.NoError(t, client.Stop(ctx))

	_, err = client.GetStatus(ctx)
	require.Equal(t, codes.NotFound, grpcstatus.Code(err))

	require.Eventually(t, func() bool {
		kinds := recorder.kinds()

		return len(kinds) == 6 && kinds[5] == status.KindCleared
	}, 3*time.Second, 10*time.Millisecond)

	stopWatching()
	require.NoError(t, <-watchDone)

	err = client.ReportLocation(ctx, geo.Sample{Latitude: 37.7751, Longitude: -122.4195})
	require.Equal(t, codes.FailedPrecondition, grpcstatus.Code(err))
}

// TestDaemon_PersistedTone uses the tone chosen with alarm-tone.
func TestDaemon_PersistedTone(t *testing.T) {
	t.Parallel()

	env := startDaemon(t, config.Location{})

	require.NoError(t, selector.Run(context.Background(), &selector.Options{
		ConfigPath: env.configPath,
		URI:        "builtin:beep",
		Name:       "Beep",
		Output:     new(bytes.Buffer),
	}))

	snapshot, err := env.dial(t).Start(context.Background(), cityHall, nil)
	require.NoError(t, err)
	require.Equal(t, &tone.Reference{URI: "builtin:beep", Name: "Beep"}, snapshot.Tone)
}

// TestDaemon_ReplayTrack replays a track file until the alarm fires.
func TestDaemon_ReplayTrack(t *testing.T) {
	t.Parallel()

	track := filepath.Join(t.TempDir(), "track.yaml")
	require.NoError(t, os.WriteFile(track, []byte(`name: approach
samples:
  - {lat: 37.8000, lon: -122.4500}
  - {lat: 37.7795, lon: -122.4194}
  - {lat: 37.7751, lon: -122.4195}
`), 0o600))

	env := startDaemon(t, config.Location{
		Interval:          20 * time.Millisecond,
		MinInterval:       time.Millisecond,
		MinDistanceMeters: 1,
		TrackFile:         track,
	})
	client := env.dial(t)
	ctx := context.Background()

	_, err := client.Start(ctx, cityHall, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		current, err := client.GetStatus(ctx)

		return err == nil && current.Phase == domain.PhaseAlerting
	}, 5*time.Second, 10*time.Millisecond)

	var out bytes.Buffer

	require.NoError(t, watcher.Run(ctx, &watcher.Options{ConfigPath: env.configPath, ServerAddress: env.address, Output: &out}))
	require.Contains(t, out.String(), "alerting")

	err = client.ReportLocation(ctx, geo.Sample{Latitude: 1, Longitude: 1})
	require.Equal(t, codes.FailedPrecondition, grpcstatus.Code(err))
}

// TestDaemon_ShutdownStopsSession tears the session down on cancellation.
func TestDaemon_ShutdownStopsSession(t *testing.T) {
	t.Parallel()

	env := startDaemon(t, config.Location{})
	client := env.dial(t)

	_, err := client.Start(context.Background(), cityHall, nil)
	require.NoError(t, err)

	env.shutdown(t)

	_, err = client.GetStatus(context.Background())
	require.Error(t, err)

	var out bytes.Buffer

	err = watcher.Run(context.Background(), &watcher.Options{
		ConfigPath:    env.configPath,
		ServerAddress: env.address,
		Output:        &out,
	})
	require.Error(t, err)
}
