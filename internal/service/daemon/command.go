package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"

	"google.golang.org/grpc"

	api "github.com/oshokin/proximity-alarm/internal/api/grpc/session"
	"github.com/oshokin/proximity-alarm/internal/audio"
	"github.com/oshokin/proximity-alarm/internal/config"
	"github.com/oshokin/proximity-alarm/internal/host"
	"github.com/oshokin/proximity-alarm/internal/location"
	"github.com/oshokin/proximity-alarm/internal/logger"
	"github.com/oshokin/proximity-alarm/internal/repository/settings"
	"github.com/oshokin/proximity-alarm/internal/session"
	"github.com/oshokin/proximity-alarm/internal/status"
)

// Name is the daemon executable name.
const Name = "alarmd"

// Options controls the alarmd process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the gRPC server.
	ListenAddress string
	// SettingsFile overrides the settings store path.
	SettingsFile string
	// TrackFile overrides location.track_file.
	TrackFile string
	// AllowMultiple skips the single-instance check.
	AllowMultiple bool
	// Ready, when set, receives the bound listen address once serving starts.
	Ready chan<- string
}

var (
	// ErrNoServerAddress indicates missing server configuration.
	ErrNoServerAddress = errors.New("no server address configured")
	// ErrAlreadyRunning is returned when another alarmd process is alive.
	ErrAlreadyRunning = errors.New("another alarmd instance is running")
)

// Run starts the daemon and blocks until ctx is canceled or the server stops.
// Cancellation stops the running session before the server shuts down.
//
//nolint:funlen // Wiring reads top to bottom.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, Name)

	settingsConfig, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if level, ok := logger.ParseLogLevel(settingsConfig.LogLevel); ok {
		logger.SetLevel(level)
	}

	if !opts.AllowMultiple {
		running, err := host.OtherInstanceRunning(host.ExecutableName(Name))
		if err != nil {
			logger.WarnKV(ctx, "Unable to list processes", "error", err)
		} else if running {
			return ErrAlreadyRunning
		}
	}

	listenAddress, err := resolveListenAddress(settingsConfig.ServerAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	settingsFile := settingsConfig.SettingsFile
	if opts.SettingsFile != "" {
		settingsFile = opts.SettingsFile
	}

	trackFile := settingsConfig.Location.TrackFile
	if opts.TrackFile != "" {
		trackFile = opts.TrackFile
	}

	svc, err := newService(ctx, settingsConfig, settingsFile, trackFile)
	if err != nil {
		return fmt.Errorf("initialise service: %w", err)
	}

	// Setup TCP listener for gRPC server.
	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	grpcServer := grpc.NewServer()
	api.RegisterSessionServiceServer(grpcServer, api.NewServer(svc))

	logger.InfoKV(ctx, "Alarm daemon listening",
		"listen_address", lis.Addr().String(),
		"settings_file", settingsFile,
		"track_file", trackFile,
		"audio_backend", settingsConfig.Audio.Backend,
	)

	if opts.Ready != nil {
		opts.Ready <- lis.Addr().String()
	}

	// Done channel is closed after GracefulStop finishes to ensure we block
	// until the server fully stops before returning.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down")

		// Process teardown: stop monitoring and release audio first.
		svc.controller.Close(ctx)
		// Closing the hub ends WatchStatus streams so GracefulStop can finish.
		svc.hub.Close()
		grpcServer.GracefulStop()
		close(done)
	}()

	if err = grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	<-done
	logger.Info(ctx, "Alarm daemon stopped")

	return nil
}

// newService builds the session stack from configuration.
func newService(ctx context.Context, cfg *config.Config, settingsFile, trackFile string) (*service, error) {
	policy := location.Policy{
		Interval:          cfg.Location.Interval,
		MinInterval:       cfg.Location.MinInterval,
		MinDistanceMeters: cfg.Location.MinDistanceMeters,
	}

	svc := &service{
		hub:      status.NewHub(),
		settings: settings.NewFileRepository(settingsFile),
	}

	var source location.Source

	if trackFile != "" {
		track, err := location.LoadTrack(trackFile)
		if err != nil {
			return nil, err
		}

		logger.InfoKV(ctx, "Replaying location track", "name", track.Name, "points", len(track.Samples))

		source = location.NewReplay(track, policy)
	} else {
		svc.feed = location.NewFeed(policy)
		source = svc.feed
	}

	var backend audio.Backend = audio.NoopBackend{}
	if cfg.Audio.Backend == config.AudioBackendPulse {
		backend = audio.NewPulseBackend(cfg.Audio.ApplicationName)
	}

	var keeper host.Keeper = host.NewNoopKeeper()
	if cfg.KeepAlive {
		keeper = host.NewInhibitKeeper()
	}

	controller, err := session.NewController(source, audio.NewPlayer(backend),
		session.WithKeeper(keeper),
		session.WithSink(status.Multi{status.NewLogSink(), svc.hub}),
	)
	if err != nil {
		return nil, err
	}

	svc.controller = controller

	return svc, nil
}

// resolveListenAddress determines the listen address for the gRPC server.
// If override is provided, uses it directly. Otherwise keeps the configured
// host so that a loopback address stays loopback.
func resolveListenAddress(configAddr, override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	if _, _, err := net.SplitHostPort(configAddr); err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	return configAddr, nil
}
