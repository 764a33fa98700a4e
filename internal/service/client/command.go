package client

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"

	"github.com/oshokin/proximity-alarm/internal/config"
	"github.com/oshokin/proximity-alarm/internal/domain/geo"
	domain "github.com/oshokin/proximity-alarm/internal/domain/session"
	"github.com/oshokin/proximity-alarm/internal/domain/tone"
	"github.com/oshokin/proximity-alarm/internal/logger"
	"github.com/oshokin/proximity-alarm/internal/service/common"
)

// Options configures the connection to alarmd.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string
	// ServerAddress overrides server address from config when specified.
	ServerAddress string
	// Attempts bounds how many times an unreachable daemon is retried.
	Attempts int
}

// StartOptions configures alarm-start.
type StartOptions struct {
	Options

	// Target is the destination.
	Target geo.Target
	// ToneURI overrides the persisted tone when set.
	ToneURI string
	// ToneName is the display name for ToneURI.
	ToneName string
}

const (
	// defaultRetryInterval is the delay between attempts.
	defaultRetryInterval = 1 * time.Second
	// defaultAttempts is used when Options.Attempts is not set.
	defaultAttempts = 3
)

// ParseTarget parses decimal degree arguments.
func ParseTarget(latitude, longitude string) (geo.Target, error) {
	lat, err := strconv.ParseFloat(latitude, 64)
	if err != nil {
		return geo.Target{}, fmt.Errorf("parse latitude %q: %w", latitude, err)
	}

	lon, err := strconv.ParseFloat(longitude, 64)
	if err != nil {
		return geo.Target{}, fmt.Errorf("parse longitude %q: %w", longitude, err)
	}

	target := geo.Target{Latitude: lat, Longitude: lon}

	return target, target.Validate()
}

// RunStart asks alarmd to start monitoring opts.Target.
func RunStart(ctx context.Context, opts *StartOptions) error {
	ctx = logger.WithName(ctx, "alarm-start")

	if err := opts.Target.Validate(); err != nil {
		return err
	}

	var ref *tone.Reference
	if opts.ToneURI != "" {
		ref = &tone.Reference{URI: opts.ToneURI, Name: opts.ToneName}
	}

	return withClient(ctx, &opts.Options, func(client *common.Client) error {
		snapshot, err := client.Start(ctx, opts.Target, ref)
		if err != nil {
			return err
		}

		logger.Infof(ctx, "Session started: %s", FormatSnapshot(snapshot))

		return nil
	})
}

// RunStop asks alarmd to stop the running session.
func RunStop(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "alarm-stop")

	return withClient(ctx, opts, func(client *common.Client) error {
		if err := client.Stop(ctx); err != nil {
			return err
		}

		logger.Info(ctx, "Session stopped")

		return nil
	})
}

// withClient loads configuration, dials alarmd and runs call, retrying while
// the daemon is unavailable.
func withClient(ctx context.Context, opts *Options, call func(*common.Client) error) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	// Identify current user and hostname for audit logging.
	actor, err := common.DetectActor()
	if err != nil {
		return err
	}

	client, err := common.Dial(ctx, serverAddress,
		common.WithCallTimeout(cfg.Timeout),
		common.WithActor(actor),
	)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	attempts := opts.Attempts
	if attempts <= 0 {
		attempts = defaultAttempts
	}

	return retry(ctx, attempts, defaultRetryInterval, func() error {
		return call(client)
	})
}

// retry runs attempt until it succeeds, fails with a non-transient error or
// attempts run out.
func retry(ctx context.Context, attempts int, interval time.Duration, attempt func() error) error {
	err := attempt()
	if !transient(err) {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for left := attempts - 1; left > 0; left-- {
		logger.WarnKV(ctx, "Daemon unavailable, retrying", "error", err, "attempts_left", left)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		if err = attempt(); !transient(err) {
			return err
		}
	}

	return err
}

func transient(err error) bool {
	return err != nil && grpcstatus.Code(err) == codes.Unavailable
}

// FormatSnapshot renders a snapshot for humans.
func FormatSnapshot(snapshot *domain.Snapshot) string {
	if snapshot == nil {
		return "<nil session>"
	}

	distance := "unknown"
	if snapshot.LastDistanceMeters != nil {
		distance = fmt.Sprintf("%.0f m", *snapshot.LastDistanceMeters)
	}

	started := "<unknown>"
	if !snapshot.StartedAt.IsZero() {
		started = snapshot.StartedAt.Local().Format(time.RFC3339)
	}

	return fmt.Sprintf("%s %s target=%s tone=%q distance=%s samples=%d since %s",
		snapshot.ID,
		snapshot.Phase,
		snapshot.Target,
		snapshot.Tone.DisplayName(),
		distance,
		snapshot.SamplesProcessed,
		started,
	)
}
