package feeder

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"

	"github.com/oshokin/proximity-alarm/internal/config"
	"github.com/oshokin/proximity-alarm/internal/domain/geo"
	"github.com/oshokin/proximity-alarm/internal/location"
	"github.com/oshokin/proximity-alarm/internal/logger"
	"github.com/oshokin/proximity-alarm/internal/service/common"
)

// Options controls the feeder.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// ServerAddress provides an optional gRPC server address override.
	ServerAddress string
	// TrackFile is the YAML track to replay.
	TrackFile string
	// Interval overrides location.interval.
	Interval time.Duration
	// Loop restarts the track after the last point.
	Loop bool
}

// Reporter receives location samples.
type Reporter interface {
	ReportLocation(ctx context.Context, sample geo.Sample) error
}

// Run replays the track until it ends or ctx is canceled.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "alarm-feeder")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	interval := cfg.Location.Interval
	if opts.Interval > 0 {
		interval = opts.Interval
	}

	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	track, err := location.LoadTrack(opts.TrackFile)
	if err != nil {
		return err
	}

	actor, err := common.DetectActor()
	if err != nil {
		return fmt.Errorf("detect actor: %w", err)
	}

	client, err := common.Dial(ctx, serverAddress,
		common.WithCallTimeout(cfg.Timeout),
		common.WithActor(actor),
	)
	if err != nil {
		return fmt.Errorf("dial server: %w", err)
	}

	// Ensure connection cleanup on function exit.
	defer func() {
		_ = client.Close()
	}()

	logger.InfoKV(ctx, "Feeding track",
		"server_address", serverAddress,
		"track", track.Name,
		"points", len(track.Samples),
		"interval", interval.String(),
	)

	return Feed(ctx, client, track, interval, opts.Loop)
}

// Feed sends the first point right away and one more per interval. Points
// without a timestamp are stamped at send time, and so is every point after
// the track wraps around, since recorded times would go backwards. Failed
// reports are logged and the feed moves on.
func Feed(ctx context.Context, reporter Reporter, track *location.Track, interval time.Duration, loop bool) error {
	if track == nil || len(track.Samples) == 0 {
		return location.ErrEmptyTrack
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var (
		next    int
		wrapped bool
	)

	for {
		point := track.Samples[next]
		if wrapped {
			point.At = time.Time{}
		}

		report(ctx, reporter, point, next)

		next++
		if next == len(track.Samples) {
			if !loop {
				logger.Info(ctx, "Track finished")

				return nil
			}

			next = 0
			wrapped = true
		}

		select {
		case <-ctx.Done():
			logger.Info(ctx, "Context canceled, exiting")

			return nil
		case <-ticker.C:
		}
	}
}

func report(ctx context.Context, reporter Reporter, point location.TrackPoint, index int) {
	sample := point.Sample()
	if sample.Timestamp.IsZero() {
		sample.Timestamp = time.Now()
	}

	err := reporter.ReportLocation(ctx, sample)
	switch {
	case err == nil:
		logger.DebugKV(ctx, "Location reported", "index", index, "latitude", sample.Latitude, "longitude", sample.Longitude)
	case grpcstatus.Code(err) == codes.FailedPrecondition:
		logger.WarnKV(ctx, "Location not accepted", "index", index, "error", err)
	default:
		logger.ErrorKV(ctx, "Report location failed", "index", index, "error", err)
	}
}
