package watcher

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"

	"github.com/oshokin/proximity-alarm/internal/config"
	"github.com/oshokin/proximity-alarm/internal/logger"
	"github.com/oshokin/proximity-alarm/internal/service/client"
	"github.com/oshokin/proximity-alarm/internal/service/common"
	"github.com/oshokin/proximity-alarm/internal/status"
)

// Options configures alarm-status.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string
	// ServerAddress overrides server address from config when specified.
	ServerAddress string
	// Watch follows the status stream instead of printing one snapshot.
	Watch bool
	// Output receives the rendered lines; stdout when nil.
	Output io.Writer
}

// Run prints the current session or, with Watch, every status update until
// ctx is canceled.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "alarm-status")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	conn, err := common.Dial(ctx, serverAddress, common.WithCallTimeout(cfg.Timeout))
	if err != nil {
		return err
	}

	defer func() {
		_ = conn.Close()
	}()

	if !opts.Watch {
		return printSnapshot(ctx, conn, out)
	}

	logger.InfoKV(ctx, "Watching session status", "server_address", serverAddress)

	return conn.WatchStatus(ctx, func(update status.Status) error {
		_, err := fmt.Fprintln(out, FormatStatus(update))

		return err
	})
}

func printSnapshot(ctx context.Context, conn *common.Client, out io.Writer) error {
	snapshot, err := conn.GetStatus(ctx)
	if err != nil {
		if grpcstatus.Code(err) == codes.NotFound {
			_, err = fmt.Fprintln(out, "No active session")

			return err
		}

		return err
	}

	_, err = fmt.Fprintln(out, client.FormatSnapshot(snapshot))

	return err
}

// FormatStatus renders one status update as a notification line.
func FormatStatus(update status.Status) string {
	timestamp := "--:--:--"
	if !update.Timestamp.IsZero() {
		timestamp = update.Timestamp.Local().Format(time.TimeOnly)
	}

	text := update.Text
	if update.Kind == status.KindCleared {
		text = "notification cleared"
	}

	return fmt.Sprintf("%s [%s] %s: %s", timestamp, update.Kind, status.Title, text)
}
