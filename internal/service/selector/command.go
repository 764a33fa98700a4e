package selector

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/oshokin/proximity-alarm/internal/audio"
	"github.com/oshokin/proximity-alarm/internal/config"
	"github.com/oshokin/proximity-alarm/internal/domain/tone"
	"github.com/oshokin/proximity-alarm/internal/logger"
	"github.com/oshokin/proximity-alarm/internal/repository/settings"
)

// Options configures alarm-tone.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string
	// SettingsFile overrides the settings store path.
	SettingsFile string
	// URI selects a new tone when set.
	URI string
	// Name is the display name of URI.
	Name string
	// Clear removes the selection.
	Clear bool
	// SkipCheck saves URI without decoding it first.
	SkipCheck bool
	// Output receives the rendered lines; stdout when nil.
	Output io.Writer
}

// Run prints the selected tone or persists a new one.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "alarm-tone")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	settingsFile := cfg.SettingsFile
	if opts.SettingsFile != "" {
		settingsFile = opts.SettingsFile
	}

	return run(ctx, settings.NewFileRepository(settingsFile), opts)
}

func run(ctx context.Context, repo settings.Repository, opts *Options) error {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	switch {
	case opts.Clear:
		if err := repo.SaveTone(ctx, tone.Reference{}); err != nil {
			return err
		}

		logger.Info(ctx, "Tone selection cleared")
	case opts.URI != "":
		if !opts.SkipCheck {
			// The daemon resolves the URI the same way when the alarm fires.
			if _, err := audio.LoadClip(ctx, opts.URI); err != nil {
				return fmt.Errorf("check tone: %w", err)
			}
		}

		ref := tone.Reference{URI: opts.URI, Name: opts.Name}
		if err := repo.SaveTone(ctx, ref); err != nil {
			return err
		}

		logger.InfoKV(ctx, "Tone selected", "uri", ref.URI, "name", ref.DisplayName())
	}

	current, err := repo.LoadTone(ctx)
	if err != nil {
		return err
	}

	if current.IsZero() {
		_, err = fmt.Fprintln(out, tone.DefaultName)

		return err
	}

	_, err = fmt.Fprintf(out, "%s (%s)\n", current.DisplayName(), current.URI)

	return err
}
