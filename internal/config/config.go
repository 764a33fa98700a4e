package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/proximity-alarm/internal/logger"
)

// Config holds the settings shared by the proximity alarm binaries.
type Config struct {
	// ServerAddress is the gRPC address of the alarm daemon.
	ServerAddress string `yaml:"server_addr"`
	// SettingsFile is the JSON key-value store holding the selected tone.
	SettingsFile string `yaml:"settings_file"`
	// Timeout bounds network operations and RPC calls.
	Timeout time.Duration `yaml:"timeout"`
	// LogLevel is the minimum level written by the global logger.
	LogLevel string `yaml:"log_level"`
	// KeepAlive asks the OS to keep the host awake while a session runs.
	KeepAlive bool `yaml:"keep_alive"`
	// Audio configures alarm playback.
	Audio Audio `yaml:"audio"`
	// Location configures the cadence of the location source.
	Location Location `yaml:"location"`
}

// Audio selects and configures the playback backend.
type Audio struct {
	// Backend is "pulse" or "none".
	Backend string `yaml:"backend"`
	// ApplicationName is reported to the sound server.
	ApplicationName string `yaml:"application_name"`
}

// Location is the cadence policy applied by the location source.
type Location struct {
	// Interval is the desired time between samples.
	Interval time.Duration `yaml:"interval"`
	// MinInterval is the shortest allowed time between delivered samples.
	MinInterval time.Duration `yaml:"min_interval"`
	// MinDistanceMeters is the movement required before a new sample is delivered.
	MinDistanceMeters float64 `yaml:"min_distance_meters"`
	// TrackFile, when set, makes the daemon replay a recorded track instead
	// of waiting for reported locations.
	TrackFile string `yaml:"track_file"`
}

const (
	// DefaultConfigFilename is the default filename for the settings.
	DefaultConfigFilename = "proximity-alarm-settings.yaml"

	// DefaultSettingsFilename is the default key-value store for the tone selection.
	DefaultSettingsFilename = "proximity-alarm-store.json"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultInterval is the default time between location samples.
	DefaultInterval = 5 * time.Second

	// DefaultMinInterval is the default minimum time between delivered samples.
	DefaultMinInterval = 2 * time.Second

	// DefaultMinDistanceMeters is the default minimum movement between delivered samples.
	DefaultMinDistanceMeters = 10.0

	// DefaultApplicationName is reported to the sound server.
	DefaultApplicationName = "proximity-alarm"

	// DefaultFilePermissions is the permission used for files written by the binaries.
	DefaultFilePermissions = 0o600

	// AudioBackendPulse plays alarms through PulseAudio.
	AudioBackendPulse = "pulse"
	// AudioBackendNone disables playback.
	AudioBackendNone = "none"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errServerAddressRequired is returned when the server address is missing.
	errServerAddressRequired = errors.New("server address must be provided")
	// errUnknownAudioBackend is returned for unsupported audio backends.
	errUnknownAudioBackend = errors.New("unknown audio backend")
	// errUnknownLogLevel is returned for unparsable log levels.
	errUnknownLogLevel = errors.New("unknown log level")
	// errNegativeCadence is returned when a cadence value is negative.
	errNegativeCadence = errors.New("location cadence values must not be negative")
)

// Load reads configuration from path and validates it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save validates cfg and writes it to path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks required fields and fills defaults in place.
//
//nolint:cyclop // A flat list of checks reads better than helpers here.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.ServerAddress == "" {
		return errServerAddressRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", settings.ServerAddress); err != nil {
		return fmt.Errorf("invalid server address: %w", err)
	}

	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	if settings.SettingsFile == "" {
		settings.SettingsFile = DefaultSettingsFilename
	}

	if _, ok := logger.ParseLogLevel(settings.LogLevel); !ok {
		return fmt.Errorf("%w: %q", errUnknownLogLevel, settings.LogLevel)
	}

	switch settings.Audio.Backend {
	case "":
		settings.Audio.Backend = AudioBackendPulse
	case AudioBackendPulse, AudioBackendNone:
	default:
		return fmt.Errorf("%w: %q", errUnknownAudioBackend, settings.Audio.Backend)
	}

	if settings.Audio.ApplicationName == "" {
		settings.Audio.ApplicationName = DefaultApplicationName
	}

	loc := &settings.Location
	if loc.Interval < 0 || loc.MinInterval < 0 || loc.MinDistanceMeters < 0 {
		return errNegativeCadence
	}

	if loc.Interval == 0 {
		loc.Interval = DefaultInterval
	}

	if loc.MinInterval == 0 {
		loc.MinInterval = DefaultMinInterval
	}

	if loc.MinDistanceMeters == 0 {
		loc.MinDistanceMeters = DefaultMinDistanceMeters
	}

	return nil
}
