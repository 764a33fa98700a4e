package host

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"github.com/oshokin/proximity-alarm/internal/logger"
)

// inhibitorWho is reported to the OS as the inhibitor owner.
const inhibitorWho = "proximity-alarm"

var (
	// ErrBusy is returned by Acquire while another token is held.
	ErrBusy = errors.New("keep-alive token already held")
	// ErrUnsupportedOS indicates the current OS has no known sleep inhibitor.
	ErrUnsupportedOS = errors.New("unsupported operating system")
)

// Keeper grants one keep-alive token at a time.
type Keeper interface {
	Acquire(ctx context.Context, reason string) (Token, error)
}

// Token is an acquired keep-alive. Release is idempotent.
type Token interface {
	Release() error
}

// slot tracks whether a token is outstanding.
type slot struct {
	mu   sync.Mutex
	held bool
}

func (s *slot) take() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.held {
		return ErrBusy
	}

	s.held = true

	return nil
}

func (s *slot) free() {
	s.mu.Lock()
	s.held = false
	s.mu.Unlock()
}

// NoopKeeper enforces exclusivity without touching the OS.
type NoopKeeper struct {
	slot slot
}

// NewNoopKeeper creates a NoopKeeper.
func NewNoopKeeper() *NoopKeeper {
	return new(NoopKeeper)
}

// Acquire returns a token or ErrBusy.
func (k *NoopKeeper) Acquire(ctx context.Context, reason string) (Token, error) {
	if err := k.slot.take(); err != nil {
		return nil, err
	}

	logger.DebugKV(ctx, "Keep-alive acquired", "reason", reason, "keeper", "noop")

	return &noopToken{slot: &k.slot}, nil
}

type noopToken struct {
	slot *slot
	once sync.Once
}

func (t *noopToken) Release() error {
	t.once.Do(t.slot.free)

	return nil
}

// Launcher builds the inhibitor command for a reason.
type Launcher func(reason string) (*exec.Cmd, error)

// InhibitKeeper runs the OS sleep inhibitor for as long as a token is held:
// systemd-inhibit on Linux, caffeinate on macOS.
type InhibitKeeper struct {
	slot   slot
	launch Launcher
}

// InhibitOption configures an InhibitKeeper.
type InhibitOption func(*InhibitKeeper)

// WithLauncher replaces the OS-specific inhibitor command.
func WithLauncher(launch Launcher) InhibitOption {
	return func(k *InhibitKeeper) {
		if launch != nil {
			k.launch = launch
		}
	}
}

// NewInhibitKeeper creates a keeper for the current OS.
func NewInhibitKeeper(opts ...InhibitOption) *InhibitKeeper {
	k := &InhibitKeeper{
		launch: func(reason string) (*exec.Cmd, error) {
			return InhibitCommand(runtime.GOOS, reason)
		},
	}

	for _, opt := range opts {
		opt(k)
	}

	return k
}

// InhibitCommand returns the sleep inhibitor command for goos.
// The command blocks until killed.
func InhibitCommand(goos, reason string) (*exec.Cmd, error) {
	osName := strings.ToLower(goos)

	switch {
	case strings.Contains(osName, "linux"):
		return exec.Command( //nolint:gosec // Fixed binary, reason is passed as a single argument.
			"systemd-inhibit",
			"--what=sleep:idle",
			"--who="+inhibitorWho,
			"--why="+reason,
			"--mode=block",
			"sleep", "infinity",
		), nil
	case strings.Contains(osName, "darwin"):
		return exec.Command("caffeinate", "-i", "-s"), nil
	default:
		return nil, fmt.Errorf("sleep inhibitor for %s: %w", goos, ErrUnsupportedOS)
	}
}

// Acquire starts the inhibitor process. The process outlives ctx and is
// stopped by Token.Release.
func (k *InhibitKeeper) Acquire(ctx context.Context, reason string) (Token, error) {
	if err := k.slot.take(); err != nil {
		return nil, err
	}

	cmd, err := k.launch(reason)
	if err != nil {
		k.slot.free()

		return nil, err
	}

	if err = cmd.Start(); err != nil {
		k.slot.free()

		return nil, fmt.Errorf("start sleep inhibitor: %w", err)
	}

	logger.InfoKV(ctx, "Keep-alive acquired", "reason", reason, "pid", cmd.Process.Pid)

	return &inhibitToken{slot: &k.slot, cmd: cmd}, nil
}

type inhibitToken struct {
	slot *slot
	cmd  *exec.Cmd
	once sync.Once
	err  error
}

func (t *inhibitToken) Release() error {
	t.once.Do(func() {
		defer t.slot.free()

		if err := t.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			t.err = fmt.Errorf("stop sleep inhibitor: %w", err)

			return
		}

		// Killed inhibitors exit non-zero; reap and ignore the status.
		_ = t.cmd.Wait()
	})

	return t.err
}
