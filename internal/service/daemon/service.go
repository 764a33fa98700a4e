package daemon

import (
	"context"
	"fmt"

	api "github.com/oshokin/proximity-alarm/internal/api/grpc/session"
	"github.com/oshokin/proximity-alarm/internal/domain/geo"
	domain "github.com/oshokin/proximity-alarm/internal/domain/session"
	"github.com/oshokin/proximity-alarm/internal/domain/tone"
	"github.com/oshokin/proximity-alarm/internal/location"
	"github.com/oshokin/proximity-alarm/internal/logger"
	"github.com/oshokin/proximity-alarm/internal/repository/settings"
	"github.com/oshokin/proximity-alarm/internal/service/common"
	"github.com/oshokin/proximity-alarm/internal/session"
	"github.com/oshokin/proximity-alarm/internal/status"
)

// service connects the transport to the session controller.
// It is unexported to keep the transport decoupled from the implementation.
type service struct {
	// controller owns the running session.
	controller *session.Controller
	// feed receives reported locations; nil when a track is replayed.
	feed *location.Feed
	// hub fans status updates out to watchers.
	hub *status.Hub
	// settings holds the persisted tone.
	settings settings.Repository
}

var _ api.Service = (*service)(nil)

// Start begins a session. Without an explicit tone the persisted one is used.
func (s *service) Start(ctx context.Context, target geo.Target, ref *tone.Reference) (*domain.Snapshot, error) {
	ctx = logger.WithKV(ctx, "actor", common.ActorFromContext(ctx))

	if ref.IsZero() && s.settings != nil {
		persisted, err := s.settings.LoadTone(ctx)
		if err != nil {
			// An unreadable store starts the session without a tone.
			logger.ErrorKV(ctx, "Failed to load selected tone", "error", err)
		}

		ref = persisted
	}

	handle, err := s.controller.Start(ctx, target, ref)
	if err != nil {
		return nil, err
	}

	snapshot, ok := s.controller.Status()
	if !ok {
		return nil, fmt.Errorf("session %s ended right after start", handle.ID)
	}

	return snapshot, nil
}

// Stop ends the running session.
func (s *service) Stop(ctx context.Context) {
	ctx = logger.WithKV(ctx, "actor", common.ActorFromContext(ctx))

	logger.Info(ctx, "Stop requested")

	s.controller.Stop(ctx)
}

// Status returns the running session snapshot.
func (s *service) Status(context.Context) (*domain.Snapshot, bool) {
	return s.controller.Status()
}

// ReportLocation pushes a sample into the feed.
func (s *service) ReportLocation(ctx context.Context, sample geo.Sample) error {
	if s.feed == nil {
		return api.ErrReportsUnsupported
	}

	delivered, err := s.feed.Push(ctx, sample)
	if err != nil {
		return err
	}

	if !delivered {
		logger.DebugKV(ctx, "Location sample filtered by cadence policy",
			"latitude", sample.Latitude,
			"longitude", sample.Longitude,
		)
	}

	return nil
}

// Watch attaches a status watcher.
func (s *service) Watch(context.Context) *status.Watcher {
	return s.hub.Watch()
}
