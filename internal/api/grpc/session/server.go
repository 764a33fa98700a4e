package session

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/proximity-alarm/internal/domain/geo"
	domain "github.com/oshokin/proximity-alarm/internal/domain/session"
	"github.com/oshokin/proximity-alarm/internal/domain/tone"
	"github.com/oshokin/proximity-alarm/internal/location"
	"github.com/oshokin/proximity-alarm/internal/logger"
	controller "github.com/oshokin/proximity-alarm/internal/session"
	"github.com/oshokin/proximity-alarm/internal/status"
)

// ErrReportsUnsupported is returned by services whose location source does
// not accept pushed samples.
var ErrReportsUnsupported = errors.New("location source does not accept reports")

// Service abstracts the business operations the transport layer depends on.
type Service interface {
	Start(ctx context.Context, target geo.Target, ref *tone.Reference) (*domain.Snapshot, error)
	Stop(ctx context.Context)
	Status(ctx context.Context) (*domain.Snapshot, bool)
	ReportLocation(ctx context.Context, sample geo.Sample) error
	Watch(ctx context.Context) *status.Watcher
}

// Server implements the SessionService gRPC API.
type Server struct {
	// service provides the business logic for session operations.
	service Service
}

var _ SessionServiceServer = (*Server)(nil)

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// Start begins monitoring a destination, replacing any running session.
func (s *Server) Start(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, grpcstatus.Error(codes.InvalidArgument, "request is required")
	}

	target, ref, err := DecodeStartRequest(req)
	if err != nil {
		return nil, grpcstatus.Error(codes.InvalidArgument, err.Error())
	}

	snapshot, err := s.service.Start(ctx, target, ref)
	if err != nil {
		return nil, toStatusError(ctx, err)
	}

	return EncodeSnapshot(snapshot), nil
}

// Stop ends the running session. It succeeds when nothing is running.
func (s *Server) Stop(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	s.service.Stop(ctx)

	return new(emptypb.Empty), nil
}

// GetStatus returns the running session snapshot.
func (s *Server) GetStatus(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	snapshot, ok := s.service.Status(ctx)
	if !ok {
		return nil, grpcstatus.Error(codes.NotFound, "no active session")
	}

	return EncodeSnapshot(snapshot), nil
}

// ReportLocation feeds one location sample to the running session.
func (s *Server) ReportLocation(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	if req == nil {
		return nil, grpcstatus.Error(codes.InvalidArgument, "request is required")
	}

	sample, err := DecodeSample(req)
	if err != nil {
		return nil, grpcstatus.Error(codes.InvalidArgument, err.Error())
	}

	if err = s.service.ReportLocation(ctx, sample); err != nil {
		return nil, toStatusError(ctx, err)
	}

	return new(emptypb.Empty), nil
}

// WatchStatus streams status updates until the client goes away or the
// server shuts down.
func (s *Server) WatchStatus(_ *emptypb.Empty, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	ctx := stream.Context()

	watcher := s.service.Watch(ctx)
	defer watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-watcher.C():
			if !ok {
				return nil
			}

			if err := stream.Send(EncodeStatus(update)); err != nil {
				return err
			}
		}
	}
}

// toStatusError maps domain errors to gRPC status codes.
func toStatusError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, geo.ErrInvalidTarget):
		return grpcstatus.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, controller.ErrAlreadyRunning):
		return grpcstatus.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, location.ErrNoSubscriber):
		return grpcstatus.Error(codes.FailedPrecondition, "no active session")
	case errors.Is(err, ErrReportsUnsupported):
		return grpcstatus.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return grpcstatus.FromContextError(err).Err()
	default:
		logger.ErrorKV(ctx, "Session request failed", "error", err)

		return grpcstatus.Error(codes.Internal, "internal error")
	}
}
