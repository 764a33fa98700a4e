//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"

	api "github.com/oshokin/proximity-alarm/internal/api/grpc/session"
	"github.com/oshokin/proximity-alarm/internal/config"
	"github.com/oshokin/proximity-alarm/internal/domain/geo"
	domain "github.com/oshokin/proximity-alarm/internal/domain/session"
	"github.com/oshokin/proximity-alarm/internal/domain/tone"
	"github.com/oshokin/proximity-alarm/internal/status"
)

// ActorMetadataKey carries the caller identity in request metadata.
const ActorMetadataKey = "x-proximity-actor"

// Client wraps the gRPC SessionService client with convenience helpers.
type Client struct {
	// conn is the underlying gRPC connection to the daemon.
	conn *grpc.ClientConn
	// api is the SessionService client.
	api *api.SessionServiceClient
	// actor is attached to every call when set.
	actor *Actor

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithActor attaches the caller identity to every call.
func WithActor(actor *Actor) Option {
	return func(c *Client) {
		c.actor = actor
	}
}

// errAddressRequired is returned when a required address value is missing.
var errAddressRequired = errors.New("address must be provided")

// Dial establishes a gRPC connection to the daemon.
// Note: this uses insecure transport credentials; the daemon is meant to
// listen on a loopback or otherwise trusted address.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial daemon: %w", err)
	}

	client := &Client{
		conn:        conn,
		api:         api.NewSessionServiceClient(conn),
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// Start asks the daemon to monitor target. A nil ref lets the daemon use the
// persisted tone.
func (c *Client) Start(ctx context.Context, target geo.Target, ref *tone.Reference) (*domain.Snapshot, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	response, err := c.api.Start(callCtx, api.EncodeStartRequest(target, ref))
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}

	snapshot, err := api.DecodeSnapshot(response)
	if err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}

	return snapshot, nil
}

// Stop asks the daemon to stop the running session.
func (c *Client) Stop(ctx context.Context) error {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	if err := c.api.Stop(callCtx, new(emptypb.Empty)); err != nil {
		return fmt.Errorf("stop session: %w", err)
	}

	return nil
}

// GetStatus returns the running session snapshot. A gRPC NotFound error
// means no session is running.
func (c *Client) GetStatus(ctx context.Context) (*domain.Snapshot, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	response, err := c.api.GetStatus(callCtx, new(emptypb.Empty))
	if err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}

	snapshot, err := api.DecodeSnapshot(response)
	if err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}

	return snapshot, nil
}

// ReportLocation pushes one sample to the daemon.
func (c *Client) ReportLocation(ctx context.Context, sample geo.Sample) error {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	if err := c.api.ReportLocation(callCtx, api.EncodeSample(sample)); err != nil {
		return fmt.Errorf("report location: %w", err)
	}

	return nil
}

// WatchStatus calls fn for every streamed status update until ctx is
// cancelled, the stream ends or fn returns an error. The call timeout does
// not apply to the stream.
func (c *Client) WatchStatus(ctx context.Context, fn func(status.Status) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := c.api.WatchStatus(c.withActor(ctx), new(emptypb.Empty))
	if err != nil {
		return fmt.Errorf("watch status: %w", err)
	}

	for {
		msg, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}

			return fmt.Errorf("receive status: %w", err)
		}

		update, err := api.DecodeStatus(msg)
		if err != nil {
			return fmt.Errorf("decode status: %w", err)
		}

		if err = fn(update); err != nil {
			return err
		}
	}
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = c.withActor(ctx)

	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}

func (c *Client) withActor(ctx context.Context) context.Context {
	if c.actor == nil {
		return ctx
	}

	return metadata.AppendToOutgoingContext(ctx, ActorMetadataKey, c.actor.String())
}

// ActorFromContext returns the caller identity sent with an incoming request.
func ActorFromContext(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}

	values := md.Get(ActorMetadataKey)
	if len(values) == 0 {
		return ""
	}

	return values[0]
}
