package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.uber.org/atomic"

	"github.com/fursurecare/otpservice/internal/pkg/stacktrace"
)

// delivery is the Message every driver hands to handlers.
type delivery struct {
	body      []byte
	key       []byte
	headers   []Header
	id        string
	topic     string
	timestamp time.Time

	ack  func(ctx context.Context) error
	nack func(ctx context.Context) error

	responded atomic.Bool
}

func (d *delivery) Body() []byte             { return d.body }
func (d *delivery) Key() []byte              { return d.key }
func (d *delivery) Headers() []Header        { return d.headers }
func (d *delivery) Header(key string) string { return HeaderValue(d.headers, key) }
func (d *delivery) ID() string               { return d.id }
func (d *delivery) Topic() string            { return d.topic }
func (d *delivery) Timestamp() time.Time     { return d.timestamp }

// Ack settles the message once. Later Ack or Nack calls are no-ops.
func (d *delivery) Ack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.responded.Swap(true) || d.ack == nil {
		return nil
	}
	return d.ack(ctx)
}

// Nack asks for redelivery where the driver supports it.
func (d *delivery) Nack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.responded.Swap(true) || d.nack == nil {
		return nil
	}
	return d.nack(ctx)
}

// dispatch runs handler on d and settles it when autoAck is set and the
// handler did not settle it itself.
func dispatch(ctx context.Context, kind string, handler Handler, d *delivery, autoAck bool) error {
	herr := safeHandle(ctx, kind, handler, d)

	if !autoAck || d.responded.Load() {
		return nil
	}
	if herr != nil {
		return d.Nack(ctx)
	}
	return d.Ack(ctx)
}

// safeHandle turns a handler panic into an error so one poisoned message is
// nacked instead of killing the consumer loop.
func safeHandle(ctx context.Context, kind string, handler Handler, d *delivery) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			slog.ErrorContext(ctx, "panic in messaging handler", "driver", kind, "topic", d.topic, "panic", rvr, "stack", stacktrace.Internal(1))
			err = fmt.Errorf("messaging: panic in %s handler: %v", kind, rvr)
		}
	}()

	return handler(ctx, d)
}
