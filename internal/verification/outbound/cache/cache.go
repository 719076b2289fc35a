package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fursurecare/otpservice/internal/pkg/goerror"
	"github.com/fursurecare/otpservice/internal/pkg/instrument"
)

const (
	keyCooldown = "otp:cooldown:"
	keyConsumed = "otp:consumed:"
	keyLatest   = "otp:latest:"
)

type Cache struct {
	client redis.UniversalClient
	ins    instrument.Instrumentation
}

func New(client redis.UniversalClient, ins instrument.Instrumentation) *Cache {
	return &Cache{client: client, ins: ins}
}

func (c *Cache) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.ins.Tracer("verification.outbound.cache").Start(ctx, name)
}

func (c *Cache) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// AcquireCooldown takes the resend slot for email. When the slot is already
// held it reports how long until it frees up.
func (c *Cache) AcquireCooldown(ctx context.Context, email string, ttl time.Duration) (_ bool, _ time.Duration, err error) {
	ctx, span := c.startSpan(ctx, "AcquireCooldown")
	defer func() { c.endSpan(span, err) }()

	key := keyCooldown + email

	ok, err := c.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, 0, err
	}
	if ok {
		return true, 0, nil
	}

	remaining, err := c.client.PTTL(ctx, key).Result()
	if err != nil {
		return false, 0, err
	}
	// -2: expired between the two calls, -1: no expiry set.
	if remaining <= 0 {
		remaining = time.Second
	}

	return false, remaining, nil
}

func (c *Cache) ReleaseCooldown(ctx context.Context, email string) (err error) {
	ctx, span := c.startSpan(ctx, "ReleaseCooldown")
	defer func() { c.endSpan(span, err) }()

	return c.client.Del(ctx, keyCooldown+email).Err()
}

// MarkConsumed records fingerprint as used. Only the first caller gets true.
func (c *Cache) MarkConsumed(ctx context.Context, fingerprint string, ttl time.Duration) (_ bool, err error) {
	ctx, span := c.startSpan(ctx, "MarkConsumed")
	defer func() { c.endSpan(span, err) }()

	return c.client.SetNX(ctx, keyConsumed+fingerprint, "1", ttl).Result()
}

func (c *Cache) SetLatestToken(ctx context.Context, email, fingerprint string, ttl time.Duration) (err error) {
	ctx, span := c.startSpan(ctx, "SetLatestToken")
	defer func() { c.endSpan(span, err) }()

	return c.client.Set(ctx, keyLatest+email, fingerprint, ttl).Err()
}

func (c *Cache) GetLatestToken(ctx context.Context, email string) (_ string, err error) {
	ctx, span := c.startSpan(ctx, "GetLatestToken")
	defer func() { c.endSpan(span, err) }()

	fp, err := c.client.Get(ctx, keyLatest+email).Result()
	if errors.Is(err, redis.Nil) {
		return "", goerror.ErrNotFound
	}

	return fp, err
}

// Ping is used by the health endpoint.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
