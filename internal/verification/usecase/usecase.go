package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fursurecare/otpservice/internal/pkg/clock"
	"github.com/fursurecare/otpservice/internal/pkg/config"
	"github.com/fursurecare/otpservice/internal/pkg/goroutine"
	"github.com/fursurecare/otpservice/internal/pkg/hash"
	"github.com/fursurecare/otpservice/internal/pkg/instrument"
	"github.com/fursurecare/otpservice/internal/pkg/otp"
	"github.com/fursurecare/otpservice/internal/pkg/uid"
	"github.com/fursurecare/otpservice/internal/pkg/validator"
	"github.com/fursurecare/otpservice/internal/verification/entity"
)

const (
	defaultCooldown = 60 * time.Second
	maxNameRunes    = 64
)

type repoCache interface {
	AcquireCooldown(ctx context.Context, email string, ttl time.Duration) (bool, time.Duration, error)
	ReleaseCooldown(ctx context.Context, email string) error
	MarkConsumed(ctx context.Context, fingerprint string, ttl time.Duration) (bool, error)
	SetLatestToken(ctx context.Context, email, fingerprint string, ttl time.Duration) error
	GetLatestToken(ctx context.Context, email string) (string, error)
}

type repoEmail interface {
	SendOTP(ctx context.Context, msg entity.OTPMail) error
}

type repoMessaging interface {
	PublishEvent(ctx context.Context, ev entity.Event) error
}

type tokenCodec interface {
	Window() time.Duration
	Seal(identity, code string, issuedAt time.Time) (string, error)
	Verify(identity, claimedCode, token string, now time.Time) (otp.Claims, error)
}

type Usecase struct {
	repoCache     repoCache
	repoEmail     repoEmail
	repoMessaging repoMessaging
	codec         tokenCodec
	code          otp.CodeGenerator
	fingerprint   hash.Fingerprinter
	validator     validator.Validator
	cfg           config.Config
	uuid          uid.StringID
	clock         clock.Clocker
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager

	issuedCounter   metric.Int64Counter
	verifiedCounter metric.Int64Counter
	rejectedCounter metric.Int64Counter
}

type Dependency struct {
	RepoCache     repoCache
	RepoEmail     repoEmail
	RepoMessaging repoMessaging
	Codec         tokenCodec
	Code          otp.CodeGenerator
	Fingerprint   hash.Fingerprinter
	Validator     validator.Validator
	Config        config.Config
	UUID          uid.StringID
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
	Goroutine     *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	s := &Usecase{
		repoCache:     dep.RepoCache,
		repoEmail:     dep.RepoEmail,
		repoMessaging: dep.RepoMessaging,
		codec:         dep.Codec,
		code:          dep.Code,
		fingerprint:   dep.Fingerprint,
		validator:     dep.Validator,
		cfg:           dep.Config,
		uuid:          dep.UUID,
		clock:         dep.Clock,
		ins:           dep.Instrument,
		goroutine:     dep.Goroutine,
	}

	meter := s.ins.Meter("verification.usecase")

	var err error
	if s.issuedCounter, err = meter.Int64Counter("otp.issued", metric.WithDescription("Verification codes delivered")); err != nil {
		slog.Error("failed to create otp.issued counter", "error", err)
	}
	if s.verifiedCounter, err = meter.Int64Counter("otp.verified", metric.WithDescription("Verification codes accepted")); err != nil {
		slog.Error("failed to create otp.verified counter", "error", err)
	}
	if s.rejectedCounter, err = meter.Int64Counter("otp.rejected", metric.WithDescription("Verification attempts rejected")); err != nil {
		slog.Error("failed to create otp.rejected counter", "error", err)
	}

	return s
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("verification.usecase").Start(ctx, name)
}

func (s *Usecase) cooldown() time.Duration {
	if d := s.cfg.GetSecond("modules.verification.cooldown_seconds"); d > 0 {
		return d
	}
	return defaultCooldown
}

func (s *Usecase) singleActiveToken() bool {
	return s.cfg.GetBool("modules.verification.single_active_token")
}

// publish sends ev on the goroutine manager so the request never waits on
// the broker. Failures are logged only.
func (s *Usecase) publish(ctx context.Context, ev entity.Event) {
	ev.ID = s.uuid.Generate()
	ev.OccurredAt = s.clock.Now()
	if ev.Source == "" {
		ev.Source = entity.SourcePublic
	}

	s.goroutine.Go(context.WithoutCancel(ctx), "publish verification event", func(gCtx context.Context) error {
		if err := s.repoMessaging.PublishEvent(gCtx, ev); err != nil {
			slog.ErrorContext(gCtx, "failed to publish verification event", "kind", ev.Kind.String(), "event_id", ev.ID, "error", err)
		}
		return nil
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// sanitizeName drops control characters and caps the display name before it
// is interpolated into the message.
func sanitizeName(name string) string {
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, strings.TrimSpace(name))

	if r := []rune(name); len(r) > maxNameRunes {
		name = string(r[:maxNameRunes])
	}

	return strings.TrimSpace(name)
}

func addCounter(ctx context.Context, c metric.Int64Counter, opts ...metric.AddOption) {
	if c != nil {
		c.Add(ctx, 1, opts...)
	}
}
