package usecase

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fursurecare/otpservice/internal/pkg/clock"
	"github.com/fursurecare/otpservice/internal/pkg/config"
	"github.com/fursurecare/otpservice/internal/pkg/goerror"
	"github.com/fursurecare/otpservice/internal/pkg/goroutine"
	"github.com/fursurecare/otpservice/internal/pkg/hash"
	"github.com/fursurecare/otpservice/internal/pkg/instrument"
	"github.com/fursurecare/otpservice/internal/pkg/otp"
	"github.com/fursurecare/otpservice/internal/pkg/sealer"
	"github.com/fursurecare/otpservice/internal/pkg/uid"
	"github.com/fursurecare/otpservice/internal/pkg/validator"
	"github.com/fursurecare/otpservice/internal/verification/entity"
)

const (
	testEmail = "user@example.com"
	testCode  = "482913"
)

var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	uc      *Usecase
	cache   *mockCache
	email   *mockEmail
	mq      *mockMessaging
	clock   *clock.Frozen
	codec   *otp.TokenCodec
	finger  hash.Fingerprinter
	routine *goroutine.Manager
}

func newFixture(t *testing.T, cfgYAML string) *fixture {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(cfgYAML))
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	f := &fixture{
		cache:   &mockCache{},
		email:   &mockEmail{},
		mq:      &mockMessaging{},
		clock:   clock.NewFrozen(t0),
		codec:   otp.NewTokenCodec(sealer.NewAESGCM(sealer.StaticKeyProvider{KeyBytes: bytes.Repeat([]byte{7}, 32)}), 10*time.Minute),
		finger:  hash.NewHMAC("fingerprint-secret", "email_otp_token"),
		routine: goroutine.NewManager(8),
	}
	f.mq.On("PublishEvent", mock.Anything, mock.Anything).Return(nil).Maybe()

	f.uc = New(Dependency{
		RepoCache:     f.cache,
		RepoEmail:     f.email,
		RepoMessaging: f.mq,
		Codec:         f.codec,
		Code:          fixedCode(testCode),
		Fingerprint:   f.finger,
		Validator:     v,
		Config:        cfg,
		UUID:          uid.NewUUID(),
		Clock:         f.clock,
		Instrument:    instrument.NewNoop(),
		Goroutine:     f.routine,
	})

	return f
}

// events waits for async publishing and returns what was published.
func (f *fixture) events(t *testing.T) []entity.Event {
	t.Helper()
	require.NoError(t, f.routine.Wait())

	var out []entity.Event
	for _, c := range f.mq.Calls {
		out = append(out, c.Arguments.Get(1).(entity.Event))
	}
	return out
}

func (f *fixture) fp(t *testing.T, token string) string {
	t.Helper()
	return f.finger.Fingerprint(token)
}

func (f *fixture) token(t *testing.T, identity, code string, at time.Time) string {
	t.Helper()
	tok, err := f.codec.Seal(identity, code, at)
	require.NoError(t, err)
	return tok
}

func requireStatus(t *testing.T, err error, status int) *goerror.Error {
	t.Helper()
	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	require.Equal(t, status, gerr.StatusCode())
	return gerr
}

func TestIssue(t *testing.T) {
	t.Run("delivers code and returns sealed token", func(t *testing.T) {
		f := newFixture(t, "")
		f.cache.On("AcquireCooldown", mock.Anything, testEmail, 60*time.Second).Return(true, time.Duration(0), nil).Once()
		f.email.On("SendOTP", mock.Anything, entity.OTPMail{To: testEmail, Name: "Rex Owner", Code: testCode, ExpiryMinutes: 10}).Return(nil).Once()

		out, err := f.uc.Issue(t.Context(), IssueInput{Email: "  User@Example.com ", Name: " Rex\x07 Owner "})
		require.NoError(t, err)
		assert.Equal(t, t0.Add(10*time.Minute), out.ExpiresAt)

		claims, err := f.codec.Verify(testEmail, testCode, out.Token, t0)
		require.NoError(t, err)
		assert.Equal(t, testEmail, claims.Identity)

		evs := f.events(t)
		require.Len(t, evs, 1)
		assert.Equal(t, entity.EventKindIssued, evs[0].Kind)
		assert.Equal(t, entity.SourcePublic, evs[0].Source)
		assert.NotEmpty(t, evs[0].ID)
		f.cache.AssertExpectations(t)
		f.email.AssertExpectations(t)
	})

	t.Run("invalid email never reaches the cache", func(t *testing.T) {
		f := newFixture(t, "")

		_, err := f.uc.Issue(t.Context(), IssueInput{Email: "not-an-email"})
		requireStatus(t, err, http.StatusUnprocessableEntity)

		_, err = f.uc.Issue(t.Context(), IssueInput{Email: ""})
		requireStatus(t, err, http.StatusUnprocessableEntity)

		assert.Empty(t, f.events(t))
		f.cache.AssertNotCalled(t, "AcquireCooldown", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("cooldown active", func(t *testing.T) {
		f := newFixture(t, "modules:\n  verification:\n    cooldown_seconds: 90\n")
		f.cache.On("AcquireCooldown", mock.Anything, testEmail, 90*time.Second).Return(false, 41200*time.Millisecond, nil).Once()

		_, err := f.uc.Issue(t.Context(), IssueInput{Email: testEmail})
		gerr := requireStatus(t, err, http.StatusTooManyRequests)
		assert.Equal(t, 42*time.Second, gerr.RetryAfter())
		assert.Equal(t, "please wait 42 seconds before requesting another code", gerr.Msg())
		f.email.AssertNotCalled(t, "SendOTP", mock.Anything, mock.Anything)
	})

	t.Run("cooldown store failure", func(t *testing.T) {
		f := newFixture(t, "")
		f.cache.On("AcquireCooldown", mock.Anything, testEmail, 60*time.Second).Return(false, time.Duration(0), errors.New("redis down")).Once()

		_, err := f.uc.Issue(t.Context(), IssueInput{Email: testEmail})
		requireStatus(t, err, http.StatusInternalServerError)
	})

	t.Run("dispatch failure releases cooldown", func(t *testing.T) {
		f := newFixture(t, "")
		f.cache.On("AcquireCooldown", mock.Anything, testEmail, 60*time.Second).Return(true, time.Duration(0), nil).Once()
		f.cache.On("ReleaseCooldown", mock.Anything, testEmail).Return(nil).Once()
		f.email.On("SendOTP", mock.Anything, mock.Anything).Return(errors.New("smtp: 421")).Once()

		_, err := f.uc.Issue(t.Context(), IssueInput{Email: testEmail})
		gerr := requireStatus(t, err, http.StatusBadGateway)
		assert.Equal(t, "failed to deliver verification code", gerr.Msg())

		evs := f.events(t)
		require.Len(t, evs, 1)
		assert.Equal(t, entity.EventKindDispatchFailed, evs[0].Kind)
		f.cache.AssertExpectations(t)
	})

	t.Run("compose failure is internal and releases cooldown", func(t *testing.T) {
		f := newFixture(t, "")
		f.cache.On("AcquireCooldown", mock.Anything, testEmail, 60*time.Second).Return(true, time.Duration(0), nil).Once()
		f.cache.On("ReleaseCooldown", mock.Anything, testEmail).Return(nil).Once()
		f.email.On("SendOTP", mock.Anything, mock.Anything).
			Return(fmt.Errorf("%w: template: otp.txt: bad field", entity.ErrComposeMail)).Once()

		_, err := f.uc.Issue(t.Context(), IssueInput{Email: testEmail})
		gerr := requireStatus(t, err, http.StatusInternalServerError)
		assert.Equal(t, "failed to issue verification code", gerr.Msg())
		assert.Empty(t, f.events(t))
		f.cache.AssertExpectations(t)
	})

	t.Run("single active token records fingerprint before delivery", func(t *testing.T) {
		f := newFixture(t, "modules:\n  verification:\n    single_active_token: true\n")
		var order []string
		f.cache.On("AcquireCooldown", mock.Anything, testEmail, 60*time.Second).Return(true, time.Duration(0), nil).Once()
		f.cache.On("SetLatestToken", mock.Anything, testEmail, mock.Anything, 10*time.Minute).
			Run(func(mock.Arguments) { order = append(order, "latest") }).Return(nil).Once()
		f.email.On("SendOTP", mock.Anything, mock.Anything).
			Run(func(mock.Arguments) { order = append(order, "send") }).Return(nil).Once()

		out, err := f.uc.Issue(t.Context(), IssueInput{Email: testEmail, UserID: 9, Source: entity.SourceTwoFactor})
		require.NoError(t, err)

		assert.Equal(t, []string{"latest", "send"}, order)
		f.cache.AssertCalled(t, "SetLatestToken", mock.Anything, testEmail, f.fp(t, out.Token), 10*time.Minute)

		evs := f.events(t)
		require.Len(t, evs, 1)
		assert.Equal(t, int64(9), evs[0].UserID)
		assert.Equal(t, entity.SourceTwoFactor, evs[0].Source)
	})

	t.Run("latest token failure sends nothing", func(t *testing.T) {
		f := newFixture(t, "modules:\n  verification:\n    single_active_token: true\n")
		f.cache.On("AcquireCooldown", mock.Anything, testEmail, 60*time.Second).Return(true, time.Duration(0), nil).Once()
		f.cache.On("SetLatestToken", mock.Anything, testEmail, mock.Anything, 10*time.Minute).Return(errors.New("redis down")).Once()
		f.cache.On("ReleaseCooldown", mock.Anything, testEmail).Return(nil).Once()

		_, err := f.uc.Issue(t.Context(), IssueInput{Email: testEmail})
		requireStatus(t, err, http.StatusInternalServerError)
		f.email.AssertNotCalled(t, "SendOTP", mock.Anything, mock.Anything)
		f.cache.AssertExpectations(t)
	})
}

func TestReleaseCooldown(t *testing.T) {
	f := newFixture(t, "")
	f.cache.On("ReleaseCooldown", mock.Anything, testEmail).Return(nil).Once()
	require.NoError(t, f.uc.ReleaseCooldown(t.Context(), " User@Example.com"))

	f.cache.On("ReleaseCooldown", mock.Anything, testEmail).Return(errors.New("redis down")).Once()
	err := f.uc.ReleaseCooldown(t.Context(), testEmail)
	requireStatus(t, err, http.StatusInternalServerError)
	f.cache.AssertExpectations(t)
}

func TestVerify(t *testing.T) {
	t.Run("accepts once within window", func(t *testing.T) {
		f := newFixture(t, "")
		tok := f.token(t, testEmail, testCode, t0)
		f.clock.Set(t0.Add(5 * time.Minute))
		f.cache.On("MarkConsumed", mock.Anything, f.fp(t, tok), 5*time.Minute).Return(true, nil).Once()

		out, err := f.uc.Verify(t.Context(), VerifyInput{Email: "USER@example.com", Code: testCode, Token: tok})
		require.NoError(t, err)
		assert.Equal(t, testEmail, out.Email)
		assert.True(t, out.IssuedAt.Equal(t0))

		evs := f.events(t)
		require.Len(t, evs, 1)
		assert.Equal(t, entity.EventKindVerified, evs[0].Kind)
		f.cache.AssertExpectations(t)
	})

	t.Run("exactly at window edge uses minimum ttl", func(t *testing.T) {
		f := newFixture(t, "")
		tok := f.token(t, testEmail, testCode, t0)
		f.clock.Set(t0.Add(10 * time.Minute))
		f.cache.On("MarkConsumed", mock.Anything, f.fp(t, tok), time.Second).Return(true, nil).Once()

		_, err := f.uc.Verify(t.Context(), VerifyInput{Email: testEmail, Code: testCode, Token: tok})
		require.NoError(t, err)
		f.cache.AssertExpectations(t)
	})

	t.Run("replay rejected", func(t *testing.T) {
		f := newFixture(t, "")
		tok := f.token(t, testEmail, testCode, t0)
		f.cache.On("MarkConsumed", mock.Anything, f.fp(t, tok), 10*time.Minute).Return(false, nil).Once()

		_, err := f.uc.Verify(t.Context(), VerifyInput{Email: testEmail, Code: testCode, Token: tok})
		gerr := requireStatus(t, err, http.StatusUnauthorized)
		assert.Equal(t, "invalid or expired code", gerr.Msg())
		assert.ErrorIs(t, err, entity.ErrReplayed)

		evs := f.events(t)
		require.Len(t, evs, 1)
		assert.Equal(t, entity.RejectReasonReplayed, evs[0].Reason)
	})

	t.Run("consumed store failure", func(t *testing.T) {
		f := newFixture(t, "")
		tok := f.token(t, testEmail, testCode, t0)
		f.cache.On("MarkConsumed", mock.Anything, mock.Anything, mock.Anything).Return(false, errors.New("redis down")).Once()

		_, err := f.uc.Verify(t.Context(), VerifyInput{Email: testEmail, Code: testCode, Token: tok})
		requireStatus(t, err, http.StatusInternalServerError)
	})

	rejections := []struct {
		name   string
		in     func(t *testing.T, f *fixture) VerifyInput
		at     time.Duration
		status int
		reason entity.RejectReason
	}{
		{
			name: "wrong code",
			in: func(t *testing.T, f *fixture) VerifyInput {
				return VerifyInput{Email: testEmail, Code: "000000", Token: f.token(t, testEmail, testCode, t0)}
			},
			at: time.Minute, status: http.StatusUnauthorized, reason: entity.RejectReasonCodeMismatch,
		},
		{
			name: "other identity",
			in: func(t *testing.T, f *fixture) VerifyInput {
				return VerifyInput{Email: "other@example.com", Code: testCode, Token: f.token(t, testEmail, testCode, t0)}
			},
			status: http.StatusUnauthorized, reason: entity.RejectReasonIdentityMismatch,
		},
		{
			name: "expired",
			in: func(t *testing.T, f *fixture) VerifyInput {
				return VerifyInput{Email: testEmail, Code: testCode, Token: f.token(t, testEmail, testCode, t0)}
			},
			at: 11 * time.Minute, status: http.StatusUnauthorized, reason: entity.RejectReasonExpired,
		},
		{
			name: "malformed code",
			in: func(t *testing.T, f *fixture) VerifyInput {
				return VerifyInput{Email: testEmail, Code: "12345", Token: f.token(t, testEmail, testCode, t0)}
			},
			status: http.StatusBadRequest, reason: entity.RejectReasonMalformedCode,
		},
		{
			name: "garbage token",
			in: func(t *testing.T, f *fixture) VerifyInput {
				return VerifyInput{Email: testEmail, Code: testCode, Token: "not-a-token"}
			},
			status: http.StatusBadRequest, reason: entity.RejectReasonInvalidToken,
		},
	}

	for _, tt := range rejections {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "")
			in := tt.in(t, f)
			f.clock.Set(t0.Add(tt.at))

			_, err := f.uc.Verify(t.Context(), in)
			requireStatus(t, err, tt.status)
			assert.Equal(t, tt.reason.IsClientFault(), tt.status == http.StatusBadRequest)

			evs := f.events(t)
			require.Len(t, evs, 1)
			assert.Equal(t, entity.EventKindRejected, evs[0].Kind)
			assert.Equal(t, tt.reason, evs[0].Reason)
			f.cache.AssertNotCalled(t, "MarkConsumed", mock.Anything, mock.Anything, mock.Anything)
		})
	}

	t.Run("missing fields", func(t *testing.T) {
		f := newFixture(t, "")

		_, err := f.uc.Verify(t.Context(), VerifyInput{Email: testEmail, Code: testCode})
		requireStatus(t, err, http.StatusBadRequest)
		assert.Empty(t, f.events(t))
	})

	t.Run("superseded token", func(t *testing.T) {
		f := newFixture(t, "modules:\n  verification:\n    single_active_token: true\n")
		tok := f.token(t, testEmail, testCode, t0)
		f.cache.On("GetLatestToken", mock.Anything, testEmail).Return("newer-fingerprint", nil).Once()

		_, err := f.uc.Verify(t.Context(), VerifyInput{Email: testEmail, Code: testCode, Token: tok})
		requireStatus(t, err, http.StatusUnauthorized)
		assert.ErrorIs(t, err, entity.ErrSuperseded)
		f.cache.AssertNotCalled(t, "MarkConsumed", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("latest token pointer missing is accepted", func(t *testing.T) {
		f := newFixture(t, "modules:\n  verification:\n    single_active_token: true\n")
		tok := f.token(t, testEmail, testCode, t0)
		f.cache.On("GetLatestToken", mock.Anything, testEmail).Return("", goerror.ErrNotFound).Once()
		f.cache.On("MarkConsumed", mock.Anything, f.fp(t, tok), 10*time.Minute).Return(true, nil).Once()

		_, err := f.uc.Verify(t.Context(), VerifyInput{Email: testEmail, Code: testCode, Token: tok})
		require.NoError(t, err)
	})
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "Rex", sanitizeName("  Rex\r\n"))
	assert.Equal(t, "ab", sanitizeName("a\x00b"))

	long := ""
	for range 80 {
		long += "é"
	}
	assert.Len(t, []rune(sanitizeName(long)), 64)
}
