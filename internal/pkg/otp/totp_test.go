package otp

import (
	"bytes"
	"net/url"
	"testing"
	"time"

	libOTP "github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fursurecare/otpservice/internal/pkg/sealer"
)

func newAuthenticator(t *testing.T, alg string) *TOTP {
	t.Helper()
	s := sealer.NewAESGCM(sealer.StaticKeyProvider{KeyBytes: bytes.Repeat([]byte{3}, 32)})
	o, err := NewTOTP(TOTPConfig{Issuer: "FurSureCare", Algorithm: alg}, s)
	require.NoError(t, err)
	return o
}

func codeAt(t *testing.T, o *TOTP, secret string, at time.Time) string {
	t.Helper()
	code, err := totp.GenerateCodeCustom(secret, at, o.opts)
	require.NoError(t, err)
	return code
}

func TestTOTP_EnrollAndValid(t *testing.T) {
	o := newAuthenticator(t, "")
	at := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	e, err := o.Enroll("owner@example.com", 7)
	require.NoError(t, err)
	assert.NotEmpty(t, e.Secret)
	assert.NotContains(t, string(e.Sealed), e.Secret)

	u, err := url.Parse(e.URI)
	require.NoError(t, err)
	assert.Equal(t, "otpauth", u.Scheme)
	assert.Equal(t, "FurSureCare", u.Query().Get("issuer"))
	assert.Equal(t, "6", u.Query().Get("digits"))

	code := codeAt(t, o, e.Secret, at)

	tests := []struct {
		name string
		code string
		at   time.Time
		user int64
		want bool
	}{
		{name: "current step", code: code, at: at, user: 7, want: true},
		{name: "one step skew", code: code, at: at.Add(30 * time.Second), user: 7, want: true},
		{name: "stale", code: code, at: at.Add(5 * time.Minute), user: 7, want: false},
		{name: "malformed", code: "12345a", at: at, user: 7, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := o.Valid(tt.code, e.Sealed, tt.user, tt.at)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}

	t.Run("seed sealed to its user", func(t *testing.T) {
		_, err := o.Valid(code, e.Sealed, 8, at)
		require.Error(t, err)
	})
}

func TestTOTP_Algorithm(t *testing.T) {
	o := newAuthenticator(t, "sha256")
	at := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	e, err := o.Enroll("owner@example.com", 7)
	require.NoError(t, err)
	assert.Contains(t, e.URI, "algorithm=SHA256")

	ok, err := o.Valid(codeAt(t, o, e.Secret, at), e.Sealed, 7, at)
	require.NoError(t, err)
	assert.True(t, ok)

	sha1Code, err := totp.GenerateCodeCustom(e.Secret, at, totp.ValidateOpts{
		Period: 30, Digits: libOTP.DigitsSix, Algorithm: libOTP.AlgorithmSHA1,
	})
	require.NoError(t, err)
	ok, err = o.Valid(sha1Code, e.Sealed, 7, at)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewTOTP_Defaults(t *testing.T) {
	o := newAuthenticator(t, "")
	assert.Equal(t, uint(30), o.opts.Period)
	assert.Equal(t, uint(1), o.opts.Skew)
	assert.Equal(t, libOTP.AlgorithmSHA1, o.opts.Algorithm)

	_, err := NewTOTP(TOTPConfig{Algorithm: "md5"}, nil)
	require.ErrorIs(t, err, ErrUnknownAlgorithm)
}
