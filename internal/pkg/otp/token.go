package otp

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/fursurecare/otpservice/internal/pkg/sealer"
)

// DefaultWindow is how long an issued email code stays acceptable.
const DefaultWindow = 10 * time.Minute

const delimiter = ":"

var (
	// ErrMalformedCode means the claimed code is not six ASCII digits.
	ErrMalformedCode = errors.New("otp: malformed code")
	// ErrInvalidToken means the token failed to decode, open or parse.
	ErrInvalidToken = errors.New("otp: invalid token")
	// ErrIdentityMismatch means the token was issued for another identity.
	ErrIdentityMismatch = errors.New("otp: identity mismatch")
	// ErrCodeMismatch means the claimed code differs from the bound code.
	ErrCodeMismatch = errors.New("otp: code mismatch")
	// ErrExpired means the validity window has elapsed.
	ErrExpired = errors.New("otp: expired")
	// ErrInvalidIdentity means the identity is empty or carries the delimiter.
	ErrInvalidIdentity = errors.New("otp: invalid identity")
)

var encoding = base64.RawURLEncoding.Strict()

// Claims is what a verified token proves.
type Claims struct {
	Identity  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenCodec seals and verifies email verification tokens.
//
// The plaintext is "identity:code:issuedAtMillis". It is sealed with the
// email_otp_token purpose and encoded as unpadded base64url.
type TokenCodec struct {
	sealer sealer.Sealer
	window time.Duration
}

// NewTokenCodec builds a codec. A non-positive window falls back to DefaultWindow.
func NewTokenCodec(s sealer.Sealer, window time.Duration) *TokenCodec {
	if window <= 0 {
		window = DefaultWindow
	}
	return &TokenCodec{sealer: s, window: window}
}

// Window returns the validity window.
func (c *TokenCodec) Window() time.Duration {
	return c.window
}

// Seal builds the token for identity and code issued at issuedAt.
func (c *TokenCodec) Seal(identity, code string, issuedAt time.Time) (string, error) {
	if identity == "" || strings.Contains(identity, delimiter) {
		return "", ErrInvalidIdentity
	}
	if !IsWellFormedCode(code) {
		return "", ErrMalformedCode
	}

	payload := identity + delimiter + code + delimiter + strconv.FormatInt(issuedAt.UnixMilli(), 10)

	ct, err := c.sealer.Seal([]byte(payload), tokenScope())
	if err != nil {
		return "", err
	}

	return encoding.EncodeToString(ct), nil
}

// Verify checks claimedCode for identity against token at now.
//
// Checks run in order: code format (the token is not touched when it fails),
// token integrity, identity, code, then expiry. Elapsed time equal to the
// window is still accepted.
func (c *TokenCodec) Verify(identity, claimedCode, token string, now time.Time) (Claims, error) {
	if !IsWellFormedCode(claimedCode) {
		return Claims{}, ErrMalformedCode
	}

	boundIdentity, boundCode, issuedAt, err := c.open(token)
	if err != nil {
		return Claims{}, err
	}

	if !strings.EqualFold(boundIdentity, strings.TrimSpace(identity)) {
		return Claims{}, ErrIdentityMismatch
	}

	if subtle.ConstantTimeCompare([]byte(boundCode), []byte(claimedCode)) != 1 {
		return Claims{}, ErrCodeMismatch
	}

	if now.Sub(issuedAt) > c.window {
		return Claims{}, ErrExpired
	}

	return Claims{
		Identity:  boundIdentity,
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(c.window),
	}, nil
}

func (c *TokenCodec) open(token string) (identity, code string, issuedAt time.Time, err error) {
	raw, err := encoding.DecodeString(token)
	if err != nil || len(raw) == 0 {
		return "", "", time.Time{}, ErrInvalidToken
	}

	plain, err := c.sealer.Open(raw, tokenScope())
	if err != nil {
		return "", "", time.Time{}, ErrInvalidToken
	}

	parts := strings.Split(string(plain), delimiter)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", time.Time{}, ErrInvalidToken
	}

	millis, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return "", "", time.Time{}, ErrInvalidToken
	}

	return parts[0], parts[1], time.UnixMilli(millis), nil
}

func tokenScope() sealer.Scope {
	return sealer.Scope{Purpose: sealer.PurposeEmailOTPToken}
}
