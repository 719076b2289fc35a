package entity

import "time"

// EmailChallenge is the one pending email code per user. OTPHash is the
// sealed verification token; the plaintext code is never stored.
type EmailChallenge struct {
	ID         int64
	UserID     int64
	Email      string
	OTPHash    string
	CreatedAt  time.Time
	ExpiresAt  time.Time
	Verified   bool
	VerifiedAt *time.Time
	Attempts   int32
}

// IsPending reports whether the challenge can still be answered at now.
func (c EmailChallenge) IsPending(now time.Time, maxAttempts int32) bool {
	return !c.Verified && !now.After(c.ExpiresAt) && c.Attempts < maxAttempts
}

// TOTPFactor holds the sealed authenticator secret for a user.
type TOTPFactor struct {
	ID           int64
	UserID       int64
	SecretSealed []byte
	Verified     bool
	CreatedAt    time.Time
	VerifiedAt   *time.Time
	LastUsedAt   *time.Time
}

// AMR values stamped on elevated access tokens.
const (
	AMRMFA  = "mfa"
	AMROTP  = "otp"
	AMRTOTP = "totp"
)
