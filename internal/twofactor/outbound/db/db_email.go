package db

import (
	"context"
	"time"

	"github.com/fursurecare/otpservice/internal/twofactor/entity"
)

const (
	queryGetEmailChallenge = `
SELECT id, user_id, email, otp_hash, created_at, expires_at, verified, verified_at, attempts
FROM twofactor_email_challenges
WHERE user_id = $1`

	// A new send replaces the previous challenge for the user.
	queryUpsertEmailChallenge = `
INSERT INTO twofactor_email_challenges (id, user_id, email, otp_hash, created_at, expires_at, verified, verified_at, attempts)
VALUES ($1, $2, $3, $4, $5, $6, FALSE, NULL, 0)
ON CONFLICT (user_id) DO UPDATE SET
    id          = EXCLUDED.id,
    email       = EXCLUDED.email,
    otp_hash    = EXCLUDED.otp_hash,
    created_at  = EXCLUDED.created_at,
    expires_at  = EXCLUDED.expires_at,
    verified    = FALSE,
    verified_at = NULL,
    attempts    = 0`

	// Reserving before the code is checked keeps concurrent guesses within
	// the cap: no row comes back once attempts reach $2 or the challenge is done.
	queryReserveEmailChallengeAttempt = `
UPDATE twofactor_email_challenges
SET attempts = attempts + 1
WHERE id = $1 AND attempts < $2 AND verified = FALSE
RETURNING attempts`

	queryRefundEmailChallengeAttempt = `
UPDATE twofactor_email_challenges
SET attempts = attempts - 1
WHERE id = $1 AND attempts > 0 AND verified = FALSE`

	queryMarkEmailChallengeVerified = `
UPDATE twofactor_email_challenges
SET verified = TRUE, verified_at = $2
WHERE id = $1 AND verified = FALSE`
)

func (s *DB) GetEmailChallenge(ctx context.Context, userID int64) (_ *entity.EmailChallenge, err error) {
	ctx, span := s.startSpan(ctx, "GetEmailChallenge")
	defer func() { s.endSpan(span, err) }()

	var c entity.EmailChallenge
	err = s.conn.QueryRow(ctx, queryGetEmailChallenge, userID).Scan(
		&c.ID,
		&c.UserID,
		&c.Email,
		&c.OTPHash,
		&c.CreatedAt,
		&c.ExpiresAt,
		&c.Verified,
		&c.VerifiedAt,
		&c.Attempts,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &c, nil
}

func (s *DB) UpsertEmailChallenge(ctx context.Context, c entity.EmailChallenge) (err error) {
	ctx, span := s.startSpan(ctx, "UpsertEmailChallenge")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, queryUpsertEmailChallenge,
		c.ID,
		c.UserID,
		c.Email,
		c.OTPHash,
		c.CreatedAt,
		c.ExpiresAt,
	)
	return s.mapError(err)
}

// ReserveEmailChallengeAttempt takes one attempt off the challenge and
// returns the new count. goerror.ErrNotFound means none are left.
func (s *DB) ReserveEmailChallengeAttempt(ctx context.Context, id int64, maxAttempts int32) (_ int32, err error) {
	ctx, span := s.startSpan(ctx, "ReserveEmailChallengeAttempt")
	defer func() { s.endSpan(span, err) }()

	var attempts int32
	if err = s.conn.QueryRow(ctx, queryReserveEmailChallengeAttempt, id, maxAttempts).Scan(&attempts); err != nil {
		return 0, s.mapError(err)
	}

	return attempts, nil
}

func (s *DB) RefundEmailChallengeAttempt(ctx context.Context, id int64) (err error) {
	ctx, span := s.startSpan(ctx, "RefundEmailChallengeAttempt")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, queryRefundEmailChallengeAttempt, id)
	return s.mapError(err)
}

func (s *DB) MarkEmailChallengeVerified(ctx context.Context, id int64, at time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "MarkEmailChallengeVerified")
	defer func() { s.endSpan(span, err) }()

	return s.mapError(exactlyOne(s.conn.Exec(ctx, queryMarkEmailChallengeVerified, id, at)))
}
