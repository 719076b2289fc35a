package db

import (
	"context"
	"time"

	"github.com/fursurecare/otpservice/internal/twofactor/entity"
)

const (
	queryGetTOTPFactor = `
SELECT id, user_id, secret_sealed, verified, created_at, verified_at, last_used_at
FROM twofactor_totp_factors
WHERE user_id = $1`

	// Re-running setup replaces a pending secret but never a confirmed one.
	queryUpsertPendingTOTPFactor = `
INSERT INTO twofactor_totp_factors (id, user_id, secret_sealed, verified, created_at)
VALUES ($1, $2, $3, FALSE, $4)
ON CONFLICT (user_id) DO UPDATE SET
    id            = EXCLUDED.id,
    secret_sealed = EXCLUDED.secret_sealed,
    created_at    = EXCLUDED.created_at
WHERE twofactor_totp_factors.verified = FALSE`

	queryMarkTOTPFactorVerified = `
UPDATE twofactor_totp_factors
SET verified = TRUE, verified_at = $2, last_used_at = $2
WHERE id = $1 AND verified = FALSE`

	queryTouchTOTPFactor = `
UPDATE twofactor_totp_factors
SET last_used_at = $2
WHERE id = $1`
)

func (s *DB) GetTOTPFactor(ctx context.Context, userID int64) (_ *entity.TOTPFactor, err error) {
	ctx, span := s.startSpan(ctx, "GetTOTPFactor")
	defer func() { s.endSpan(span, err) }()

	var f entity.TOTPFactor
	err = s.conn.QueryRow(ctx, queryGetTOTPFactor, userID).Scan(
		&f.ID,
		&f.UserID,
		&f.SecretSealed,
		&f.Verified,
		&f.CreatedAt,
		&f.VerifiedAt,
		&f.LastUsedAt,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &f, nil
}

// UpsertPendingTOTPFactor returns goerror.ErrConflict when the user already
// has a confirmed factor.
func (s *DB) UpsertPendingTOTPFactor(ctx context.Context, f entity.TOTPFactor) (err error) {
	ctx, span := s.startSpan(ctx, "UpsertPendingTOTPFactor")
	defer func() { s.endSpan(span, err) }()

	return s.mapError(exactlyOne(s.conn.Exec(ctx, queryUpsertPendingTOTPFactor,
		f.ID,
		f.UserID,
		f.SecretSealed,
		f.CreatedAt,
	)))
}

func (s *DB) MarkTOTPFactorVerified(ctx context.Context, id int64, at time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "MarkTOTPFactorVerified")
	defer func() { s.endSpan(span, err) }()

	return s.mapError(exactlyOne(s.conn.Exec(ctx, queryMarkTOTPFactorVerified, id, at)))
}

func (s *DB) TouchTOTPFactor(ctx context.Context, id int64, at time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "TouchTOTPFactor")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, queryTouchTOTPFactor, id, at)
	return s.mapError(err)
}
