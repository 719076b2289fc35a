package db

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/fursurecare/otpservice/internal/audit/entity"
)

const insertVerificationEvent = `
INSERT INTO audit_verification_events
    (id, event_id, kind, email, user_id, reason, source, correlation_id, metadata, occurred_at, recorded_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (event_id) DO NOTHING`

// InsertVerificationEvent is a no-op for an event id that is already stored.
func (s *DB) InsertVerificationEvent(ctx context.Context, ev entity.VerificationEvent) (err error) {
	ctx, span := s.startSpan(ctx, "InsertVerificationEvent")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, insertVerificationEvent,
		ev.ID,
		ev.EventID,
		ev.Kind,
		ev.Email,
		ev.UserID,
		ev.Reason,
		ev.Source,
		ev.CorrelationID,
		ev.Metadata,
		ev.OccurredAt,
		ev.RecordedAt,
	)

	return s.mapError(err)
}

const listVerificationEvents = `
SELECT id, event_id, kind, email, user_id, reason, source, correlation_id, metadata, occurred_at, recorded_at
FROM audit_verification_events
WHERE email = $1
ORDER BY occurred_at DESC, id DESC
LIMIT $2 OFFSET $3`

const countVerificationEvents = `
SELECT count(*) FROM audit_verification_events WHERE email = $1`

func (s *DB) ListVerificationEvents(ctx context.Context, f entity.VerificationEventFilter) (_ []entity.VerificationEvent, _ int64, err error) {
	ctx, span := s.startSpan(ctx, "ListVerificationEvents")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, listVerificationEvents, f.Email, f.Limit, f.Offset)
	if err != nil {
		return nil, 0, s.mapError(err)
	}

	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.VerificationEvent, error) {
		var ev entity.VerificationEvent
		err := row.Scan(
			&ev.ID,
			&ev.EventID,
			&ev.Kind,
			&ev.Email,
			&ev.UserID,
			&ev.Reason,
			&ev.Source,
			&ev.CorrelationID,
			&ev.Metadata,
			&ev.OccurredAt,
			&ev.RecordedAt,
		)
		return ev, err
	})
	if err != nil {
		return nil, 0, s.mapError(err)
	}

	var total int64
	if err = s.conn.QueryRow(ctx, countVerificationEvents, f.Email).Scan(&total); err != nil {
		return nil, 0, s.mapError(err)
	}

	return events, total, nil
}
