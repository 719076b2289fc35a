package entity

import (
	"time"

	"github.com/fursurecare/otpservice/internal/pkg/valueobject"
)

// VerificationEvent is one stored issuance or verification outcome.
type VerificationEvent struct {
	ID            int64
	EventID       string
	Kind          string
	Email         string
	UserID        int64
	Reason        string
	Source        string
	CorrelationID string
	Metadata      valueobject.JSONMap
	OccurredAt    time.Time
	RecordedAt    time.Time
}

type VerificationEventFilter struct {
	Email  string
	Limit  int32
	Offset int32
}
