package inbound

import (
	"time"

	"github.com/fursurecare/otpservice/internal/pkg/valueobject"
)

type VerificationEventResponse struct {
	EventID       string              `json:"event_id"`
	Kind          string              `json:"kind"`
	Reason        string              `json:"reason,omitempty"`
	Source        string              `json:"source"`
	CorrelationID string              `json:"correlation_id"`
	Metadata      valueobject.JSONMap `json:"metadata" swaggertype:"object"`
	OccurredAt    time.Time           `json:"occurred_at"`
}

type VerificationEventsResponse struct {
	Events []VerificationEventResponse `json:"events"`
	// meta
	total  int64
	limit  int32
	offset int32
}

func (r VerificationEventsResponse) Meta() map[string]any {
	return map[string]any{
		"total":  r.total,
		"limit":  r.limit,
		"offset": r.offset,
	}
}

type ExportResponse struct {
	URL       string    `json:"url"`
	Count     int       `json:"count"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (ExportResponse) Message() string {
	return "audit export is ready"
}
