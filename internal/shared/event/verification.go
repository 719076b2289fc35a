package event

import "time"

const VerificationDestination string = "otp_verification_events"
const VerificationConsumerAudit string = "otp_verification_events_audit"

// VerificationMessage is published for every issuance and verification outcome.
type VerificationMessage struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Email      string    `json:"email"`
	UserID     int64     `json:"user_id,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Source     string    `json:"source"`
	OccurredAt time.Time `json:"occurred_at"`
}
