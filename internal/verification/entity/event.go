package entity

import "time"

type EventKind string

const (
	EventKindIssued         EventKind = "issued"
	EventKindVerified       EventKind = "verified"
	EventKindRejected       EventKind = "rejected"
	EventKindDispatchFailed EventKind = "dispatch_failed"
)

func (k EventKind) String() string {
	return string(k)
}

// Source tells which surface triggered the flow.
type Source string

const (
	// SourcePublic is the unauthenticated signup verification API.
	SourcePublic Source = "public"
	// SourceTwoFactor is the logged-in email second factor.
	SourceTwoFactor Source = "twofactor"
)

type Event struct {
	ID         string
	Kind       EventKind
	Email      string
	UserID     int64
	Reason     RejectReason
	Source     Source
	OccurredAt time.Time
}
