package uid

import "github.com/google/uuid"

// UUID generates version 7 UUIDs, so correlation and event ids sort by
// creation time in logs and in the audit table.
type UUID struct{}

// NewUUID returns the generator.
func NewUUID() *UUID {
	return &UUID{}
}

// Generate returns a new id in canonical form. A v4 id is returned if the
// v7 clock sequence cannot be read.
func (*UUID) Generate() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

// IsUUID reports whether s is a UUID in canonical 36-char form.
func IsUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
