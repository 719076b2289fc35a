// Package uid generates identifiers: UUIDv7 strings for correlation and event
// ids, snowflake integers for database rows.
package uid

// StringID generates string identifiers.
type StringID interface {
	Generate() string
}

// NumberID generates numeric identifiers.
type NumberID interface {
	Generate() uint64
}
