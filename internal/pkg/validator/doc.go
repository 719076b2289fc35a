// Package validator checks request and dependency structs tagged with
// `validate:"..."`. Field names in failures are snake_case so they line up
// with the JSON the client sent.
package validator
