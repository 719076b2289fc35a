// Package config reads service settings. Durations are plain integers with
// the unit in the key name (window_minutes, cooldown_seconds), secrets that
// are raw bytes are base64 strings, and lists are comma separated.
package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/samber/lo"
)

// Config is the read side every component depends on.
type Config interface {
	GetString(key string) string
	GetBool(key string) bool
	GetInt(key string) int
	GetInt32(key string) int32
	GetInt64(key string) int64
	GetUint(key string) uint
	GetFloat64(key string) float64

	// GetSecond reads an integer key as a number of seconds.
	GetSecond(key string) time.Duration
	// GetMinute reads an integer key as a number of minutes.
	GetMinute(key string) time.Duration

	// GetBinary base64-decodes the value. Invalid input yields nil.
	GetBinary(key string) []byte
	// GetArray splits the value on commas, trimming items and dropping blanks.
	GetArray(key string) []string

	io.Closer
}

// Require fails when any of keys is unset or blank, naming all of them.
func Require(cfg Config, keys ...string) error {
	missing := lo.Filter(keys, func(key string, _ int) bool {
		return strings.TrimSpace(cfg.GetString(key)) == ""
	})
	if len(missing) > 0 {
		return fmt.Errorf("config: missing required keys: %s", strings.Join(missing, ", "))
	}
	return nil
}
