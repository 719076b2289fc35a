package app

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestCheckHealth(t *testing.T) {
	ok := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name       string
		db, cache  pinger
		wantStatus int
		want       healthResponse
	}{
		{
			name:       "all up",
			db:         ok,
			cache:      ok,
			wantStatus: http.StatusOK,
			want:       healthResponse{Status: "ok", Database: "ok", Redis: "ok"},
		},
		{
			name:       "database down",
			db:         down,
			cache:      ok,
			wantStatus: http.StatusServiceUnavailable,
			want:       healthResponse{Status: "unavailable", Database: "unavailable", Redis: "ok"},
		},
		{
			name:       "redis down",
			db:         ok,
			cache:      down,
			wantStatus: http.StatusServiceUnavailable,
			want:       healthResponse{Status: "unavailable", Database: "ok", Redis: "unavailable"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checkHealth(t.Context(), tt.db, tt.cache)

			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.want, got.Body)
			if tt.wantStatus == http.StatusOK {
				require.NoError(t, got.Err)
			} else {
				require.Error(t, got.Err)
			}
		})
	}
}
