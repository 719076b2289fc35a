package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/fursurecare/otpservice/internal/pkg/goerror"
	"github.com/fursurecare/otpservice/internal/pkg/router"
)

const (
	healthPath     = "/health"
	healthEndpoint = http.MethodGet + " " + healthPath
)

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Redis    string `json:"redis"`
}

type pinger interface {
	Ping(ctx context.Context) error
}

type redisPinger struct {
	ping func(ctx context.Context) error
}

func (p redisPinger) Ping(ctx context.Context) error { return p.ping(ctx) }

func (a *App) health(r *router.Request) (any, error) {
	return checkHealth(r.Context(), a.dbConn, redisPinger{ping: func(ctx context.Context) error {
		return a.cacheConn.Ping(ctx).Err()
	}}), nil
}

// checkHealth pings each dependency with a short timeout. Any failure turns
// the whole response into 503.
func checkHealth(ctx context.Context, db, cache pinger) router.Plain {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok", Database: "ok", Redis: "ok"}
	var firstErr error

	if err := db.Ping(ctx); err != nil {
		slog.WarnContext(ctx, "health check failed", "dependency", "database", "error", err)
		resp.Status, resp.Database = "unavailable", "unavailable"
		firstErr = err
	}
	if err := cache.Ping(ctx); err != nil {
		slog.WarnContext(ctx, "health check failed", "dependency", "redis", "error", err)
		resp.Status, resp.Redis = "unavailable", "unavailable"
		if firstErr == nil {
			firstErr = err
		}
	}

	if firstErr != nil {
		return router.Plain{
			Status: http.StatusServiceUnavailable,
			Body:   resp,
			Err:    goerror.NewServerMsg(firstErr, "dependency unavailable", goerror.CodeUnavailable),
		}
	}

	return router.Plain{Status: http.StatusOK, Body: resp}
}
