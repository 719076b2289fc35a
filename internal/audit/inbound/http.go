package inbound

import (
	"context"

	"github.com/fursurecare/otpservice/internal/audit/usecase"
	"github.com/fursurecare/otpservice/internal/pkg/router"
)

type httpUC interface {
	List(ctx context.Context, in usecase.ListInput) (*usecase.ListOutput, error)
	Export(ctx context.Context) (*usecase.ExportOutput, error)
}

// RegisterHTTPEndpoint mounts the audit routes. The export route is only
// mounted when withExport is set, i.e. object storage is configured.
func RegisterHTTPEndpoint(r *router.Router, uc httpUC, withExport bool) {
	end := &HTTPEndpoint{uc: uc}

	r.GET("/api/v1/audit/verifications", end.List)
	if withExport {
		r.POST("/api/v1/audit/verifications/export", end.Export)
	}
}
