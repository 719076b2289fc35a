package inbound

import (
	"github.com/samber/lo"

	"github.com/fursurecare/otpservice/internal/audit/entity"
	"github.com/fursurecare/otpservice/internal/audit/usecase"
	"github.com/fursurecare/otpservice/internal/pkg/router"
)

type HTTPEndpoint struct {
	uc httpUC
}

// List returns the signed-in user's verification history.
// @Summary List verification events
// @Description Returns issuance and verification outcomes for the caller's email, newest first.
// @Tags Audit
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Page size (1-100, default 20)"
// @Param offset query int false "Rows to skip"
// @Success 200 {object} router.successResponse{data=VerificationEventsResponse} "Verification events"
// @Failure 400 {object} router.errorResponse "Invalid query parameters"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/audit/verifications [get]
func (h *HTTPEndpoint) List(r *router.Request) (any, error) {
	limit, err := r.GetQueryInt32("limit")
	if err != nil {
		return nil, err
	}

	offset, err := r.GetQueryInt32("offset")
	if err != nil {
		return nil, err
	}

	in := usecase.ListInput{Limit: limit, Offset: offset}
	resp, err := h.uc.List(r.Context(), in)
	if err != nil {
		return nil, err
	}

	if in.Limit == 0 {
		in.Limit = 20
	}

	return VerificationEventsResponse{
		Events: lo.Map(resp.Events, func(ev entity.VerificationEvent, _ int) VerificationEventResponse {
			return VerificationEventResponse{
				EventID:       ev.EventID,
				Kind:          ev.Kind,
				Reason:        ev.Reason,
				Source:        ev.Source,
				CorrelationID: ev.CorrelationID,
				Metadata:      ev.Metadata,
				OccurredAt:    ev.OccurredAt,
			}
		}),
		total:  resp.Total,
		limit:  in.Limit,
		offset: in.Offset,
	}, nil
}

// Export uploads the caller's verification history and returns a download link.
// @Summary Export verification events
// @Tags Audit
// @Security BearerAuth
// @Produce json
// @Success 200 {object} router.successResponse{data=ExportResponse} "Export link"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 502 {object} router.errorResponse "Object storage unavailable"
// @Router /api/v1/audit/verifications/export [post]
func (h *HTTPEndpoint) Export(r *router.Request) (any, error) {
	resp, err := h.uc.Export(r.Context())
	if err != nil {
		return nil, err
	}

	return ExportResponse{URL: resp.URL, Count: resp.Count, ExpiresAt: resp.ExpiresAt}, nil
}
