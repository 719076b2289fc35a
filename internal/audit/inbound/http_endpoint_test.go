package inbound

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/fursurecare/otpservice/internal/audit/entity"
	"github.com/fursurecare/otpservice/internal/audit/usecase"
	"github.com/fursurecare/otpservice/internal/pkg/goerror"
	"github.com/fursurecare/otpservice/internal/pkg/instrument"
	"github.com/fursurecare/otpservice/internal/pkg/jwt"
	"github.com/fursurecare/otpservice/internal/pkg/router"
	"github.com/fursurecare/otpservice/internal/pkg/valueobject"
)

type mockUC struct{ mock.Mock }

func (m *mockUC) List(ctx context.Context, in usecase.ListInput) (*usecase.ListOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*usecase.ListOutput)
	return out, args.Error(1)
}

func (m *mockUC) Export(ctx context.Context) (*usecase.ExportOutput, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).(*usecase.ExportOutput)
	return out, args.Error(1)
}

type fakeJWT struct{}

func (fakeJWT) Generate(int64, string, ...string) (string, error) { return "good", nil }

func (fakeJWT) Verify(tok string) (jwt.Claims, error) {
	if tok != "good" {
		return jwt.Claims{}, jwt.ErrInvalidToken
	}
	return jwt.Claims{UserID: 7, UserEmail: "owner@example.com"}, nil
}

func newServer(t *testing.T, m *mockUC, withExport bool) http.Handler {
	t.Helper()
	r := router.NewRouter(router.Config{
		JWT:        fakeJWT{},
		Instrument: instrument.NewNoop(),
	})
	RegisterHTTPEndpoint(r, m, withExport)
	return r
}

func call(h http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestList(t *testing.T) {
	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("requires token", func(t *testing.T) {
		m := &mockUC{}
		rec := call(newServer(t, m, false), http.MethodGet, "/api/v1/audit/verifications", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		m.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	})

	t.Run("bad query", func(t *testing.T) {
		m := &mockUC{}
		rec := call(newServer(t, m, false), http.MethodGet, "/api/v1/audit/verifications?limit=ten", "good")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("lists with meta", func(t *testing.T) {
		m := &mockUC{}
		m.On("List", mock.Anything, usecase.ListInput{Limit: 0, Offset: 5}).Return(&usecase.ListOutput{
			Events: []entity.VerificationEvent{{
				EventID:       "ev-1",
				Kind:          "verified",
				Source:        "twofactor",
				CorrelationID: "cid-1",
				Metadata:      valueobject.JSONMap{"message_id": "m-1"},
				OccurredAt:    at,
			}},
			Total: 6,
		}, nil).Once()

		rec := call(newServer(t, m, false), http.MethodGet, "/api/v1/audit/verifications?offset=5", "good")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{
			"message": "request has been successfully",
			"data": {"events": [{
				"event_id": "ev-1",
				"kind": "verified",
				"source": "twofactor",
				"correlation_id": "cid-1",
				"metadata": {"message_id": "m-1"},
				"occurred_at": "2025-03-01T09:00:00Z"
			}]},
			"meta": {"total": 6, "limit": 20, "offset": 5}
		}`, rec.Body.String())
		m.AssertExpectations(t)
	})
}

func TestExport(t *testing.T) {
	t.Run("not mounted without storage", func(t *testing.T) {
		m := &mockUC{}
		rec := call(newServer(t, m, false), http.MethodPost, "/api/v1/audit/verifications/export", "good")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("returns link", func(t *testing.T) {
		m := &mockUC{}
		m.On("Export", mock.Anything).Return(&usecase.ExportOutput{
			URL:       "https://signed.example/x",
			Count:     3,
			ExpiresAt: time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC),
		}, nil).Once()

		rec := call(newServer(t, m, true), http.MethodPost, "/api/v1/audit/verifications/export", "good")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{
			"message": "audit export is ready",
			"data": {"url": "https://signed.example/x", "count": 3, "expires_at": "2025-03-01T09:30:00Z"}
		}`, rec.Body.String())
	})

	t.Run("storage failure", func(t *testing.T) {
		m := &mockUC{}
		m.On("Export", mock.Anything).Return(nil, goerror.NewBusiness("audit export is not available", goerror.CodeUnavailable)).Once()

		rec := call(newServer(t, m, true), http.MethodPost, "/api/v1/audit/verifications/export", "good")

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.JSONEq(t, `{"message":"audit export is not available"}`, rec.Body.String())
	})
}
