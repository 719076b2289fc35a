package inbound

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fursurecare/otpservice/internal/pkg/goerror"
	"github.com/fursurecare/otpservice/internal/pkg/instrument"
	"github.com/fursurecare/otpservice/internal/pkg/jwt"
	"github.com/fursurecare/otpservice/internal/pkg/router"
	"github.com/fursurecare/otpservice/internal/twofactor/usecase"
)

type mockUC struct{ mock.Mock }

func (m *mockUC) EmailSend(ctx context.Context, in usecase.EmailSendInput) (*usecase.EmailSendOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*usecase.EmailSendOutput)
	return out, args.Error(1)
}

func (m *mockUC) EmailVerify(ctx context.Context, in usecase.EmailVerifyInput) (*usecase.ElevatedOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*usecase.ElevatedOutput)
	return out, args.Error(1)
}

func (m *mockUC) TOTPSetup(ctx context.Context) (*usecase.TOTPSetupOutput, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).(*usecase.TOTPSetupOutput)
	return out, args.Error(1)
}

func (m *mockUC) TOTPConfirm(ctx context.Context, in usecase.TOTPConfirmInput) error {
	return m.Called(ctx, in).Error(0)
}

func (m *mockUC) TOTPVerify(ctx context.Context, in usecase.TOTPVerifyInput) (*usecase.ElevatedOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*usecase.ElevatedOutput)
	return out, args.Error(1)
}

func (m *mockUC) Status(ctx context.Context) (*usecase.StatusOutput, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).(*usecase.StatusOutput)
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

func newServer(t *testing.T, m *mockUC) http.Handler {
	t.Helper()
	r := router.NewRouter(router.Config{
		JWT:        fakeJWT{},
		Instrument: instrument.NewNoop(),
	})
	RegisterHTTPEndpoint(r, m)
	return r
}

func call(h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	var env struct {
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.NoError(t, json.Unmarshal(env.Data, out))
}

func TestRoutes_RequireToken(t *testing.T) {
	m := &mockUC{}
	h := newServer(t, m)

	for _, path := range []string{"/api/v1/twofactor/email/send", "/api/v1/twofactor/totp/setup"} {
		rec := call(h, http.MethodPost, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
	rec := call(h, http.MethodGet, "/api/v1/twofactor/status", "", "bad")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	m.AssertNotCalled(t, "EmailSend", mock.Anything, mock.Anything)
	m.AssertNotCalled(t, "Status", mock.Anything)
}

func TestEmailSend(t *testing.T) {
	exp := time.Date(2025, 3, 1, 9, 10, 0, 0, time.UTC)

	t.Run("empty body", func(t *testing.T) {
		m := &mockUC{}
		m.On("EmailSend", mock.MatchedBy(func(ctx context.Context) bool {
			clm := jwt.GetAuth(ctx)
			return clm != nil && clm.UserID == 7
		}), usecase.EmailSendInput{}).Return(&usecase.EmailSendOutput{ExpiresAt: exp}, nil).Once()

		rec := call(newServer(t, m), http.MethodPost, "/api/v1/twofactor/email/send", "", "good")
		require.Equal(t, http.StatusOK, rec.Code)

		var got EmailSendResponse
		decodeData(t, rec, &got)
		assert.Equal(t, exp, got.ExpiresAt)
		assert.Contains(t, rec.Body.String(), `"message":"verification code sent to your email"`)
	})

	t.Run("cooldown carries retry after", func(t *testing.T) {
		m := &mockUC{}
		m.On("EmailSend", mock.Anything, usecase.EmailSendInput{Name: "Rex"}).
			Return(nil, goerror.NewTooManyRequest("please wait 12 seconds before requesting another code", 12*time.Second)).Once()

		rec := call(newServer(t, m), http.MethodPost, "/api/v1/twofactor/email/send", `{"name":"Rex"}`, "good")
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "12", rec.Header().Get("Retry-After"))
	})
}

func TestEmailVerify(t *testing.T) {
	m := &mockUC{}
	m.On("EmailVerify", mock.Anything, usecase.EmailVerifyInput{Code: "123456"}).
		Return(&usecase.ElevatedOutput{AccessToken: "elevated"}, nil).Once()
	h := newServer(t, m)

	rec := call(h, http.MethodPost, "/api/v1/twofactor/email/verify", `{"code":"123456"}`, "good")
	require.Equal(t, http.StatusOK, rec.Code)
	var got ElevatedResponse
	decodeData(t, rec, &got)
	assert.Equal(t, "elevated", got.AccessToken)

	rec = call(h, http.MethodPost, "/api/v1/twofactor/email/verify", `{"code":"123456","extra":1}`, "good")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTOTP(t *testing.T) {
	m := &mockUC{}
	m.On("TOTPSetup", mock.Anything).Return(&usecase.TOTPSetupOutput{Secret: "JBSWY3DPEHPK3PXP", URI: "otpauth://totp/x"}, nil).Once()
	m.On("TOTPConfirm", mock.Anything, usecase.TOTPConfirmInput{Code: "654321"}).Return(nil).Once()
	m.On("TOTPVerify", mock.Anything, usecase.TOTPVerifyInput{Code: "000000"}).
		Return(nil, goerror.NewBusiness("invalid code", goerror.CodeUnauthorized)).Once()
	h := newServer(t, m)

	rec := call(h, http.MethodPost, "/api/v1/twofactor/totp/setup", "", "good")
	require.Equal(t, http.StatusOK, rec.Code)
	var setup TOTPSetupResponse
	decodeData(t, rec, &setup)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", setup.Secret)

	rec = call(h, http.MethodPost, "/api/v1/twofactor/totp/confirm", `{"code":"654321"}`, "good")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = call(h, http.MethodPost, "/api/v1/twofactor/totp/verify", `{"code":"000000"}`, "good")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"message":"invalid code"`)
}

func TestStatus(t *testing.T) {
	m := &mockUC{}
	m.On("Status", mock.Anything).Return(&usecase.StatusOutput{EmailOTP: true, TOTPEnabled: true}, nil).Once()

	rec := call(newServer(t, m), http.MethodGet, "/api/v1/twofactor/status", "", "good")
	require.Equal(t, http.StatusOK, rec.Code)

	var got StatusResponse
	decodeData(t, rec, &got)
	assert.Equal(t, StatusResponse{EmailOTP: true, TOTPEnabled: true}, got)
}
