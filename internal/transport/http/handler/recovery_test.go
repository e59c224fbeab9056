package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/staff-directory-api/internal/application/recovery"
	"github.com/staff-directory-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRecoveryService struct{ mock.Mock }

func (m *mockRecoveryService) RequestOTP(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}
func (m *mockRecoveryService) ResendOTP(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}
func (m *mockRecoveryService) VerifyOTP(ctx context.Context, email, code string) (*domain.ResetToken, error) {
	args := m.Called(ctx, email, code)
	if r, _ := args.Get(0).(*domain.ResetToken); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockRecoveryService) ResetPassword(ctx context.Context, req recovery.ResetPasswordRequest) error {
	return m.Called(ctx, req).Error(0)
}

func postJSON(t *testing.T, h http.HandlerFunc, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) MessageEnvelope {
	t.Helper()
	var env MessageEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

// --- Request ---

func TestRequest_UnknownEmailGetsGenericAck(t *testing.T) {
	svc := &mockRecoveryService{}
	svc.On("RequestOTP", mock.Anything, "ghost@example.com").
		Return(fmt.Errorf("email not registered: %w", domain.ErrNotFound))
	h := NewRecoveryHandler(svc)

	rec := postJSON(t, h.Request, map[string]string{"email": "ghost@example.com"})

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.OK)
	assert.Equal(t, "If the email exists, an OTP has been sent.", env.Message)
}

func TestRequest_KnownEmailGetsSameAck(t *testing.T) {
	svc := &mockRecoveryService{}
	svc.On("RequestOTP", mock.Anything, "jane@example.com").Return(nil)
	h := NewRecoveryHandler(svc)

	rec := postJSON(t, h.Request, map[string]string{"email": "jane@example.com"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "If the email exists, an OTP has been sent.", decodeEnvelope(t, rec).Message)
}

func TestRequest_InvalidEmailRejectedBeforeService(t *testing.T) {
	svc := &mockRecoveryService{}
	h := NewRecoveryHandler(svc)

	rec := postJSON(t, h.Request, map[string]string{"email": "not-an-email"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "RequestOTP", mock.Anything, mock.Anything)
}

func TestRequest_StoreOutageIsNotMasked(t *testing.T) {
	svc := &mockRecoveryService{}
	svc.On("RequestOTP", mock.Anything, "jane@example.com").
		Return(fmt.Errorf("look up staff account: %w", errors.New("dynamo: connection refused")))
	h := NewRecoveryHandler(svc)

	rec := postJSON(t, h.Request, map[string]string{"email": "jane@example.com"})

	// The enumeration mask covers unknown addresses only; an outage is a 500.
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", decodeEnvelope(t, rec).Error)
}

func TestRequest_SendFailureIsNotMasked(t *testing.T) {
	svc := &mockRecoveryService{}
	svc.On("RequestOTP", mock.Anything, "jane@example.com").
		Return(fmt.Errorf("dispatch recovery email: %w", domain.ErrSendFailed))
	h := NewRecoveryHandler(svc)

	rec := postJSON(t, h.Request, map[string]string{"email": "jane@example.com"})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", decodeEnvelope(t, rec).Error)
}

// --- Verify ---

func TestVerify_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"no record", domain.ErrNotFound, http.StatusNotFound, "No OTP found for this email. Please request a new OTP."},
		{"expired", domain.ErrExpired, http.StatusGone, "OTP expired. Please request a new OTP."},
		{"attempt limit", domain.ErrTooManyAttempts, http.StatusTooManyRequests, "Too many wrong attempts. Please request a new OTP."},
		{"wrong code", domain.ErrBadRequest, http.StatusBadRequest, "Invalid OTP. Please check the code or request a new OTP."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockRecoveryService{}
			svc.On("VerifyOTP", mock.Anything, "jane@example.com", "123456").
				Return(nil, fmt.Errorf("verify: %w", tc.err))
			h := NewRecoveryHandler(svc)

			rec := postJSON(t, h.Verify, map[string]string{"email": "jane@example.com", "code": "123456"})

			assert.Equal(t, tc.wantStatus, rec.Code)
			env := decodeEnvelope(t, rec)
			assert.Equal(t, tc.wantError, env.Error)
			assert.Equal(t, "request_otp", env.Action)
		})
	}
}

func TestVerify_Success(t *testing.T) {
	svc := &mockRecoveryService{}
	svc.On("VerifyOTP", mock.Anything, "jane@example.com", "004821").Return(&domain.ResetToken{
		Email:     "jane@example.com",
		Token:     "aabbccdd",
		ExpiresAt: time.Now().Add(10 * time.Minute).Unix(),
	}, nil)
	h := NewRecoveryHandler(svc)

	rec := postJSON(t, h.Verify, map[string]string{"email": "jane@example.com", "code": "004821"})

	require.Equal(t, http.StatusOK, rec.Code)
	var env VerifyEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	assert.True(t, env.OK)
	assert.Equal(t, "aabbccdd", env.ResetToken)
	assert.InDelta(t, 600, env.ExpiresIn, 5)
}

func TestVerify_RejectsMalformedCode(t *testing.T) {
	svc := &mockRecoveryService{}
	h := NewRecoveryHandler(svc)

	for _, code := range []string{"", "12345", "1234567", "12345a"} {
		rec := postJSON(t, h.Verify, map[string]string{"email": "jane@example.com", "code": code})
		assert.Equal(t, http.StatusBadRequest, rec.Code, "code %q", code)
	}
	svc.AssertNotCalled(t, "VerifyOTP", mock.Anything, mock.Anything, mock.Anything)
}

// --- Resend ---

func TestResend_Success(t *testing.T) {
	svc := &mockRecoveryService{}
	svc.On("ResendOTP", mock.Anything, "jane@example.com").Return(nil)
	h := NewRecoveryHandler(svc)

	rec := postJSON(t, h.Resend, map[string]string{"email": "jane@example.com"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OTP sent", decodeEnvelope(t, rec).Message)
}

// --- ResetPassword ---

func TestResetPassword_Success(t *testing.T) {
	svc := &mockRecoveryService{}
	svc.On("ResetPassword", mock.Anything, mock.MatchedBy(func(req recovery.ResetPasswordRequest) bool {
		return req.Email == "jane@example.com" && req.ResetToken == "aabbccdd"
	})).Return(nil)
	h := NewRecoveryHandler(svc)

	rec := postJSON(t, h.ResetPassword, map[string]string{
		"email":           "jane@example.com",
		"resetToken":      "aabbccdd",
		"password":        "new-password-1",
		"confirmPassword": "new-password-1",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Password reset successfully.", decodeEnvelope(t, rec).Message)
}

func TestResetPassword_UnauthorizedToken(t *testing.T) {
	svc := &mockRecoveryService{}
	svc.On("ResetPassword", mock.Anything, mock.Anything).
		Return(fmt.Errorf("invalid or expired reset token: %w", domain.ErrUnauthorized))
	h := NewRecoveryHandler(svc)

	rec := postJSON(t, h.ResetPassword, map[string]string{
		"email":           "jane@example.com",
		"resetToken":      "wrong",
		"password":        "new-password-1",
		"confirmPassword": "new-password-1",
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestResetPassword_MissingFieldsRejected(t *testing.T) {
	svc := &mockRecoveryService{}
	h := NewRecoveryHandler(svc)

	rec := postJSON(t, h.ResetPassword, map[string]string{"email": "jane@example.com"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "ResetPassword", mock.Anything, mock.Anything)
}
