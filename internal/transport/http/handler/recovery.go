package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/staff-directory-api/internal/application/recovery"
	"github.com/staff-directory-api/internal/domain"
	"github.com/staff-directory-api/internal/pkg/validate"
)

// genericOTPAck is the enumeration-safe acknowledgement: registered or not,
// the caller sees the same answer.
const genericOTPAck = "If the email exists, an OTP has been sent."

// RecoveryHandler handles the OTP request/verify and password reset endpoints.
type RecoveryHandler struct {
	svc recovery.Service
}

func NewRecoveryHandler(svc recovery.Service) *RecoveryHandler {
	return &RecoveryHandler{svc: svc}
}

type otpRequestBody struct {
	Email string `json:"email" validate:"required,email"`
}

type otpVerifyBody struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

func (h *RecoveryHandler) Request(w http.ResponseWriter, r *http.Request) {
	var body otpRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.RequestOTP(r.Context(), body.Email); err != nil {
		// An unknown or inactive account gets the same acknowledgement as a
		// real one so responses can't be used to enumerate addresses.
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusOK, MessageEnvelope{OK: true, Message: genericOTPAck})
			return
		}
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{OK: true, Message: genericOTPAck})
}

func (h *RecoveryHandler) Resend(w http.ResponseWriter, r *http.Request) {
	var body otpRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.ResendOTP(r.Context(), body.Email); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{OK: true, Message: "OTP sent"})
}

func (h *RecoveryHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var body otpVerifyBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rt, err := h.svc.VerifyOTP(r.Context(), body.Email, body.Code)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeJSON(w, http.StatusNotFound, MessageEnvelope{Error: "No OTP found for this email. Please request a new OTP.", Action: actionRequestOTP})
		case errors.Is(err, domain.ErrExpired):
			writeJSON(w, http.StatusGone, MessageEnvelope{Error: "OTP expired. Please request a new OTP.", Action: actionRequestOTP})
		case errors.Is(err, domain.ErrTooManyAttempts):
			writeJSON(w, http.StatusTooManyRequests, MessageEnvelope{Error: "Too many wrong attempts. Please request a new OTP.", Action: actionRequestOTP})
		case errors.Is(err, domain.ErrBadRequest):
			writeJSON(w, http.StatusBadRequest, MessageEnvelope{Error: "Invalid OTP. Please check the code or request a new OTP.", Action: actionRequestOTP})
		default:
			httpError(w, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, VerifyEnvelope{
		OK:         true,
		Message:    "OTP verified.",
		ResetToken: rt.Token,
		ExpiresIn:  rt.ExpiresAt - time.Now().Unix(),
	})
}

func (h *RecoveryHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req recovery.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.ResetPassword(r.Context(), req); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{OK: true, Message: "Password reset successfully."})
}
