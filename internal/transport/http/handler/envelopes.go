package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/staff-directory-api/internal/domain"
)

// actionRequestOTP tells the client its only way forward is a fresh OTP.
const actionRequestOTP = "request_otp"

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	OK      bool   `json:"ok,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Action  string `json:"action,omitempty"`
}

// VerifyEnvelope wraps a successful OTP verification: the reset token must
// accompany the subsequent reset-password call.
type VerifyEnvelope struct {
	OK         bool   `json:"ok"`
	Message    string `json:"message,omitempty"`
	ResetToken string `json:"resetToken"`
	ExpiresIn  int64  `json:"expiresInSec"`
}

// StaffPageEnvelope wraps paginated staff listings. Count is the number of
// items in this page, not a table total; callers page until NextCursor is
// empty.
type StaffPageEnvelope struct {
	OK         bool                 `json:"ok"`
	Count      int                  `json:"count"`
	Limit      int32                `json:"limit"`
	NextCursor string               `json:"next_cursor,omitempty"`
	Data       []domain.StaffMember `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError translates a domain error into a status + JSON body. This is the
// single place where sentinels become HTTP semantics; anything unrecognised
// is logged server-side and reported as a generic 500.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrExpired):
		writeError(w, http.StatusGone, err.Error())
	case errors.Is(err, domain.ErrTooManyAttempts):
		writeError(w, http.StatusTooManyRequests, err.Error())
	default:
		slog.Error("unhandled error", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
