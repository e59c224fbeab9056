package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/staff-directory-api/internal/application/staff"
	"github.com/staff-directory-api/internal/domain"
	"github.com/staff-directory-api/internal/pkg/validate"
)

// StaffHandler handles staff listing, password change and welcome email.
type StaffHandler struct {
	svc staff.Service
}

func NewStaffHandler(svc staff.Service) *StaffHandler { return &StaffHandler{svc: svc} }

func (h *StaffHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := int32(50)
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		limit = int32(v)
	}
	members, next, err := h.svc.List(r.Context(), limit, q.Get("cursor"), q.Get("status"), q.Get("q"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StaffPageEnvelope{
		OK:         true,
		Count:      len(members),
		Limit:      limit,
		NextCursor: next,
		Data:       members,
	})
}

func (h *StaffHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.ChangePassword(r.Context(), req); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{OK: true, Message: "Password updated successfully."})
}

func (h *StaffHandler) WelcomeEmail(w http.ResponseWriter, r *http.Request) {
	var req domain.WelcomeEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.SendWelcomeEmail(r.Context(), req); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{OK: true, Message: "Mail sent successfully"})
}
