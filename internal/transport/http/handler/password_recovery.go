package handler

import (
	"encoding/json"
	"net/http"

	"github.com/foreverweb/auth-api/internal/application/recovery"
)

// PasswordRecoveryHandler handles the OTP-gated password reset flow.
type PasswordRecoveryHandler struct {
	svc recovery.Service
}

func NewPasswordRecoveryHandler(svc recovery.Service) *PasswordRecoveryHandler {
	return &PasswordRecoveryHandler{svc: svc}
}

func (h *PasswordRecoveryHandler) Forgot(w http.ResponseWriter, r *http.Request) {
	var req recovery.RequestResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeReason(w, http.StatusBadRequest, ReasonValidation)
		return
	}
	if err := h.svc.Request(r.Context(), req); err != nil {
		httpError(w, err)
		return
	}
	writeOK(w, "OTP sent to email")
}

func (h *PasswordRecoveryHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var req recovery.CompleteResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeReason(w, http.StatusBadRequest, ReasonValidation)
		return
	}
	if err := h.svc.Complete(r.Context(), req); err != nil {
		httpError(w, err)
		return
	}
	writeOK(w, "password reset successful")
}
