package handler

import (
	"encoding/json"
	"net/http"

	"github.com/foreverweb/auth-api/internal/application/registration"
)

// RegistrationHandler handles the OTP-gated account creation flow.
type RegistrationHandler struct {
	svc registration.Service
}

func NewRegistrationHandler(svc registration.Service) *RegistrationHandler {
	return &RegistrationHandler{svc: svc}
}

// CheckUsername is an availability probe. A positive answer can still lose
// the race to a concurrent registration; Register and VerifyOTP re-check.
func (h *RegistrationHandler) CheckUsername(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeReason(w, http.StatusBadRequest, ReasonValidation)
		return
	}
	if err := h.svc.CheckUsername(r.Context(), body.Username); err != nil {
		httpError(w, err)
		return
	}
	writeOK(w, "username available")
}

func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registration.RegisterRequest
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

func (h *RegistrationHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req registration.ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeReason(w, http.StatusBadRequest, ReasonValidation)
		return
	}
	if _, err := h.svc.Confirm(r.Context(), req); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, MessageEnvelope{OK: true, Message: "account created"})
}
