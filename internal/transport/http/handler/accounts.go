package handler

import (
	"encoding/json"
	"net/http"

	"github.com/foreverweb/auth-api/internal/application/account"
)

// AccountHandler handles login and PIN management.
type AccountHandler struct {
	svc account.Service
}

func NewAccountHandler(svc account.Service) *AccountHandler {
	return &AccountHandler{svc: svc}
}

func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req account.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeReason(w, http.StatusBadRequest, ReasonValidation)
		return
	}
	profile, err := h.svc.Login(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ProfileEnvelope{OK: true, Profile: profile})
}

func (h *AccountHandler) EnablePin(w http.ResponseWriter, r *http.Request) {
	var req account.EnablePinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeReason(w, http.StatusBadRequest, ReasonValidation)
		return
	}
	if err := h.svc.EnablePin(r.Context(), req); err != nil {
		httpError(w, err)
		return
	}
	writeOK(w, "pin enabled")
}

func (h *AccountHandler) DisablePin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeReason(w, http.StatusBadRequest, ReasonValidation)
		return
	}
	if err := h.svc.DisablePin(r.Context(), body.Username); err != nil {
		httpError(w, err)
		return
	}
	writeOK(w, "pin disabled")
}
