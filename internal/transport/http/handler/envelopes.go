package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/foreverweb/auth-api/internal/domain"
)

// Stable machine-matchable failure reasons. Every error response is
// {ok:false, reason:<one of these>}; no response is partially successful.
const (
	ReasonValidation        = "ValidationError"
	ReasonNotFound          = "NotFound"
	ReasonAlreadyExists     = "AlreadyExists"
	ReasonInvalidCredential = "InvalidCredential"
	ReasonExpired           = "Expired"
	ReasonDelivery          = "DeliveryError"
	ReasonInternal          = "Internal"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// ProfileEnvelope wraps a successful login response.
type ProfileEnvelope struct {
	OK      bool                  `json:"ok"`
	Profile *domain.PublicProfile `json:"profile"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, MessageEnvelope{OK: true, Message: message})
}

func writeReason(w http.ResponseWriter, status int, reason string) {
	writeJSON(w, status, MessageEnvelope{OK: false, Reason: reason})
}

// httpError maps a service error onto its stable reason and status code.
// Anything not wrapping a domain sentinel is a storage or programming fault.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeReason(w, http.StatusUnprocessableEntity, ReasonValidation)
	case errors.Is(err, domain.ErrNotFound):
		writeReason(w, http.StatusNotFound, ReasonNotFound)
	case errors.Is(err, domain.ErrConflict):
		writeReason(w, http.StatusConflict, ReasonAlreadyExists)
	case errors.Is(err, domain.ErrInvalidCredential):
		writeReason(w, http.StatusUnauthorized, ReasonInvalidCredential)
	case errors.Is(err, domain.ErrExpired):
		writeReason(w, http.StatusUnauthorized, ReasonExpired)
	case errors.Is(err, domain.ErrDelivery):
		writeReason(w, http.StatusBadGateway, ReasonDelivery)
	default:
		slog.Error("internal error", "err", err)
		writeReason(w, http.StatusInternalServerError, ReasonInternal)
	}
}
