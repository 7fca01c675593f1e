package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to stable response reasons without
// leaking infrastructure details. Anything not wrapping one of these is a
// storage or programming fault and surfaces as Internal.
var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("already exists")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrExpired           = errors.New("expired")
	ErrDelivery          = errors.New("delivery failed")
)
