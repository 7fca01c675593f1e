package domain

import "time"

// PendingRegistration is an unconfirmed account-creation request awaiting OTP
// verification. At most one exists per username; a new request replaces any
// prior one. Records are transient and need not survive a process restart.
// RawSecret is held only until the registration is committed, then discarded.
type PendingRegistration struct {
	Username  string
	Email     string
	RawSecret string
	OTPCode   string
	OTPExpiry time.Time
	CreatedAt time.Time
}
