package domain

import (
	"strings"
	"time"
)

// Account is the persisted record for one registered user.
// The partition key is the lowercased username; hash fields are tagged
// strings (scheme$params$digest) and never leave the service.
type Account struct {
	Username     string                 `json:"username" dynamodbav:"username"`
	Email        string                 `json:"email" dynamodbav:"email"`
	PublicID     string                 `json:"uid" dynamodbav:"public_id"`
	PasswordHash string                 `json:"-" dynamodbav:"password_hash"`
	PinEnabled   bool                   `json:"pin_enabled" dynamodbav:"pin_enabled"`
	PinHash      string                 `json:"-" dynamodbav:"pin_hash"`
	Preferences  map[string]interface{} `json:"preferences,omitempty" dynamodbav:"preferences"`

	// Reset-OTP slot. Populated only while a password reset is in flight;
	// expiry is a Unix timestamp checked lazily at verification time.
	ResetOTPPending bool   `json:"-" dynamodbav:"reset_otp_pending"`
	ResetOTPCode    string `json:"-" dynamodbav:"reset_otp_code"`
	ResetOTPExpiry  int64  `json:"-" dynamodbav:"reset_otp_expiry"`

	CreatedAt time.Time  `json:"created" dynamodbav:"created_at"`
	LastLogin *time.Time `json:"last_login" dynamodbav:"last_login"`

	// Version is the optimistic-lock counter bumped on every update.
	Version int64 `json:"-" dynamodbav:"version"`
}

// PublicProfile is the projection returned to callers on successful login.
// It never carries hash fields or the reset-OTP slot.
type PublicProfile struct {
	Username    string                 `json:"username"`
	PublicID    string                 `json:"uid"`
	Email       string                 `json:"email"`
	Preferences map[string]interface{} `json:"preferences,omitempty"`
}

// Profile returns the safe projection of the account.
func (a *Account) Profile() *PublicProfile {
	return &PublicProfile{
		Username:    a.Username,
		PublicID:    a.PublicID,
		Email:       a.Email,
		Preferences: a.Preferences,
	}
}

// ClearResetOTP empties the reset-OTP slot.
func (a *Account) ClearResetOTP() {
	a.ResetOTPPending = false
	a.ResetOTPCode = ""
	a.ResetOTPExpiry = 0
}

// NormalizeUsername lowercases and trims a username. All store lookups go
// through this so usernames are unique case-insensitively.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
