package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")

	// ErrConfiguration means a required secret or setting is missing. Never retried.
	ErrConfiguration = errors.New("configuration error")
	// ErrUpstream wraps failures of the shop API or the mail transport.
	ErrUpstream = errors.New("upstream failure")
)

// Passcode verification failures. Each one is reported to the caller with its own reason.
var (
	ErrCodeNotFound    = errors.New("no verification code found for this email")
	ErrCodeExpired     = errors.New("verification code has expired")
	ErrCodeMismatch    = errors.New("invalid verification code")
	ErrPurposeMismatch = errors.New("verification code was issued for a different purpose")
)

// VerificationReason returns the machine-readable reason for a passcode
// verification failure, or "" when err is not one.
func VerificationReason(err error) string {
	switch {
	case errors.Is(err, ErrCodeNotFound):
		return "not_found"
	case errors.Is(err, ErrCodeExpired):
		return "expired"
	case errors.Is(err, ErrCodeMismatch):
		return "mismatch"
	case errors.Is(err, ErrPurposeMismatch):
		return "purpose_mismatch"
	}
	return ""
}
