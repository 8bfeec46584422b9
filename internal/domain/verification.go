package domain

import (
	"strings"
	"time"
)

// Purpose tags which flow a passcode was issued for.
type Purpose string

const (
	PurposeLogin        Purpose = "login"
	PurposeRegistration Purpose = "registration"
)

// Valid reports whether p is one of the known purposes.
func (p Purpose) Valid() bool {
	return p == PurposeLogin || p == PurposeRegistration
}

// PendingIdentity is the name captured when a registration code is requested.
type PendingIdentity struct {
	FirstName string `json:"first_name,omitempty" dynamodbav:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty" dynamodbav:"last_name,omitempty"`
}

// VerificationRecord is one pending passcode challenge.
// PK: email. At most one record exists per email; a new issuance overwrites it.
// ExpiresAt is a Unix timestamp used as DynamoDB TTL and Redis expiry; expiry
// decisions are made from IssuedAt.
type VerificationRecord struct {
	ID        string           `json:"id" dynamodbav:"record_id"`
	Email     string           `json:"email" dynamodbav:"email"`
	Code      string           `json:"code" dynamodbav:"code"`
	Purpose   Purpose          `json:"purpose" dynamodbav:"purpose"`
	Pending   *PendingIdentity `json:"pending,omitempty" dynamodbav:"pending,omitempty"`
	IssuedAt  time.Time        `json:"issued_at" dynamodbav:"issued_at"`
	ExpiresAt int64            `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
}

// Expired reports whether more than ttl has elapsed since issuance.
func (v *VerificationRecord) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(v.IssuedAt) > ttl
}

// NormalizeEmail is the key used for every passcode lookup. Addresses are
// compared case-insensitively.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
