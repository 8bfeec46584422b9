package passcode

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/quick-orders/internal/domain"
	"github.com/quick-orders/internal/pkg/id"
	"github.com/quick-orders/internal/pkg/token"
	"github.com/quick-orders/internal/pkg/validate"
)

// DefaultTTL is how long an issued code stays valid.
const DefaultTTL = 10 * time.Minute

// Store keeps at most one VerificationRecord per normalized email.
// Get returns an error wrapping domain.ErrNotFound when no record exists.
type Store interface {
	Put(ctx context.Context, v *domain.VerificationRecord) error
	Get(ctx context.Context, email string) (*domain.VerificationRecord, error)
	Delete(ctx context.Context, email string) error
	// CompareAndDelete removes the record for email only if its ID still equals
	// recordID. It reports whether a record was removed.
	CompareAndDelete(ctx context.Context, email, recordID string) (bool, error)
}

// Sender delivers a message to an email address.
type Sender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// Observer is notified of issuance and verification outcomes.
type Observer interface {
	CodeIssued(purpose domain.Purpose)
	CodeVerified(purpose domain.Purpose, result string)
}

type Service interface {
	IssueCode(ctx context.Context, email string, purpose domain.Purpose, pending *domain.PendingIdentity) error
	// VerifyCode checks code and consumes it in one step.
	VerifyCode(ctx context.Context, email, code string, purpose domain.Purpose) (*domain.Identity, error)
	// CheckCode runs every verification check but leaves the record stored.
	// Callers finish with Consume once their own follow-up work succeeded.
	CheckCode(ctx context.Context, email, code string, purpose domain.Purpose) (*Check, error)
	Consume(ctx context.Context, c *Check) error
}

// Check is a code that passed verification and has not been consumed yet.
type Check struct {
	Identity *domain.Identity

	email    string
	recordID string
	purpose  domain.Purpose
}

// ServiceDeps groups the collaborators of the passcode service.
// TTL defaults to DefaultTTL and Now to time.Now.
type ServiceDeps struct {
	Store    Store
	Sender   Sender
	Observer Observer
	TTL      time.Duration
	Now      func() time.Time
}

type service struct {
	store    Store
	sender   Sender
	observer Observer
	ttl      time.Duration
	now      func() time.Time
	locks    *keyLocks
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		store:    deps.Store,
		sender:   deps.Sender,
		observer: deps.Observer,
		ttl:      deps.TTL,
		now:      deps.Now,
		locks:    newKeyLocks(),
	}
	if s.ttl <= 0 {
		s.ttl = DefaultTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.observer == nil {
		s.observer = nopObserver{}
	}
	return s
}

func (s *service) IssueCode(ctx context.Context, email string, purpose domain.Purpose, pending *domain.PendingIdentity) error {
	key := domain.NormalizeEmail(email)
	if key == "" {
		return fmt.Errorf("email is required: %w", domain.ErrBadRequest)
	}
	if !validate.Email(key) {
		return fmt.Errorf("invalid email address %q: %w", key, domain.ErrBadRequest)
	}
	if !purpose.Valid() {
		return fmt.Errorf("unknown purpose %q: %w", purpose, domain.ErrBadRequest)
	}
	code, err := token.NewNumericCode()
	if err != nil {
		return err
	}

	now := s.now()
	rec := &domain.VerificationRecord{
		ID:        id.New(),
		Email:     key,
		Code:      code,
		Purpose:   purpose,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl).Unix(),
	}
	if purpose == domain.PurposeRegistration && pending != nil {
		rec.Pending = &domain.PendingIdentity{
			FirstName: strings.TrimSpace(pending.FirstName),
			LastName:  strings.TrimSpace(pending.LastName),
		}
	}

	unlock := s.locks.lock(key)
	err = s.store.Put(ctx, rec)
	unlock()
	if err != nil {
		return fmt.Errorf("store verification code: %w", err)
	}
	s.observer.CodeIssued(purpose)

	subject, body := message(code, s.ttl)
	if err := s.sender.SendEmail(ctx, strings.TrimSpace(email), subject, body); err != nil {
		slog.Error("verification code delivery failed", "email", key, "purpose", purpose, "err", err)
		return fmt.Errorf("send verification code: %w: %w", domain.ErrUpstream, err)
	}
	slog.Info("verification code sent", "email", key, "purpose", purpose)
	return nil
}

func (s *service) VerifyCode(ctx context.Context, email, code string, purpose domain.Purpose) (*domain.Identity, error) {
	c, err := s.CheckCode(ctx, email, code, purpose)
	if err != nil {
		return nil, err
	}
	if err := s.Consume(ctx, c); err != nil {
		return nil, err
	}
	return c.Identity, nil
}

func (s *service) CheckCode(ctx context.Context, email, code string, purpose domain.Purpose) (*Check, error) {
	key := domain.NormalizeEmail(email)
	code = strings.TrimSpace(code)
	if key == "" || code == "" {
		return nil, fmt.Errorf("email and verification code are required: %w", domain.ErrBadRequest)
	}

	unlock := s.locks.lock(key)
	defer unlock()

	rec, err := s.store.Get(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, s.reject(purpose, domain.ErrCodeNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load verification code: %w", err)
	}
	if rec.Purpose != purpose {
		return nil, s.reject(purpose, domain.ErrPurposeMismatch)
	}
	// Expiry is checked before equality: an expired but correct code is still expired.
	if rec.Expired(s.now(), s.ttl) {
		if err := s.store.Delete(ctx, key); err != nil {
			slog.Warn("failed to delete expired verification code", "email", key, "err", err)
		}
		return nil, s.reject(purpose, domain.ErrCodeExpired)
	}
	if subtle.ConstantTimeCompare([]byte(rec.Code), []byte(code)) != 1 {
		return nil, s.reject(purpose, domain.ErrCodeMismatch)
	}

	ident := &domain.Identity{Email: key}
	if rec.Purpose == domain.PurposeRegistration && rec.Pending != nil {
		ident.FirstName = rec.Pending.FirstName
		ident.LastName = rec.Pending.LastName
	}
	return &Check{Identity: ident, email: key, recordID: rec.ID, purpose: purpose}, nil
}

// Consume deletes the checked record. It fails with ErrCodeNotFound when the
// record was consumed or replaced since the check.
func (s *service) Consume(ctx context.Context, c *Check) error {
	if c == nil || c.recordID == "" {
		return fmt.Errorf("consume unchecked verification code: %w", domain.ErrBadRequest)
	}
	unlock := s.locks.lock(c.email)
	defer unlock()

	removed, err := s.store.CompareAndDelete(ctx, c.email, c.recordID)
	if err != nil {
		return fmt.Errorf("consume verification code: %w", err)
	}
	if !removed {
		// Consumed or replaced by another request sharing the store.
		return s.reject(c.purpose, domain.ErrCodeNotFound)
	}
	s.observer.CodeVerified(c.purpose, "success")
	return nil
}

func (s *service) reject(purpose domain.Purpose, err error) error {
	s.observer.CodeVerified(purpose, domain.VerificationReason(err))
	return err
}

func message(code string, ttl time.Duration) (subject, body string) {
	subject = "Your verification code"
	body = fmt.Sprintf("Your verification code is: %s\n\nIt expires in %d minutes. If you did not request it, you can ignore this email.",
		code, int(ttl.Minutes()))
	return subject, body
}

type nopObserver struct{}

func (nopObserver) CodeIssued(domain.Purpose)           {}
func (nopObserver) CodeVerified(domain.Purpose, string) {}
