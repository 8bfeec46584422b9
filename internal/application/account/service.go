package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/quick-orders/internal/application/passcode"
	"github.com/quick-orders/internal/domain"
	"github.com/quick-orders/internal/pkg/token"
)

// CustomerDirectory is the slice of the shop API the account flows need.
type CustomerDirectory interface {
	SearchCustomerByEmail(ctx context.Context, email string) (*domain.Customer, error)
	CreateCustomer(ctx context.Context, nc domain.NewCustomer) (*domain.Customer, error)
}

// SessionSigner issues a session token for a verified shopper.
type SessionSigner interface {
	Sign(id *domain.Identity) (string, error)
}

// Result is a completed login or registration.
type Result struct {
	Identity     *domain.Identity
	SessionToken string
}

type Service interface {
	CompleteLogin(ctx context.Context, email, code string) (*Result, error)
	CompleteRegistration(ctx context.Context, email, code, firstName, lastName string) (*Result, error)
}

// ServiceDeps groups the collaborators of the account service. Directory and
// Sessions are optional: without a directory the verified identity is
// returned as-is, without a signer no session token is issued.
type ServiceDeps struct {
	Passcodes passcode.Service
	Directory CustomerDirectory
	Sessions  SessionSigner
}

type service struct {
	passcodes passcode.Service
	directory CustomerDirectory
	sessions  SessionSigner
}

func NewService(deps ServiceDeps) Service {
	return &service{
		passcodes: deps.Passcodes,
		directory: deps.Directory,
		sessions:  deps.Sessions,
	}
}

// CompleteLogin and CompleteRegistration consume the code only after the
// upstream step succeeded, so a failed call can be retried with the same code.
func (s *service) CompleteLogin(ctx context.Context, email, code string) (*Result, error) {
	check, err := s.passcodes.CheckCode(ctx, email, code, domain.PurposeLogin)
	if err != nil {
		return nil, err
	}
	ident := check.Identity
	if s.directory != nil {
		cust, err := s.directory.SearchCustomerByEmail(ctx, ident.Email)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("no account found with this email: %w", domain.ErrNotFound)
			}
			return nil, fmt.Errorf("look up customer: %w", err)
		}
		ident = fromCustomer(cust)
	}
	if err := s.passcodes.Consume(ctx, check); err != nil {
		return nil, err
	}
	return s.finish(ident)
}

func (s *service) CompleteRegistration(ctx context.Context, email, code, firstName, lastName string) (*Result, error) {
	check, err := s.passcodes.CheckCode(ctx, email, code, domain.PurposeRegistration)
	if err != nil {
		return nil, err
	}
	ident := *check.Identity
	if v := strings.TrimSpace(firstName); v != "" {
		ident.FirstName = v
	}
	if v := strings.TrimSpace(lastName); v != "" {
		ident.LastName = v
	}
	if s.directory == nil {
		if err := s.passcodes.Consume(ctx, check); err != nil {
			return nil, err
		}
		return s.finish(&ident)
	}

	existing, err := s.directory.SearchCustomerByEmail(ctx, ident.Email)
	switch {
	case err == nil:
		slog.Info("registration for existing customer", "customer_id", existing.ID)
		return nil, fmt.Errorf("an account with this email already exists: %w", domain.ErrConflict)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("look up customer: %w", err)
	}

	pw, err := token.NewPassword()
	if err != nil {
		return nil, err
	}
	cust, err := s.directory.CreateCustomer(ctx, domain.NewCustomer{
		FirstName:            ident.FirstName,
		LastName:             ident.LastName,
		Email:                ident.Email,
		VerifiedEmail:        true,
		Password:             pw,
		PasswordConfirmation: pw,
		SendEmailWelcome:     false,
	})
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	slog.Info("customer registered", "customer_id", cust.ID)
	if err := s.passcodes.Consume(ctx, check); err != nil {
		slog.Warn("verification code consumed concurrently after registration", "customer_id", cust.ID, "err", err)
	}
	return s.finish(fromCustomer(cust))
}

func (s *service) finish(ident *domain.Identity) (*Result, error) {
	res := &Result{Identity: ident}
	if s.sessions == nil || ident.CustomerID == "" {
		return res, nil
	}
	tok, err := s.sessions.Sign(ident)
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}
	res.SessionToken = tok
	return res, nil
}

func fromCustomer(c *domain.Customer) *domain.Identity {
	return &domain.Identity{
		CustomerID: strconv.FormatInt(c.ID, 10),
		Email:      domain.NormalizeEmail(c.Email),
		FirstName:  c.FirstName,
		LastName:   c.LastName,
	}
}
