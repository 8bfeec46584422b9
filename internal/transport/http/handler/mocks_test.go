package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/quick-orders/internal/application/account"
	"github.com/quick-orders/internal/application/passcode"
	"github.com/quick-orders/internal/domain"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// --- mocks ---

type mockPasscodes struct{ mock.Mock }

func (m *mockPasscodes) IssueCode(ctx context.Context, email string, purpose domain.Purpose, pending *domain.PendingIdentity) error {
	return m.Called(ctx, email, purpose, pending).Error(0)
}

func (m *mockPasscodes) VerifyCode(ctx context.Context, email, code string, purpose domain.Purpose) (*domain.Identity, error) {
	args := m.Called(ctx, email, code, purpose)
	if id, _ := args.Get(0).(*domain.Identity); id != nil {
		return id, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPasscodes) CheckCode(ctx context.Context, email, code string, purpose domain.Purpose) (*passcode.Check, error) {
	args := m.Called(ctx, email, code, purpose)
	if c, _ := args.Get(0).(*passcode.Check); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPasscodes) Consume(ctx context.Context, c *passcode.Check) error {
	return m.Called(ctx, c).Error(0)
}

type mockAccounts struct{ mock.Mock }

func (m *mockAccounts) CompleteLogin(ctx context.Context, email, code string) (*account.Result, error) {
	args := m.Called(ctx, email, code)
	if r, _ := args.Get(0).(*account.Result); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAccounts) CompleteRegistration(ctx context.Context, email, code, firstName, lastName string) (*account.Result, error) {
	args := m.Called(ctx, email, code, firstName, lastName)
	if r, _ := args.Get(0).(*account.Result); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockShop struct{ mock.Mock }

func (m *mockShop) CurrentCustomer(ctx context.Context, customerID string) (*domain.Customer, error) {
	args := m.Called(ctx, customerID)
	if c, _ := args.Get(0).(*domain.Customer); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockShop) ListOrders(ctx context.Context, customerID string) ([]domain.Order, error) {
	args := m.Called(ctx, customerID)
	o, _ := args.Get(0).([]domain.Order)
	return o, args.Error(1)
}

func (m *mockShop) CreateOrder(ctx context.Context, customerID string, items []domain.OrderItem) (*domain.Order, error) {
	args := m.Called(ctx, customerID, items)
	if o, _ := args.Get(0).(*domain.Order); o != nil {
		return o, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockShop) Reorder(ctx context.Context, customerID, orderID string) (*domain.Order, error) {
	args := m.Called(ctx, customerID, orderID)
	if o, _ := args.Get(0).(*domain.Order); o != nil {
		return o, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockShop) ListVariants(ctx context.Context, productID string) ([]domain.Variant, error) {
	args := m.Called(ctx, productID)
	v, _ := args.Get(0).([]domain.Variant)
	return v, args.Error(1)
}

func (m *mockShop) ValidateAccessToken(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

type mockShopAuth struct{ mock.Mock }

func (m *mockShopAuth) ExchangeCode(ctx context.Context, shop, code string) (*oauth2.Token, error) {
	args := m.Called(ctx, shop, code)
	if t, _ := args.Get(0).(*oauth2.Token); t != nil {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockShopAuth) VerifyIDToken(token string) (string, error) {
	args := m.Called(token)
	return args.String(0), args.Error(1)
}

type mockSigner struct{ mock.Mock }

func (m *mockSigner) Sign(id *domain.Identity) (string, error) {
	args := m.Called(id)
	return args.String(0), args.Error(1)
}

// --- helpers ---

func jsonBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorEnvelope {
	t.Helper()
	var env ErrorEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	return env
}

func withIdentity(r *http.Request, customerID string) *http.Request {
	return r.WithContext(domain.WithIdentity(r.Context(), &domain.Identity{CustomerID: customerID}))
}
