package http

import (
	"net/http"

	"github.com/quick-orders/internal/application/account"
	"github.com/quick-orders/internal/application/passcode"
	"github.com/quick-orders/internal/application/shop"
	"github.com/quick-orders/internal/application/sso"
	"github.com/quick-orders/internal/domain"
	jwtinfra "github.com/quick-orders/internal/infrastructure/jwt"
	"github.com/quick-orders/internal/transport/http/handler"
)

// SessionProvider signs and verifies session tokens.
type SessionProvider interface {
	Sign(id *domain.Identity) (string, error)
	Verify(token string) (*jwtinfra.Claims, error)
}

// Deps holds the application services the router exposes. Sessions is nil
// when no signing keys are configured; Metrics is nil when metrics are off.
type Deps struct {
	Passcodes passcode.Service
	Accounts  account.Service
	Shop      shop.Service
	ShopAuth  handler.ShopAuth
	SSO       *sso.Builder
	Sessions  SessionProvider
	Metrics   http.Handler
}
