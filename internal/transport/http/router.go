package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/quick-orders/internal/config"
	"github.com/quick-orders/internal/transport/http/handler"
	appmiddleware "github.com/quick-orders/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router. ctx bounds the
// background cleanup of the rate limiters.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	cookies := &handler.SessionCookies{
		Name:   cfg.SessionCookieName,
		Secure: cfg.CookieSecure,
		MaxAge: cfg.JWTExpiry,
	}

	var (
		sessionMw = appmiddleware.Session(nil, cfg.SessionCookieName)
		signer    handler.SessionSigner
	)
	if deps.Sessions != nil {
		sessionMw = appmiddleware.Session(deps.Sessions, cfg.SessionCookieName)
		signer = deps.Sessions
	}

	// 5 requests/second, burst of 10 on endpoints that send mail or mint credentials.
	sensitiveRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(5), 10,
		appmiddleware.ParseTrustedProxies(cfg.TrustedProxies))

	healthH := handler.NewHealthHandler()
	verifyH := handler.NewVerificationHandler(deps.Passcodes, deps.Accounts, cookies)
	ssoH := handler.NewSSOHandler(deps.SSO)
	authH := handler.NewAuthHandler(deps.ShopAuth, deps.Shop, signer, cookies, cfg.AllowedOrigins)
	orderH := handler.NewOrderHandler(deps.Shop)
	customerH := handler.NewCustomerHandler(deps.Shop)
	productH := handler.NewProductHandler(deps.Shop)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Get("/test", healthH.Test)
		if deps.Metrics != nil {
			r.Method(http.MethodGet, "/metrics", deps.Metrics)
		}

		r.With(sensitiveRL.Limit).Post("/verification-codes", verifyH.Issue)
		r.With(sensitiveRL.Limit).Post("/verification-codes/verify", verifyH.Verify)
		r.With(sensitiveRL.Limit).Post("/sso-tokens", ssoH.Create)

		r.With(sensitiveRL.Limit).Post("/auth/callback", authH.Callback)
		r.Get("/auth/redirect", authH.Redirect)
		r.Get("/auth/validate-token", authH.ValidateToken)
		r.Post("/sessions/logout", authH.Logout)

		r.Get("/products/{id}/variants", productH.Variants)

		// ── Session routes ───────────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(sessionMw)

			r.Get("/customers/me", customerH.Me)
			r.Get("/orders", orderH.List)
			r.Post("/orders", orderH.Create)
			r.Post("/orders/{id}/reorder", orderH.Reorder)
		})
	})

	return r
}
