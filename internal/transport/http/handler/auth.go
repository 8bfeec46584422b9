package handler

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/quick-orders/internal/application/shop"
	"github.com/quick-orders/internal/domain"
	"github.com/quick-orders/internal/pkg/validate"
	"golang.org/x/oauth2"
)

// ShopAuth is the shop's OAuth and session-token surface.
type ShopAuth interface {
	ExchangeCode(ctx context.Context, shop, code string) (*oauth2.Token, error)
	VerifyIDToken(token string) (string, error)
}

// SessionSigner issues session tokens.
type SessionSigner interface {
	Sign(id *domain.Identity) (string, error)
}

type callbackRequest struct {
	Code string `json:"code" validate:"required"`
	Shop string `json:"shop" validate:"required"`
}

type callbackResponse struct {
	AccessToken string `json:"access_token"`
	Scope       string `json:"scope,omitempty"`
}

// AuthHandler serves the shop OAuth callback, the storefront login redirect
// and access token checks.
type AuthHandler struct {
	auth           ShopAuth
	shop           shop.Service
	sessions       SessionSigner
	cookies        *SessionCookies
	allowedOrigins []string
}

// NewAuthHandler wires the auth endpoints. sessions may be nil, in which case
// the login redirect answers 503.
func NewAuthHandler(auth ShopAuth, shopSvc shop.Service, sessions SessionSigner, cookies *SessionCookies, allowedOrigins []string) *AuthHandler {
	return &AuthHandler{auth: auth, shop: shopSvc, sessions: sessions, cookies: cookies, allowedOrigins: allowedOrigins}
}

func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	var req callbackRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	tok, err := h.auth.ExchangeCode(r.Context(), req.Shop, req.Code)
	if err != nil {
		httpError(w, err)
		return
	}
	scope, _ := tok.Extra("scope").(string)
	writeJSON(w, http.StatusOK, callbackResponse{AccessToken: tok.AccessToken, Scope: scope})
}

// Redirect verifies the shop's id_token, starts a session and sends the
// shopper back to return_to with their customer id.
func (h *AuthHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	returnTo := q.Get("return_to")
	if returnTo == "" {
		writeError(w, http.StatusBadRequest, "missing return_to parameter")
		return
	}
	dest, ok := h.safeReturnTo(returnTo)
	if !ok {
		writeError(w, http.StatusBadRequest, "return_to is not an allowed destination")
		return
	}
	if h.sessions == nil {
		writeError(w, http.StatusServiceUnavailable, "sessions are not enabled")
		return
	}
	idToken := q.Get("id_token")
	if idToken == "" {
		writeError(w, http.StatusUnauthorized, "unable to identify customer")
		return
	}
	customerID, err := h.auth.VerifyIDToken(idToken)
	if err != nil {
		httpError(w, err)
		return
	}
	token, err := h.sessions.Sign(&domain.Identity{CustomerID: customerID})
	if err != nil {
		httpError(w, err)
		return
	}
	h.cookies.Set(w, token, time.Now())

	vals := dest.Query()
	vals.Set("customer_id", customerID)
	dest.RawQuery = vals.Encode()
	http.Redirect(w, r, dest.String(), http.StatusFound)
}

func (h *AuthHandler) ValidateToken(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		writeError(w, http.StatusUnauthorized, "no token provided")
		return
	}
	if err := h.shop.ValidateAccessToken(r.Context(), strings.TrimPrefix(authHeader, "Bearer ")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"valid": true})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	h.cookies.Clear(w)
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "logged out"})
}

// safeReturnTo accepts same-site paths and absolute URLs on an allowed origin.
// Browsers treat a backslash like a slash, so "/\host" counts as "//host".
func (h *AuthHandler) safeReturnTo(raw string) (*url.URL, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, false
	}
	if u.Scheme == "" && u.Host == "" {
		normalized := strings.ReplaceAll(raw, `\`, "/")
		if !strings.HasPrefix(normalized, "/") || strings.HasPrefix(normalized, "//") {
			return nil, false
		}
		if n, err := url.Parse(normalized); err != nil || n.Scheme != "" || n.Host != "" {
			return nil, false
		}
		return u, true
	}
	origin := u.Scheme + "://" + u.Host
	for _, o := range h.allowedOrigins {
		if strings.EqualFold(strings.TrimSuffix(o, "/"), origin) {
			return u, true
		}
	}
	return nil, false
}
