package jwtinfra

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/quick-orders/internal/config"
	"github.com/quick-orders/internal/domain"
)

// Claims holds the session JWT payload fields.
type Claims struct {
	CustomerID string `json:"customer_id"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	jwt.RegisteredClaims
}

// Identity converts the claims into the shopper identity carried by requests.
func (c *Claims) Identity() *domain.Identity {
	return &domain.Identity{
		CustomerID: c.CustomerID,
		Email:      c.Email,
		FirstName:  c.FirstName,
		LastName:   c.LastName,
	}
}

// Provider signs and verifies RS256 session JWTs.
type Provider struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	expiry     time.Duration
	now        func() time.Time
}

func NewProvider(cfg *config.Config) (*Provider, error) {
	privBytes, err := os.ReadFile(cfg.JWTPrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	privKey, err := jwt.ParseRSAPrivateKeyFromPEM(privBytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	pubBytes, err := os.ReadFile(cfg.JWTPublicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	pubKey, err := jwt.ParseRSAPublicKeyFromPEM(pubBytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}

	return &Provider{privateKey: privKey, publicKey: pubKey, expiry: cfg.JWTExpiry, now: time.Now}, nil
}

// Expiry is the lifetime of issued tokens.
func (p *Provider) Expiry() time.Duration { return p.expiry }

// Sign issues a session token for a verified identity with a known customer.
func (p *Provider) Sign(id *domain.Identity) (string, error) {
	if id == nil || id.CustomerID == "" {
		return "", fmt.Errorf("session requires a customer id: %w", domain.ErrBadRequest)
	}
	now := p.now()
	claims := Claims{
		CustomerID: id.CustomerID,
		Email:      id.Email,
		FirstName:  id.FirstName,
		LastName:   id.LastName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.CustomerID,
			ExpiresAt: jwt.NewNumericDate(now.Add(p.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(p.privateKey)
}

func (p *Provider) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return p.publicKey, nil
	}, jwt.WithTimeFunc(p.now))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.CustomerID == "" {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
