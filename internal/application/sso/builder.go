package sso

import (
	"fmt"
	"log/slog"
	"time"
)

// Builder issues login URLs for one shop with the configured shared secret.
type Builder struct {
	secret     string
	shopDomain string
	now        func() time.Time
}

func NewBuilder(secret, shopDomain string) *Builder {
	return &Builder{secret: secret, shopDomain: shopDomain, now: time.Now}
}

// LoginURL builds a token for claims and the hosted login URL embedding it.
// A zero CreatedAt is stamped with the current time.
func (b *Builder) LoginURL(claims Claims) (token, url string, err error) {
	if claims.CreatedAt.IsZero() {
		claims.CreatedAt = b.now()
	}
	token, err = BuildToken(claims, b.secret)
	if err != nil {
		slog.Error("sso token construction failed", "email", claims.Email, "err", err)
		return "", "", err
	}
	return token, fmt.Sprintf("https://%s/account/login/multipass/%s", b.shopDomain, token), nil
}
