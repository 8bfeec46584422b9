package shopify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"github.com/golang-jwt/jwt/v5"
	"github.com/quick-orders/internal/domain"
	"golang.org/x/oauth2"
)

var shopHost = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9\-]*\.myshopify\.com$`)

// ValidShop reports whether shop is a myshopify.com host name.
func ValidShop(shop string) bool {
	return shopHost.MatchString(shop)
}

// ExchangeCode trades an OAuth authorization code for an offline access token
// on the given shop.
func (c *Client) ExchangeCode(ctx context.Context, shop, code string) (*oauth2.Token, error) {
	if c.apiKey == "" || c.apiSecret == "" {
		return nil, fmt.Errorf("shop api key or secret is not set: %w", domain.ErrConfiguration)
	}
	if !ValidShop(shop) {
		return nil, fmt.Errorf("shop %q: %w", shop, domain.ErrBadRequest)
	}
	if code == "" {
		return nil, fmt.Errorf("missing code: %w", domain.ErrBadRequest)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("shop rate limit: %w", err)
	}

	conf := &oauth2.Config{
		ClientID:     c.apiKey,
		ClientSecret: c.apiSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   c.shopURL(shop) + "/admin/oauth/authorize",
			TokenURL:  c.shopURL(shop) + "/admin/oauth/access_token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)
	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			c.record(http.MethodPost, re.Response.StatusCode)
			return nil, fmt.Errorf("exchange code: %w: %w", domain.ErrUnauthorized, err)
		}
		c.record(http.MethodPost, 0)
		return nil, fmt.Errorf("exchange code: %w: %w", domain.ErrUpstream, err)
	}
	c.record(http.MethodPost, 200)
	return tok, nil
}

// VerifyIDToken checks an HS256 session token signed with the app secret and
// returns the customer it was issued for.
func (c *Client) VerifyIDToken(tokenStr string) (string, error) {
	if c.apiSecret == "" {
		return "", fmt.Errorf("shop api secret is not set: %w", domain.ErrConfiguration)
	}
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(c.apiSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("id token: %w: %w", domain.ErrUnauthorized, err)
	}

	id := claimString(claims["customer_id"])
	if id == "" {
		id = claimString(claims["sub"])
	}
	if id == "" {
		return "", fmt.Errorf("id token has no customer: %w", domain.ErrUnauthorized)
	}
	return id, nil
}

func claimString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return fmt.Sprintf("%.0f", x)
	}
	return ""
}
