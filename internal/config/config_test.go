package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"APP_PORT", "APP_ENV", "SHOP_NAME", "PASSCODE_TTL", "PASSCODE_STORE", "SHOP_RATE_LIMIT", "ALLOWED_ORIGINS", "TRUSTED_PROXIES"} {
		t.Setenv(k, "")
	}
	cfg := Load()

	assert.Equal(t, "3002", cfg.AppPort)
	assert.Equal(t, "1account.myshopify.com", cfg.ShopDomain())
	assert.Equal(t, 10*time.Minute, cfg.PasscodeTTL)
	assert.Equal(t, "memory", cfg.PasscodeStore)
	assert.Equal(t, 2.0, cfg.ShopRateLimit)
	assert.False(t, cfg.CookieSecure)
	assert.Equal(t, []string{"https://quick-orders-nine.vercel.app"}, cfg.AllowedOrigins)
	assert.Nil(t, cfg.TrustedProxies)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SHOP_NAME", "other")
	t.Setenv("PASSCODE_TTL", "90s")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("SHOP_RATE_LIMIT", "0.5")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, ,172.16.0.1")
	cfg := Load()

	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, "other.myshopify.com", cfg.ShopDomain())
	assert.Equal(t, 90*time.Second, cfg.PasscodeTTL)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 0.5, cfg.ShopRateLimit)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, []string{"10.0.0.0/8", "172.16.0.1"}, cfg.TrustedProxies)
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("PASSCODE_TTL", "ten minutes")
	t.Setenv("SMTP_PORT", "smtp")
	cfg := Load()

	assert.Equal(t, 10*time.Minute, cfg.PasscodeTTL)
	assert.Equal(t, 1025, cfg.SMTPPort)
}
