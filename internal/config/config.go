package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort   string
	AppEnv    string
	LogLevel  string // debug | info | warn | error
	LogFormat string // text | json

	// Upstream shop.
	ShopName         string // store name without .myshopify.com
	ShopAPIVersion   string
	ShopAccessToken  string
	ShopAPIKey       string
	ShopAPISecret    string
	ShopRateLimit    float64 // outbound requests/second
	ShopRateBurst    int
	ShopTimeout      time.Duration
	MultipassSecret  string
	PlaceholderImage string

	// Passcodes.
	PasscodeStore  string // memory | redis | dynamodb
	PasscodeTTL    time.Duration
	SweepInterval  time.Duration
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string

	DynamoPasscodeTable string

	// Sessions.
	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration
	SessionCookieName string
	CookieSecure      bool

	SMTPHost     string
	SMTPPort     int
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string
	SMTPTLS      bool

	AllowedOrigins []string // CORS allowed origins
	TrustedProxies []string // CIDRs whose X-Forwarded-For is honoured
}

// Load reads all configuration from environment variables.
func Load() *Config {
	appEnv := getEnv("APP_ENV", "development")
	return &Config{
		AppPort:   getEnv("APP_PORT", "3002"),
		AppEnv:    appEnv,
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		ShopName:         getEnv("SHOP_NAME", "1account"),
		ShopAPIVersion:   getEnv("SHOP_API_VERSION", "2024-01"),
		ShopAccessToken:  getEnv("SHOPIFY_PASSWORD", ""),
		ShopAPIKey:       getEnv("SHOPIFY_API_KEY", ""),
		ShopAPISecret:    getEnv("SHOPIFY_API_SECRET", ""),
		ShopRateLimit:    getEnvFloat("SHOP_RATE_LIMIT", 2),
		ShopRateBurst:    getEnvInt("SHOP_RATE_BURST", 4),
		ShopTimeout:      getEnvDuration("SHOP_TIMEOUT", 15*time.Second),
		MultipassSecret:  getEnv("SHOPIFY_MULTIPASS_SECRET", ""),
		PlaceholderImage: getEnv("PLACEHOLDER_IMAGE_URL", "https://via.placeholder.com/150"),

		PasscodeStore:  getEnv("PASSCODE_STORE", "memory"),
		PasscodeTTL:    getEnvDuration("PASSCODE_TTL", 10*time.Minute),
		SweepInterval:  getEnvDuration("PASSCODE_SWEEP_INTERVAL", time.Minute),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		RedisKeyPrefix: getEnv("REDIS_KEY_PREFIX", "quick-orders:passcode:"),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL:      getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:        getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoPasscodeTable: getEnv("DYNAMO_TABLE_PASSCODES", "passcodes"),

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         getEnvDuration("JWT_EXPIRY", 24*time.Hour),
		SessionCookieName: getEnv("SESSION_COOKIE_NAME", "shopify_customer_session"),
		CookieSecure:      appEnv == "production",

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnvInt("SMTP_PORT", 1025),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPTLS:      getEnv("SMTP_TLS", "false") == "true",

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "https://quick-orders-nine.vercel.app"), ","),
		TrustedProxies: getEnvList("TRUSTED_PROXIES"),
	}
}

// ShopDomain is the shop's myshopify.com host name.
func (c *Config) ShopDomain() string {
	return c.ShopName + ".myshopify.com"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvList splits a comma-separated variable; unset yields nil.
func getEnvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

// getEnvDuration accepts Go duration strings ("10m", "1h30m").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
