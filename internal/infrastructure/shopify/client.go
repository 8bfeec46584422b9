package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/quick-orders/internal/config"
	"github.com/quick-orders/internal/domain"
	"golang.org/x/time/rate"
)

const maxErrorBody = 64 << 10

// Recorder receives one call per upstream round trip.
type Recorder interface {
	ShopRequest(method string, status int)
}

// APIError is a non-2xx answer from the shop API.
type APIError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("shop api %s %s: status %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// Unwrap lets callers match a missing resource with domain.ErrNotFound and
// anything else with domain.ErrUpstream.
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return domain.ErrNotFound
	}
	return domain.ErrUpstream
}

// Client talks to the shop's Admin REST API. Outbound calls share one token
// bucket so bursts from many shoppers never exceed the shop's call limit.
type Client struct {
	baseURL     string
	shopURL     func(shop string) string
	accessToken string
	apiKey      string
	apiSecret   string
	http        *http.Client
	limiter     *rate.Limiter
	recorder    Recorder
}

func NewClient(cfg *config.Config, recorder Recorder) *Client {
	return &Client{
		baseURL:     fmt.Sprintf("https://%s/admin/api/%s", cfg.ShopDomain(), cfg.ShopAPIVersion),
		shopURL:     func(shop string) string { return "https://" + shop },
		accessToken: cfg.ShopAccessToken,
		apiKey:      cfg.ShopAPIKey,
		apiSecret:   cfg.ShopAPISecret,
		http:        &http.Client{Timeout: cfg.ShopTimeout},
		limiter:     rate.NewLimiter(rate.Limit(cfg.ShopRateLimit), cfg.ShopRateBurst),
		recorder:    recorder,
	}
}

func (c *Client) SearchCustomerByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	q := url.Values{"query": {"email:" + email}}
	var out struct {
		Customers []domain.Customer `json:"customers"`
	}
	if err := c.admin(ctx, http.MethodGet, "/customers/search.json?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	for i := range out.Customers {
		if domain.NormalizeEmail(out.Customers[i].Email) == domain.NormalizeEmail(email) {
			return &out.Customers[i], nil
		}
	}
	return nil, fmt.Errorf("customer %s: %w", email, domain.ErrNotFound)
}

func (c *Client) CreateCustomer(ctx context.Context, nc domain.NewCustomer) (*domain.Customer, error) {
	in := struct {
		Customer domain.NewCustomer `json:"customer"`
	}{nc}
	var out struct {
		Customer domain.Customer `json:"customer"`
	}
	if err := c.admin(ctx, http.MethodPost, "/customers.json", in, &out); err != nil {
		return nil, err
	}
	return &out.Customer, nil
}

func (c *Client) GetCustomer(ctx context.Context, customerID int64) (*domain.Customer, error) {
	var out struct {
		Customer domain.Customer `json:"customer"`
	}
	if err := c.admin(ctx, http.MethodGet, "/customers/"+strconv.FormatInt(customerID, 10)+".json", nil, &out); err != nil {
		return nil, err
	}
	return &out.Customer, nil
}

// ListOrders returns every order of the customer regardless of status.
func (c *Client) ListOrders(ctx context.Context, customerID int64) ([]domain.Order, error) {
	q := url.Values{"customer_id": {strconv.FormatInt(customerID, 10)}, "status": {"any"}}
	var out struct {
		Orders []domain.Order `json:"orders"`
	}
	if err := c.admin(ctx, http.MethodGet, "/orders.json?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Orders, nil
}

func (c *Client) GetOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	var out struct {
		Order domain.Order `json:"order"`
	}
	if err := c.admin(ctx, http.MethodGet, "/orders/"+strconv.FormatInt(orderID, 10)+".json", nil, &out); err != nil {
		return nil, err
	}
	return &out.Order, nil
}

func (c *Client) CreateOrder(ctx context.Context, order domain.Order) (*domain.Order, error) {
	in := struct {
		Order domain.Order `json:"order"`
	}{order}
	var out struct {
		Order domain.Order `json:"order"`
	}
	if err := c.admin(ctx, http.MethodPost, "/orders.json", in, &out); err != nil {
		return nil, err
	}
	return &out.Order, nil
}

func (c *Client) ListVariants(ctx context.Context, productID int64) ([]domain.Variant, error) {
	var out struct {
		Variants []domain.Variant `json:"variants"`
	}
	if err := c.admin(ctx, http.MethodGet, "/products/"+strconv.FormatInt(productID, 10)+"/variants.json", nil, &out); err != nil {
		return nil, err
	}
	return out.Variants, nil
}

// ValidateToken probes shop.json with a caller-supplied access token.
func (c *Client) ValidateToken(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("empty access token: %w", domain.ErrUnauthorized)
	}
	err := c.do(ctx, http.MethodGet, c.baseURL, "/shop.json", token, nil, nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden) {
		return fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	}
	return err
}

func (c *Client) admin(ctx context.Context, method, path string, in, out any) error {
	if c.accessToken == "" {
		return fmt.Errorf("shop access token is not set: %w", domain.ErrConfiguration)
	}
	return c.do(ctx, method, c.baseURL, path, c.accessToken, in, out)
}

func (c *Client) do(ctx context.Context, method, base, path, token string, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("shop rate limit: %w", err)
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", path, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, base+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", token)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.record(method, 0)
		return fmt.Errorf("shop api %s %s: %w: %w", method, path, domain.ErrUpstream, err)
	}
	defer resp.Body.Close()
	c.record(method, resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{Method: method, Path: path, Status: resp.StatusCode, Body: string(bytes.TrimSpace(b))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w: %w", path, domain.ErrUpstream, err)
	}
	return nil
}

func (c *Client) record(method string, status int) {
	if c.recorder != nil {
		c.recorder.ShopRequest(method, status)
	}
}
