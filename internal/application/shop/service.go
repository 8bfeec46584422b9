package shop

import (
	"context"
	"fmt"
	"strconv"

	"github.com/quick-orders/internal/domain"
)

const financialStatusPending = "pending"

// Upstream is the slice of the shop API the storefront proxy relays to.
type Upstream interface {
	GetCustomer(ctx context.Context, customerID int64) (*domain.Customer, error)
	ListOrders(ctx context.Context, customerID int64) ([]domain.Order, error)
	GetOrder(ctx context.Context, orderID int64) (*domain.Order, error)
	CreateOrder(ctx context.Context, order domain.Order) (*domain.Order, error)
	ListVariants(ctx context.Context, productID int64) ([]domain.Variant, error)
	ValidateToken(ctx context.Context, token string) error
}

type Service interface {
	CurrentCustomer(ctx context.Context, customerID string) (*domain.Customer, error)
	ListOrders(ctx context.Context, customerID string) ([]domain.Order, error)
	CreateOrder(ctx context.Context, customerID string, items []domain.OrderItem) (*domain.Order, error)
	Reorder(ctx context.Context, customerID, orderID string) (*domain.Order, error)
	ListVariants(ctx context.Context, productID string) ([]domain.Variant, error)
	ValidateAccessToken(ctx context.Context, token string) error
}

type service struct {
	upstream         Upstream
	placeholderImage string
}

// NewService returns the storefront proxy. Line items without an image get
// placeholderImage as their image src.
func NewService(upstream Upstream, placeholderImage string) Service {
	return &service{upstream: upstream, placeholderImage: placeholderImage}
}

func (s *service) CurrentCustomer(ctx context.Context, customerID string) (*domain.Customer, error) {
	cid, err := parseID("customer id", customerID)
	if err != nil {
		return nil, err
	}
	return s.upstream.GetCustomer(ctx, cid)
}

func (s *service) ListOrders(ctx context.Context, customerID string) ([]domain.Order, error) {
	cid, err := parseID("customer id", customerID)
	if err != nil {
		return nil, err
	}
	orders, err := s.upstream.ListOrders(ctx, cid)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	for i := range orders {
		for j := range orders[i].LineItems {
			item := &orders[i].LineItems[j]
			if item.Image == nil || item.Image.Src == "" {
				item.Image = &domain.Image{Src: s.placeholderImage}
			}
		}
	}
	return orders, nil
}

func (s *service) CreateOrder(ctx context.Context, customerID string, items []domain.OrderItem) (*domain.Order, error) {
	cid, err := parseID("customer id", customerID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("at least one item is required: %w", domain.ErrBadRequest)
	}
	lines := make([]domain.LineItem, 0, len(items))
	for _, it := range items {
		if it.VariantID <= 0 {
			return nil, fmt.Errorf("variant id is required: %w", domain.ErrBadRequest)
		}
		qty := it.Quantity
		if qty <= 0 {
			qty = 1
		}
		lines = append(lines, domain.LineItem{VariantID: it.VariantID, Quantity: qty})
	}
	return s.place(ctx, cid, lines)
}

// Reorder places a new pending order with the variants and quantities of a
// previous order owned by the same customer.
func (s *service) Reorder(ctx context.Context, customerID, orderID string) (*domain.Order, error) {
	cid, err := parseID("customer id", customerID)
	if err != nil {
		return nil, err
	}
	oid, err := parseID("order id", orderID)
	if err != nil {
		return nil, err
	}
	orig, err := s.upstream.GetOrder(ctx, oid)
	if err != nil {
		return nil, fmt.Errorf("get order %d: %w", oid, err)
	}
	if orig.Customer == nil || orig.Customer.ID != cid {
		return nil, fmt.Errorf("order %d belongs to another customer: %w", oid, domain.ErrForbidden)
	}
	lines := make([]domain.LineItem, 0, len(orig.LineItems))
	for _, li := range orig.LineItems {
		if li.VariantID == 0 {
			continue
		}
		lines = append(lines, domain.LineItem{VariantID: li.VariantID, Quantity: li.Quantity})
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("order %d has no reorderable items: %w", oid, domain.ErrBadRequest)
	}
	return s.place(ctx, cid, lines)
}

func (s *service) ListVariants(ctx context.Context, productID string) ([]domain.Variant, error) {
	pid, err := parseID("product id", productID)
	if err != nil {
		return nil, err
	}
	variants, err := s.upstream.ListVariants(ctx, pid)
	if err != nil {
		return nil, fmt.Errorf("list variants: %w", err)
	}
	if variants == nil {
		variants = []domain.Variant{}
	}
	return variants, nil
}

func (s *service) ValidateAccessToken(ctx context.Context, token string) error {
	return s.upstream.ValidateToken(ctx, token)
}

func (s *service) place(ctx context.Context, customerID int64, lines []domain.LineItem) (*domain.Order, error) {
	order, err := s.upstream.CreateOrder(ctx, domain.Order{
		Customer:        &domain.OrderCustomer{ID: customerID},
		LineItems:       lines,
		FinancialStatus: financialStatusPending,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return order, nil
}

func parseID(name, v string) (int64, error) {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q: %w", name, v, domain.ErrBadRequest)
	}
	return n, nil
}
