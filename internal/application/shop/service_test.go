package shop

import (
	"context"
	"testing"

	"github.com/quick-orders/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const placeholder = "https://via.placeholder.com/150"

type mockUpstream struct{ mock.Mock }

func (m *mockUpstream) GetCustomer(ctx context.Context, customerID int64) (*domain.Customer, error) {
	args := m.Called(ctx, customerID)
	if c, _ := args.Get(0).(*domain.Customer); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUpstream) ListOrders(ctx context.Context, customerID int64) ([]domain.Order, error) {
	args := m.Called(ctx, customerID)
	orders, _ := args.Get(0).([]domain.Order)
	return orders, args.Error(1)
}

func (m *mockUpstream) GetOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	args := m.Called(ctx, orderID)
	if o, _ := args.Get(0).(*domain.Order); o != nil {
		return o, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUpstream) CreateOrder(ctx context.Context, order domain.Order) (*domain.Order, error) {
	args := m.Called(ctx, order)
	if o, _ := args.Get(0).(*domain.Order); o != nil {
		return o, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUpstream) ListVariants(ctx context.Context, productID int64) ([]domain.Variant, error) {
	args := m.Called(ctx, productID)
	v, _ := args.Get(0).([]domain.Variant)
	return v, args.Error(1)
}

func (m *mockUpstream) ValidateToken(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func TestListOrders_FillsPlaceholderImages(t *testing.T) {
	up := &mockUpstream{}
	up.On("ListOrders", mock.Anything, int64(42)).Return([]domain.Order{{
		ID: 1,
		LineItems: []domain.LineItem{
			{VariantID: 5, Quantity: 1},
			{VariantID: 6, Quantity: 1, Image: &domain.Image{Src: "https://cdn/x.png"}},
		},
	}}, nil)

	orders, err := NewService(up, placeholder).ListOrders(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, placeholder, orders[0].LineItems[0].Image.Src)
	assert.Equal(t, "https://cdn/x.png", orders[0].LineItems[1].Image.Src)
}

func TestListOrders_EmptyIsNotNil(t *testing.T) {
	up := &mockUpstream{}
	up.On("ListOrders", mock.Anything, int64(42)).Return(nil, nil)

	orders, err := NewService(up, placeholder).ListOrders(context.Background(), "42")
	require.NoError(t, err)
	assert.NotNil(t, orders)
	assert.Empty(t, orders)
}

func TestListOrders_InvalidCustomer(t *testing.T) {
	_, err := NewService(&mockUpstream{}, placeholder).ListOrders(context.Background(), "abc")
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestCreateOrder_DefaultsQuantity(t *testing.T) {
	up := &mockUpstream{}
	want := domain.Order{
		Customer:        &domain.OrderCustomer{ID: 42},
		FinancialStatus: "pending",
		LineItems: []domain.LineItem{
			{VariantID: 5, Quantity: 1},
			{VariantID: 6, Quantity: 3},
		},
	}
	up.On("CreateOrder", mock.Anything, want).Return(&domain.Order{ID: 100}, nil)

	order, err := NewService(up, placeholder).CreateOrder(context.Background(), "42", []domain.OrderItem{
		{VariantID: 5},
		{VariantID: 6, Quantity: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(100), order.ID)
	up.AssertExpectations(t)
}

func TestCreateOrder_RequiresItems(t *testing.T) {
	up := &mockUpstream{}
	_, err := NewService(up, placeholder).CreateOrder(context.Background(), "42", nil)
	assert.ErrorIs(t, err, domain.ErrBadRequest)

	_, err = NewService(up, placeholder).CreateOrder(context.Background(), "42", []domain.OrderItem{{Quantity: 2}})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
	up.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func TestReorder_CopiesLineItems(t *testing.T) {
	up := &mockUpstream{}
	up.On("GetOrder", mock.Anything, int64(7)).Return(&domain.Order{
		ID:       7,
		Customer: &domain.OrderCustomer{ID: 42},
		LineItems: []domain.LineItem{
			{ID: 1, VariantID: 5, Quantity: 2, Title: "Tea", Price: "3.00"},
			{ID: 2, VariantID: 0, Quantity: 1, Title: "Tip"},
		},
	}, nil)
	up.On("CreateOrder", mock.Anything, domain.Order{
		Customer:        &domain.OrderCustomer{ID: 42},
		FinancialStatus: "pending",
		LineItems:       []domain.LineItem{{VariantID: 5, Quantity: 2}},
	}).Return(&domain.Order{ID: 8}, nil)

	order, err := NewService(up, placeholder).Reorder(context.Background(), "42", "7")
	require.NoError(t, err)
	assert.Equal(t, int64(8), order.ID)
}

func TestReorder_OtherCustomersOrder(t *testing.T) {
	up := &mockUpstream{}
	up.On("GetOrder", mock.Anything, int64(7)).Return(&domain.Order{
		ID:        7,
		Customer:  &domain.OrderCustomer{ID: 99},
		LineItems: []domain.LineItem{{VariantID: 5, Quantity: 2}},
	}, nil)

	_, err := NewService(up, placeholder).Reorder(context.Background(), "42", "7")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	up.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func TestReorder_MissingOrder(t *testing.T) {
	up := &mockUpstream{}
	up.On("GetOrder", mock.Anything, int64(7)).Return(nil, domain.ErrNotFound)

	_, err := NewService(up, placeholder).Reorder(context.Background(), "42", "7")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListVariants(t *testing.T) {
	up := &mockUpstream{}
	up.On("ListVariants", mock.Anything, int64(3)).Return([]domain.Variant{{ID: 1, ProductID: 3, SKU: "A"}}, nil)

	v, err := NewService(up, placeholder).ListVariants(context.Background(), "3")
	require.NoError(t, err)
	assert.Len(t, v, 1)

	_, err = NewService(up, placeholder).ListVariants(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestCurrentCustomer(t *testing.T) {
	up := &mockUpstream{}
	up.On("GetCustomer", mock.Anything, int64(42)).Return(&domain.Customer{ID: 42, Email: "a@example.com"}, nil)

	c, err := NewService(up, placeholder).CurrentCustomer(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", c.Email)
}
