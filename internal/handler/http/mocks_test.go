package http_test

import (
	"context"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/shop-admin/internal/catalog"
	"github.com/vasiliy-maslov/shop-admin/internal/money"
	"github.com/vasiliy-maslov/shop-admin/internal/order"
	"github.com/vasiliy-maslov/shop-admin/internal/promotion"
	"github.com/vasiliy-maslov/shop-admin/internal/settings"
)

type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) CreateProduct(ctx context.Context, p *catalog.Product) (*catalog.Product, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductService) GetProduct(ctx context.Context, id int64) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductService) IncrementStock(ctx context.Context, id int64, amount int) (*catalog.Product, error) {
	args := m.Called(ctx, id, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductService) DecrementStock(ctx context.Context, id int64, amount int) (*catalog.Product, error) {
	args := m.Called(ctx, id, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductService) ChangePrice(ctx context.Context, id int64, price int64, comparePrice *int64) (*catalog.Product, error) {
	args := m.Called(ctx, id, price, comparePrice)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductService) StockStatus(p *catalog.Product) catalog.StockStatus {
	return catalog.DefaultStockPolicy().Status(p)
}

type MockAttributeService struct {
	mock.Mock
}

func (m *MockAttributeService) CreateAttribute(ctx context.Context, name string, t catalog.AttributeType) (*catalog.ProductAttribute, error) {
	args := m.Called(ctx, name, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.ProductAttribute), args.Error(1)
}

func (m *MockAttributeService) SetProductAttributes(ctx context.Context, productID int64, values map[int64]string) ([]catalog.AttributeValue, error) {
	args := m.Called(ctx, productID, values)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.AttributeValue), args.Error(1)
}

func (m *MockAttributeService) ProductAttributes(ctx context.Context, productID int64) ([]catalog.AttributeValue, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.AttributeValue), args.Error(1)
}

type MockFinalPriceUpdater struct {
	mock.Mock
}

func (m *MockFinalPriceUpdater) UpdateProductFinalPrice(ctx context.Context, id int64) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

type MockPromotionService struct {
	mock.Mock
}

func (m *MockPromotionService) CreatePromotion(ctx context.Context, p *promotion.Promotion) (*promotion.Promotion, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*promotion.Promotion), args.Error(1)
}

func (m *MockPromotionService) GetPromotion(ctx context.Context, id int64) (*promotion.Promotion, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*promotion.Promotion), args.Error(1)
}

func (m *MockPromotionService) UpdatePromotion(ctx context.Context, p *promotion.Promotion) (*promotion.Promotion, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*promotion.Promotion), args.Error(1)
}

func (m *MockPromotionService) DeletePromotion(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockPromotionService) AttachProduct(ctx context.Context, promotionID, productID int64) error {
	return m.Called(ctx, promotionID, productID).Error(0)
}

func (m *MockPromotionService) DetachProduct(ctx context.Context, promotionID, productID int64) error {
	return m.Called(ctx, promotionID, productID).Error(0)
}

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) CreateOrder(ctx context.Context, input order.CreateOrderInput) (*order.Order, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) GetOrderByID(ctx context.Context, id int64) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) MarkProcessing(ctx context.Context, id int64) (*order.Order, bool, error) {
	args := m.Called(ctx, id)
	return orderResult(args)
}

func (m *MockOrderService) CancelOrder(ctx context.Context, id int64) (*order.Order, bool, error) {
	args := m.Called(ctx, id)
	return orderResult(args)
}

func (m *MockOrderService) MarkShipped(ctx context.Context, id int64) (*order.Order, bool, error) {
	args := m.Called(ctx, id)
	return orderResult(args)
}

func (m *MockOrderService) MarkDelivered(ctx context.Context, id int64) (*order.Order, bool, error) {
	args := m.Called(ctx, id)
	return orderResult(args)
}

func orderResult(args mock.Arguments) (*order.Order, bool, error) {
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*order.Order), args.Bool(1), args.Error(2)
}

func (m *MockOrderService) UpdatePaymentStatus(ctx context.Context, id int64, status order.PaymentStatus) (*order.Order, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) UpdateItemQuantity(ctx context.Context, orderID, itemID int64, quantity int) (*order.Order, error) {
	args := m.Called(ctx, orderID, itemID, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) TotalQuantityForProduct(ctx context.Context, productID int64) (int, error) {
	args := m.Called(ctx, productID)
	return args.Int(0), args.Error(1)
}

type MockSettingsService struct {
	mock.Mock
}

func (m *MockSettingsService) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockSettingsService) Set(ctx context.Context, key, value string) (*settings.Setting, error) {
	args := m.Called(ctx, key, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settings.Setting), args.Error(1)
}

func newFormatter(t *testing.T) *money.Formatter {
	t.Helper()
	f, err := money.NewFormatter("en", "$")
	require.NoError(t, err)
	return f
}

type routeRegistrar interface {
	RegisterRoutes(router chi.Router)
}

func newRouter(h routeRegistrar) chi.Router {
	router := chi.NewRouter()
	h.RegisterRoutes(router)
	return router
}
