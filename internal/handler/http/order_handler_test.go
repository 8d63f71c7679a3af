package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	handler "github.com/vasiliy-maslov/shop-admin/internal/handler/http"
	"github.com/vasiliy-maslov/shop-admin/internal/order"
)

func sampleOrder(status order.OrderStatus) *order.Order {
	o := &order.Order{
		ID:            10,
		OrderNumber:   "ORD-ABC",
		Status:        status,
		PaymentStatus: order.PaymentPending,
		Items: []order.OrderItem{
			{ID: 1, OrderID: 10, ProductID: 1, UnitPrice: 500, Quantity: 2, TotalPrice: 1000},
			{ID: 2, OrderID: 10, ProductID: 2, UnitPrice: 1000, Quantity: 1, TotalPrice: 1000},
		},
	}
	o.RecalculateTotals()
	return o
}

type orderBody struct {
	ID             int64             `json:"id"`
	Status         order.OrderStatus `json:"status"`
	TotalItems     int               `json:"total_items"`
	TotalAmount    int64             `json:"total_amount"`
	CanBeCancelled bool              `json:"can_be_cancelled"`
	IsFinal        bool              `json:"is_final"`
	FormattedTotal string            `json:"formatted_total"`
}

type transitionBody struct {
	OK    bool      `json:"ok"`
	Order orderBody `json:"order"`
}

func TestOrderHandler_handleCreateOrder_Success(t *testing.T) {
	svc := new(MockOrderService)
	router := newRouter(handler.NewOrderHandler(svc, newFormatter(t)))

	svc.On("CreateOrder", mock.Anything, mock.MatchedBy(func(in order.CreateOrderInput) bool {
		return len(in.Items) == 2 && in.Items[0].ProductID == 1 && in.Items[0].Quantity == 2 &&
			in.ShippingAddress != nil && in.ShippingAddress.City == "Kazan" && in.BillingAddress == nil
	})).Return(sampleOrder(order.StatusPending), nil).Once()

	body := `{"items":[{"product_id":1,"quantity":2},{"product_id":2,"quantity":1}],
		"shipping_address":{"full_name":"Ivan Petrov","country":"RU","city":"Kazan","street":"Baumana 1"}}`
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBufferString(body)))
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp orderBody
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, 3, resp.TotalItems)
	assert.Equal(t, int64(2000), resp.TotalAmount)
	assert.True(t, resp.CanBeCancelled)
	assert.False(t, resp.IsFinal)
	assert.Equal(t, "$2,000", resp.FormattedTotal)
	svc.AssertExpectations(t)
}

func TestOrderHandler_handleCreateOrder_Rejected(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		setup    func(svc *MockOrderService)
		wantCode int
	}{
		{name: "no_items", body: `{"items":[]}`, setup: func(*MockOrderService) {}, wantCode: http.StatusBadRequest},
		{name: "zero_quantity", body: `{"items":[{"product_id":1,"quantity":0}]}`, setup: func(*MockOrderService) {}, wantCode: http.StatusBadRequest},
		{name: "negative_tax", body: `{"items":[{"product_id":1,"quantity":1}],"tax_amount":-5}`, setup: func(*MockOrderService) {}, wantCode: http.StatusBadRequest},
		{
			name: "out_of_stock",
			body: `{"items":[{"product_id":1,"quantity":1}]}`,
			setup: func(svc *MockOrderService) {
				svc.On("CreateOrder", mock.Anything, mock.Anything).Return(nil, order.ErrOutOfStock).Once()
			},
			wantCode: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockOrderService)
			tt.setup(svc)
			router := newRouter(handler.NewOrderHandler(svc, newFormatter(t)))

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBufferString(tt.body)))

			assert.Equal(t, tt.wantCode, rr.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestOrderHandler_Transitions(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		method   string
		result   *order.Order
		changed  bool
		err      error
		wantCode int
	}{
		{name: "ship", path: "/orders/10/ship", method: "MarkShipped", result: sampleOrder(order.StatusShipped), changed: true, wantCode: http.StatusOK},
		{name: "process", path: "/orders/10/process", method: "MarkProcessing", result: sampleOrder(order.StatusProcessing), changed: true, wantCode: http.StatusOK},
		{name: "deliver", path: "/orders/10/deliver", method: "MarkDelivered", result: sampleOrder(order.StatusDelivered), changed: true, wantCode: http.StatusOK},
		{name: "cancel_shipped_rejected", path: "/orders/10/cancel", method: "CancelOrder", result: sampleOrder(order.StatusShipped), changed: false, wantCode: http.StatusConflict},
		{name: "concurrent_change", path: "/orders/10/cancel", method: "CancelOrder", err: order.ErrStatusConflict, wantCode: http.StatusConflict},
		{name: "missing_order", path: "/orders/10/ship", method: "MarkShipped", err: order.ErrOrderNotFound, wantCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockOrderService)
			if tt.result != nil {
				svc.On(tt.method, mock.Anything, int64(10)).Return(tt.result, tt.changed, tt.err).Once()
			} else {
				svc.On(tt.method, mock.Anything, int64(10)).Return(nil, false, tt.err).Once()
			}
			router := newRouter(handler.NewOrderHandler(svc, newFormatter(t)))

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, tt.path, nil))
			require.Equal(t, tt.wantCode, rr.Code)

			if tt.err == nil {
				var resp transitionBody
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
				assert.Equal(t, tt.changed, resp.OK)
				assert.Equal(t, tt.result.Status, resp.Order.Status)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestOrderHandler_handleUpdatePaymentStatus(t *testing.T) {
	svc := new(MockOrderService)
	router := newRouter(handler.NewOrderHandler(svc, newFormatter(t)))

	paid := sampleOrder(order.StatusProcessing)
	paid.PaymentStatus = order.PaymentPaid
	svc.On("UpdatePaymentStatus", mock.Anything, int64(10), order.PaymentPaid).Return(paid, nil).Once()

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/orders/10/payment-status", bytes.NewBufferString(`{"payment_status":"paid"}`)))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/orders/10/payment-status", bytes.NewBufferString(`{"payment_status":"stolen"}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	svc.AssertExpectations(t)
}

func TestOrderHandler_handleUpdateItemQuantity(t *testing.T) {
	svc := new(MockOrderService)
	router := newRouter(handler.NewOrderHandler(svc, newFormatter(t)))

	svc.On("UpdateItemQuantity", mock.Anything, int64(10), int64(1), 4).Return(sampleOrder(order.StatusPending), nil).Once()
	svc.On("UpdateItemQuantity", mock.Anything, int64(11), int64(1), 4).Return(nil, order.ErrOrderLocked).Once()

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/orders/10/items/1/quantity", bytes.NewBufferString(`{"quantity":4}`)))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/orders/11/items/1/quantity", bytes.NewBufferString(`{"quantity":4}`)))
	assert.Equal(t, http.StatusConflict, rr.Code)

	svc.AssertExpectations(t)
}
