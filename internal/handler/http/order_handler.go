package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/vasiliy-maslov/shop-admin/internal/money"
	"github.com/vasiliy-maslov/shop-admin/internal/order"
)

type OrderItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gte=1"`
}

type AddressRequest struct {
	FullName   string `json:"full_name" validate:"required"`
	Phone      string `json:"phone,omitempty"`
	Country    string `json:"country" validate:"required"`
	City       string `json:"city" validate:"required"`
	Street     string `json:"street" validate:"required"`
	PostalCode string `json:"postal_code,omitempty"`
}

func (a *AddressRequest) toAddress() *order.Address {
	if a == nil {
		return nil
	}
	return &order.Address{
		FullName:   a.FullName,
		Phone:      a.Phone,
		Country:    a.Country,
		City:       a.City,
		Street:     a.Street,
		PostalCode: a.PostalCode,
	}
}

type CreateOrderRequest struct {
	Items           []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	TaxAmount       int64              `json:"tax_amount" validate:"gte=0"`
	ShippingAmount  int64              `json:"shipping_amount" validate:"gte=0"`
	DiscountAmount  int64              `json:"discount_amount" validate:"gte=0"`
	BillingAddress  *AddressRequest    `json:"billing_address,omitempty" validate:"omitempty"`
	ShippingAddress *AddressRequest    `json:"shipping_address,omitempty" validate:"omitempty"`
}

type UpdatePaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" validate:"required,oneof=pending paid failed refunded"`
}

type UpdateItemQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,gte=1"`
}

type OrderResponse struct {
	*order.Order
	TotalItems     int    `json:"total_items"`
	CanBeCancelled bool   `json:"can_be_cancelled"`
	IsFinal        bool   `json:"is_final"`
	FormattedTotal string `json:"formatted_total"`
}

// TransitionResponse reports the outcome of a status change. A rejected
// transition is not an error: OK is false and Order shows the unchanged state.
type TransitionResponse struct {
	OK    bool          `json:"ok"`
	Order OrderResponse `json:"order"`
}

type OrderHandler struct {
	service   order.Service
	formatter *money.Formatter
	validate  *validator.Validate
}

func NewOrderHandler(service order.Service, formatter *money.Formatter) *OrderHandler {
	return &OrderHandler{
		service:   service,
		formatter: formatter,
		validate:  validator.New(),
	}
}

func (h *OrderHandler) RegisterRoutes(router chi.Router) {
	router.Post("/orders", h.handleCreateOrder)
	router.Get("/orders/{id}", h.handleGetOrder)
	router.Post("/orders/{id}/process", h.transitionHandler(h.service.MarkProcessing))
	router.Post("/orders/{id}/cancel", h.transitionHandler(h.service.CancelOrder))
	router.Post("/orders/{id}/ship", h.transitionHandler(h.service.MarkShipped))
	router.Post("/orders/{id}/deliver", h.transitionHandler(h.service.MarkDelivered))
	router.Put("/orders/{id}/payment-status", h.handleUpdatePaymentStatus)
	router.Put("/orders/{id}/items/{itemID}/quantity", h.handleUpdateItemQuantity)
}

func (h *OrderHandler) toResponse(o *order.Order) OrderResponse {
	return OrderResponse{
		Order:          o,
		TotalItems:     o.TotalItems(),
		CanBeCancelled: o.CanBeCancelled(),
		IsFinal:        o.IsFinal(),
		FormattedTotal: h.formatter.Format(o.TotalAmount),
	}
}

func (h *OrderHandler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	input := order.CreateOrderInput{
		Items:           make([]order.ItemInput, 0, len(req.Items)),
		TaxAmount:       req.TaxAmount,
		ShippingAmount:  req.ShippingAmount,
		DiscountAmount:  req.DiscountAmount,
		BillingAddress:  req.BillingAddress.toAddress(),
		ShippingAddress: req.ShippingAddress.toAddress(),
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, order.ItemInput{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	created, err := h.service.CreateOrder(r.Context(), input)
	if err != nil {
		respondWithServiceError(w, err, "Failed to create order")
		return
	}

	respondWithJSON(w, http.StatusCreated, h.toResponse(created))
}

func (h *OrderHandler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	o, err := h.service.GetOrderByID(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get order")
		return
	}

	respondWithJSON(w, http.StatusOK, h.toResponse(o))
}

func (h *OrderHandler) transitionHandler(apply func(ctx context.Context, id int64) (*order.Order, bool, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "id")
		if !ok {
			return
		}

		o, changed, err := apply(r.Context(), id)
		if err != nil {
			respondWithServiceError(w, err, "Failed to change order status")
			return
		}

		code := http.StatusOK
		if !changed {
			code = http.StatusConflict
		}
		respondWithJSON(w, code, TransitionResponse{OK: changed, Order: h.toResponse(o)})
	}
}

func (h *OrderHandler) handleUpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var req UpdatePaymentStatusRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	o, err := h.service.UpdatePaymentStatus(r.Context(), id, order.PaymentStatus(req.PaymentStatus))
	if err != nil {
		respondWithServiceError(w, err, "Failed to update payment status")
		return
	}

	respondWithJSON(w, http.StatusOK, h.toResponse(o))
}

func (h *OrderHandler) handleUpdateItemQuantity(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	itemID, ok := parseIDParam(w, r, "itemID")
	if !ok {
		return
	}

	var req UpdateItemQuantityRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	o, err := h.service.UpdateItemQuantity(r.Context(), orderID, itemID, req.Quantity)
	if err != nil {
		respondWithServiceError(w, err, "Failed to update item quantity")
		return
	}

	respondWithJSON(w, http.StatusOK, h.toResponse(o))
}
