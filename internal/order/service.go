package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/shop-admin/internal/catalog"
)

var (
	ErrEmptyOrder           = errors.New("order must contain at least one item")
	ErrOutOfStock           = errors.New("product is out of stock")
	ErrNegativeAmount       = errors.New("order amounts cannot be negative")
	ErrInvalidPaymentStatus = errors.New("invalid payment status")
	// ErrOrderLocked is returned when items of a shipped, delivered or
	// cancelled order are edited.
	ErrOrderLocked = errors.New("order items can no longer be changed")
)

// ProductPricer returns the product with its final price brought up to date,
// so promotions that started or expired since the last recompute are honoured.
type ProductPricer interface {
	UpdateProductFinalPrice(ctx context.Context, productID int64) (*catalog.Product, error)
}

type ItemInput struct {
	ProductID int64
	Quantity  int
}

type CreateOrderInput struct {
	Items           []ItemInput
	TaxAmount       int64
	ShippingAmount  int64
	DiscountAmount  int64
	BillingAddress  *Address
	ShippingAddress *Address
}

type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*Order, error)
	GetOrderByID(ctx context.Context, id int64) (*Order, error)
	// MarkProcessing, CancelOrder, MarkShipped and MarkDelivered return the
	// order in its current state and false when the transition is not allowed.
	MarkProcessing(ctx context.Context, id int64) (*Order, bool, error)
	CancelOrder(ctx context.Context, id int64) (*Order, bool, error)
	MarkShipped(ctx context.Context, id int64) (*Order, bool, error)
	MarkDelivered(ctx context.Context, id int64) (*Order, bool, error)
	UpdatePaymentStatus(ctx context.Context, id int64, status PaymentStatus) (*Order, error)
	UpdateItemQuantity(ctx context.Context, orderID, itemID int64, quantity int) (*Order, error)
	TotalQuantityForProduct(ctx context.Context, productID int64) (int, error)
}

type service struct {
	orderRepo Repository
	products  ProductPricer
	now       func() time.Time
}

func NewService(orderRepo Repository, products ProductPricer) Service {
	return &service{
		orderRepo: orderRepo,
		products:  products,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*Order, error) {
	if len(input.Items) == 0 {
		log.Warn().Msg("service: attempt to create order with no items")
		return nil, ErrEmptyOrder
	}
	if input.TaxAmount < 0 || input.ShippingAmount < 0 || input.DiscountAmount < 0 {
		return nil, ErrNegativeAmount
	}

	o := &Order{
		Status:          StatusPending,
		PaymentStatus:   PaymentPending,
		Items:           make([]OrderItem, 0, len(input.Items)),
		TaxAmount:       input.TaxAmount,
		ShippingAmount:  input.ShippingAmount,
		DiscountAmount:  input.DiscountAmount,
		BillingAddress:  input.BillingAddress,
		ShippingAddress: input.ShippingAddress,
	}

	for _, in := range input.Items {
		p, err := s.products.UpdateProductFinalPrice(ctx, in.ProductID)
		if err != nil {
			if errors.Is(err, catalog.ErrProductNotFound) {
				log.Warn().Int64("product_id", in.ProductID).Msg("service: order references unknown product")
				return nil, fmt.Errorf("%w: %d", ErrProductNotFound, in.ProductID)
			}
			return nil, fmt.Errorf("service: failed to load product %d: %w", in.ProductID, err)
		}

		if !p.IsInStock() {
			log.Warn().Int64("product_id", p.ID).Msg("service: product out of stock")
			return nil, fmt.Errorf("%w: %s", ErrOutOfStock, p.SKU)
		}

		item, err := NewOrderItem(p.ID, p.Name, p.SKU, p.FinalPrice, in.Quantity)
		if err != nil {
			return nil, err
		}
		o.Items = append(o.Items, item)
	}

	o.RecalculateTotals()

	if _, err := s.orderRepo.CreateOrder(ctx, o); err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, err
		}
		log.Error().Err(err).Msg("service: failed to create order in repository")
		return nil, fmt.Errorf("service: failed to create order: %w", err)
	}

	log.Info().Int64("order_id", o.ID).Str("order_number", o.OrderNumber).Int64("total_amount", o.TotalAmount).Msg("service: order created")
	return o, nil
}

func (s *service) GetOrderByID(ctx context.Context, id int64) (*Order, error) {
	o, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			log.Warn().Int64("order_id", id).Msg("service: order not found by id")
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Int64("order_id", id).Msg("service: failed to fetch order by id")
		return nil, fmt.Errorf("service: failed to fetch order by id: %w", err)
	}

	return o, nil
}

func (s *service) MarkProcessing(ctx context.Context, id int64) (*Order, bool, error) {
	return s.transition(ctx, id, StatusProcessing, func(o *Order) bool {
		return o.MarkProcessing()
	})
}

func (s *service) CancelOrder(ctx context.Context, id int64) (*Order, bool, error) {
	return s.transition(ctx, id, StatusCancelled, func(o *Order) bool {
		return o.Cancel()
	})
}

func (s *service) MarkShipped(ctx context.Context, id int64) (*Order, bool, error) {
	return s.transition(ctx, id, StatusShipped, func(o *Order) bool {
		return o.MarkShipped(s.now())
	})
}

func (s *service) MarkDelivered(ctx context.Context, id int64) (*Order, bool, error) {
	return s.transition(ctx, id, StatusDelivered, func(o *Order) bool {
		return o.MarkDelivered(s.now())
	})
}

func (s *service) transition(ctx context.Context, id int64, target OrderStatus, apply func(*Order) bool) (*Order, bool, error) {
	o, err := s.GetOrderByID(ctx, id)
	if err != nil {
		return nil, false, err
	}

	current := o.Status
	if !apply(o) {
		log.Warn().
			Int64("order_id", id).
			Stringer("current_status", current).
			Stringer("new_status", target).
			Msg("service: invalid status transition attempt")
		return o, false, nil
	}

	if err := s.orderRepo.UpdateStatus(ctx, o, current); err != nil {
		switch {
		case errors.Is(err, ErrOrderNotFound):
			return nil, false, ErrOrderNotFound
		case errors.Is(err, ErrStatusConflict):
			return nil, false, ErrStatusConflict
		}
		log.Error().Err(err).Int64("order_id", id).Stringer("new_status", target).Msg("service: failed to update order status in repository")
		return nil, false, fmt.Errorf("service: failed to update order status: %w", err)
	}

	log.Info().Int64("order_id", id).Stringer("old_status", current).Stringer("new_status", target).Msg("service: order status updated")
	return o, true, nil
}

// UpdatePaymentStatus changes only the payment status; the order status is
// left as it is.
func (s *service) UpdatePaymentStatus(ctx context.Context, id int64, status PaymentStatus) (*Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPaymentStatus, status)
	}

	if err := s.orderRepo.UpdatePaymentStatus(ctx, id, status); err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Int64("order_id", id).Stringer("payment_status", status).Msg("service: failed to update payment status")
		return nil, fmt.Errorf("service: failed to update payment status: %w", err)
	}

	log.Info().Int64("order_id", id).Stringer("payment_status", status).Msg("service: payment status updated")
	return s.GetOrderByID(ctx, id)
}

func (s *service) UpdateItemQuantity(ctx context.Context, orderID, itemID int64, quantity int) (*Order, error) {
	o, err := s.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !itemsEditable(o.Status) {
		log.Warn().Int64("order_id", orderID).Stringer("status", o.Status).Msg("service: attempt to edit items of a locked order")
		return nil, ErrOrderLocked
	}

	item, ok := o.item(itemID)
	if !ok {
		return nil, ErrOrderItemNotFound
	}
	if err := item.UpdateQuantity(quantity); err != nil {
		return nil, err
	}
	o.RecalculateTotals()

	if err := s.orderRepo.UpdateItemQuantity(ctx, o, item); err != nil {
		if errors.Is(err, ErrOrderNotFound) || errors.Is(err, ErrOrderItemNotFound) || errors.Is(err, ErrOrderLocked) {
			return nil, err
		}
		log.Error().Err(err).Int64("order_id", orderID).Int64("item_id", itemID).Msg("service: failed to update item quantity")
		return nil, fmt.Errorf("service: failed to update item quantity: %w", err)
	}

	// Other lines may have changed concurrently; the stored order is the truth.
	return s.GetOrderByID(ctx, orderID)
}

func (s *service) TotalQuantityForProduct(ctx context.Context, productID int64) (int, error) {
	total, err := s.orderRepo.TotalQuantityForProduct(ctx, productID)
	if err != nil {
		log.Error().Err(err).Int64("product_id", productID).Msg("service: failed to sum ordered quantity")
		return 0, fmt.Errorf("service: failed to sum ordered quantity: %w", err)
	}
	return total, nil
}
