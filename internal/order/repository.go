package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderItemNotFound = errors.New("order item not found")
	ErrProductNotFound   = errors.New("product not found")
	// ErrStatusConflict means the order's status changed between read and write.
	ErrStatusConflict = errors.New("order status was changed concurrently")
)

type Repository interface {
	CreateOrder(ctx context.Context, order *Order) (int64, error)
	GetOrderByID(ctx context.Context, id int64) (*Order, error)
	// UpdateStatus writes the status the order already carries, but only if the
	// stored status is still expected.
	UpdateStatus(ctx context.Context, order *Order, expected OrderStatus) error
	UpdatePaymentStatus(ctx context.Context, orderID int64, status PaymentStatus) error
	// UpdateItemQuantity locks the order, checks it still accepts item edits
	// and stores the item quantity. Subtotal and total are recomputed from the
	// stored lines and written back into order.
	UpdateItemQuantity(ctx context.Context, order *Order, item *OrderItem) error
	TotalQuantityForProduct(ctx context.Context, productID int64) (int, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func newOrderNumber() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	return "ORD-" + strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:12]), nil
}

func marshalAddress(a *Address) ([]byte, error) {
	if a == nil {
		return nil, nil
	}
	return json.Marshal(a)
}

func unmarshalAddress(raw []byte) (*Address, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var a Address
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// withTx runs fn in a transaction, committing on success and rolling back on
// error or panic.
func (r *postgresRepository) withTx(ctx context.Context, op string, fn func(pgx.Tx) error) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			log.Error().Interface("panic_value", p).Str("op", op).Msg("repository: panic recovered, rolling back")
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Str("op", op).Msg("repository: failed to rollback transaction after panic")
			}
			panic(p)
		} else if err != nil {
			log.Warn().Err(err).Str("op", op).Msg("repository: transaction failed, rolling back")
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Str("op", op).Msg("repository: failed to rollback transaction")
			}
		} else if commitErr := tx.Commit(ctx); commitErr != nil {
			log.Error().Err(commitErr).Str("op", op).Msg("repository: failed to commit transaction")
			err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
		}
	}()

	return fn(tx)
}

func (r *postgresRepository) CreateOrder(ctx context.Context, order *Order) (int64, error) {
	number, err := newOrderNumber()
	if err != nil {
		return 0, fmt.Errorf("repository: failed to generate order number: %w", err)
	}

	billing, err := marshalAddress(order.BillingAddress)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to encode billing address: %w", err)
	}
	shipping, err := marshalAddress(order.ShippingAddress)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to encode shipping address: %w", err)
	}

	err = r.withTx(ctx, "create_order", func(tx pgx.Tx) error {
		queryOrder := `
			INSERT INTO orders (order_number, status, payment_status, subtotal, tax_amount,
				shipping_amount, discount_amount, total_amount, billing_address, shipping_address)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id, created_at, updated_at
		`
		err := tx.QueryRow(ctx, queryOrder,
			number,
			string(order.Status),
			string(order.PaymentStatus),
			order.Subtotal,
			order.TaxAmount,
			order.ShippingAmount,
			order.DiscountAmount,
			order.TotalAmount,
			billing,
			shipping,
		).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			return fmt.Errorf("repository: failed to insert order: %w", err)
		}

		queryItem := `
			INSERT INTO order_items (order_id, product_id, product_name, product_sku, unit_price, quantity, total_price)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, created_at, updated_at
		`
		for i := range order.Items {
			item := &order.Items[i]
			err := tx.QueryRow(ctx, queryItem,
				order.ID,
				item.ProductID,
				item.ProductName,
				item.ProductSKU,
				item.UnitPrice,
				item.Quantity,
				item.TotalPrice,
			).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
			if err != nil {
				var pgErr *pgconn.PgError
				if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
					return fmt.Errorf("%w: %d", ErrProductNotFound, item.ProductID)
				}
				return fmt.Errorf("repository: failed to insert order item for order %d: %w", order.ID, err)
			}
			item.OrderID = order.ID
		}
		return nil
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, fmt.Errorf("repository: order number %s already taken: %w", number, err)
		}
		return 0, err
	}

	order.OrderNumber = number
	return order.ID, nil
}

func (r *postgresRepository) GetOrderByID(ctx context.Context, id int64) (*Order, error) {
	queryOrder := `
		SELECT id, order_number, status, payment_status, subtotal, tax_amount, shipping_amount,
			discount_amount, total_amount, billing_address, shipping_address, shipped_at,
			delivered_at, created_at, updated_at
		FROM orders
		WHERE id = $1
	`

	var (
		o                 Order
		billing, shipping []byte
	)
	err := r.db.QueryRow(ctx, queryOrder, id).Scan(
		&o.ID,
		&o.OrderNumber,
		&o.Status,
		&o.PaymentStatus,
		&o.Subtotal,
		&o.TaxAmount,
		&o.ShippingAmount,
		&o.DiscountAmount,
		&o.TotalAmount,
		&billing,
		&shipping,
		&o.ShippedAt,
		&o.DeliveredAt,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order by id %d: %w", id, err)
	}

	if o.BillingAddress, err = unmarshalAddress(billing); err != nil {
		return nil, fmt.Errorf("repository: failed to decode billing address of order %d: %w", id, err)
	}
	if o.ShippingAddress, err = unmarshalAddress(shipping); err != nil {
		return nil, fmt.Errorf("repository: failed to decode shipping address of order %d: %w", id, err)
	}

	queryItems := `
		SELECT id, order_id, product_id, product_name, product_sku, unit_price, quantity,
			total_price, created_at, updated_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`
	rows, err := r.db.Query(ctx, queryItems, id)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order items for order id %d: %w", id, err)
	}

	o.Items, err = pgx.CollectRows(rows, pgx.RowToStructByNameLax[OrderItem])
	if err != nil {
		return nil, fmt.Errorf("repository: failed to scan order items for order id %d: %w", id, err)
	}

	return &o, nil
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, order *Order, expected OrderStatus) error {
	query := `
		UPDATE orders
		SET status = $1, shipped_at = $2, delivered_at = $3, updated_at = $4
		WHERE id = $5 AND status = $6
	`

	now := time.Now().UTC()
	cmdTag, err := r.db.Exec(ctx, query,
		string(order.Status),
		order.ShippedAt,
		order.DeliveredAt,
		now,
		order.ID,
		string(expected),
	)
	if err != nil {
		log.Error().Err(err).Int64("order_id", order.ID).Stringer("new_status", order.Status).Msg("repository: failed to update order status")
		return fmt.Errorf("repository: failed to update order status %d: %w", order.ID, err)
	}

	if cmdTag.RowsAffected() == 0 {
		var exists bool
		if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, order.ID).Scan(&exists); err != nil {
			return fmt.Errorf("repository: failed to check order %d: %w", order.ID, err)
		}
		if !exists {
			return ErrOrderNotFound
		}
		log.Warn().Int64("order_id", order.ID).Stringer("expected_status", expected).Msg("repository: order status changed concurrently")
		return ErrStatusConflict
	}

	order.UpdatedAt = now
	return nil
}

func (r *postgresRepository) UpdatePaymentStatus(ctx context.Context, orderID int64, status PaymentStatus) error {
	query := `
		UPDATE orders
		SET payment_status = $1, updated_at = NOW()
		WHERE id = $2
	`

	cmdTag, err := r.db.Exec(ctx, query, string(status), orderID)
	if err != nil {
		return fmt.Errorf("repository: failed to update payment status of order %d: %w", orderID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}

	return nil
}

func (r *postgresRepository) UpdateItemQuantity(ctx context.Context, order *Order, item *OrderItem) error {
	return r.withTx(ctx, "update_item_quantity", func(tx pgx.Tx) error {
		var stored string
		err := tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, order.ID).Scan(&stored)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("repository: failed to lock order %d: %w", order.ID, err)
		}
		if status := OrderStatus(stored); !itemsEditable(status) {
			log.Warn().Int64("order_id", order.ID).Stringer("status", status).Msg("repository: order left editable states before item update")
			return ErrOrderLocked
		}

		cmdTag, err := tx.Exec(ctx, `
			UPDATE order_items
			SET quantity = $1, total_price = unit_price * $1, updated_at = NOW()
			WHERE id = $2 AND order_id = $3
		`, item.Quantity, item.ID, order.ID)
		if err != nil {
			return fmt.Errorf("repository: failed to update order item %d: %w", item.ID, err)
		}
		if cmdTag.RowsAffected() == 0 {
			return ErrOrderItemNotFound
		}

		err = tx.QueryRow(ctx, `
			UPDATE orders o
			SET subtotal = s.subtotal,
			    total_amount = s.subtotal + o.tax_amount + o.shipping_amount - o.discount_amount,
			    updated_at = NOW()
			FROM (SELECT COALESCE(SUM(total_price), 0) AS subtotal FROM order_items WHERE order_id = $1) s
			WHERE o.id = $1
			RETURNING o.subtotal, o.total_amount, o.updated_at
		`, order.ID).Scan(&order.Subtotal, &order.TotalAmount, &order.UpdatedAt)
		if err != nil {
			return fmt.Errorf("repository: failed to update totals of order %d: %w", order.ID, err)
		}
		return nil
	})
}

// TotalQuantityForProduct sums the quantity of the product over all order
// items, whatever the status of their order.
func (r *postgresRepository) TotalQuantityForProduct(ctx context.Context, productID int64) (int, error) {
	query := `SELECT COALESCE(SUM(quantity), 0) FROM order_items WHERE product_id = $1`

	var total int
	if err := r.db.QueryRow(ctx, query, productID).Scan(&total); err != nil {
		return 0, fmt.Errorf("repository: failed to sum quantity of product %d: %w", productID, err)
	}
	return total, nil
}
