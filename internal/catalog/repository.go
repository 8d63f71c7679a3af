package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrSKUExists       = errors.New("product with this sku already exists")
	// ErrPriceChanged means the base price moved after the final price was
	// computed from it.
	ErrPriceChanged = errors.New("product price changed concurrently")
)

type Repository interface {
	Create(ctx context.Context, product *Product) (int64, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	UpdatePrice(ctx context.Context, id int64, price int64, comparePrice *int64) error
	// UpdateFinalPrice stores finalPrice only while the base price is still
	// expectedPrice.
	UpdateFinalPrice(ctx context.Context, id int64, expectedPrice, finalPrice int64) error
	// DecrementStock and IncrementStock lock the product row and apply the
	// stock rules of Product to it.
	DecrementStock(ctx context.Context, id int64, amount int) (*Product, error)
	IncrementStock(ctx context.Context, id int64, amount int) (*Product, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

const productColumns = `id, name, sku, price, compare_price, final_price, stock_quantity,
	track_quantity, continue_selling, created_at, updated_at`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.SKU,
		&p.Price,
		&p.ComparePrice,
		&p.FinalPrice,
		&p.StockQuantity,
		&p.TrackQuantity,
		&p.ContinueSelling,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *postgresRepository) Create(ctx context.Context, product *Product) (int64, error) {
	query := `
		INSERT INTO products (name, sku, price, compare_price, final_price, stock_quantity, track_quantity, continue_selling)
		VALUES ($1, $2, $3, $4, $3, $5, $6, $7)
		RETURNING id, final_price, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		product.Name,
		product.SKU,
		product.Price,
		product.ComparePrice,
		product.StockQuantity,
		product.TrackQuantity,
		product.ContinueSelling,
	).Scan(&product.ID, &product.FinalPrice, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, ErrSKUExists
		}
		return 0, fmt.Errorf("repository: failed to insert product: %w", err)
	}

	return product.ID, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	p, err := scanProduct(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("repository: failed to select product by id %d: %w", id, err)
	}

	return p, nil
}

// UpdatePrice also lowers final_price to the new price so a stored final
// price never exceeds its base price while a recompute is pending.
func (r *postgresRepository) UpdatePrice(ctx context.Context, id int64, price int64, comparePrice *int64) error {
	query := `
		UPDATE products
		SET price = $1, compare_price = $2, final_price = LEAST(final_price, $1), updated_at = NOW()
		WHERE id = $3
	`

	cmdTag, err := r.db.Exec(ctx, query, price, comparePrice, id)
	if err != nil {
		return fmt.Errorf("repository: failed to update price of product %d: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrProductNotFound
	}

	return nil
}

func (r *postgresRepository) UpdateFinalPrice(ctx context.Context, id int64, expectedPrice, finalPrice int64) error {
	query := `
		UPDATE products
		SET final_price = $1, updated_at = NOW()
		WHERE id = $2 AND price = $3
	`

	cmdTag, err := r.db.Exec(ctx, query, finalPrice, id, expectedPrice)
	if err != nil {
		log.Error().Err(err).Int64("product_id", id).Msg("repository: failed to update final price")
		return fmt.Errorf("repository: failed to update final price of product %d: %w", id, err)
	}
	if cmdTag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("repository: failed to check product %d: %w", id, err)
	}
	if !exists {
		return ErrProductNotFound
	}
	return ErrPriceChanged
}

func (r *postgresRepository) DecrementStock(ctx context.Context, id int64, amount int) (*Product, error) {
	return r.adjustStock(ctx, id, "decrement", func(p *Product) { p.DecrementStock(amount) })
}

func (r *postgresRepository) IncrementStock(ctx context.Context, id int64, amount int) (*Product, error) {
	return r.adjustStock(ctx, id, "increment", func(p *Product) { p.IncrementStock(amount) })
}

func (r *postgresRepository) adjustStock(ctx context.Context, id int64, op string, apply func(*Product)) (p *Product, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to begin transaction: %w", err)
	}

	defer func() {
		if rec := recover(); rec != nil {
			_ = tx.Rollback(ctx)
			panic(rec)
		}
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Str("op", op).Msg("repository: failed to rollback stock transaction")
			}
			return
		}
		if err = tx.Commit(ctx); err != nil {
			err = fmt.Errorf("repository: failed to commit stock %s: %w", op, err)
		}
	}()

	p, err = scanProduct(tx.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("repository: failed to lock product %d: %w", id, err)
	}

	before := p.StockQuantity
	apply(p)
	if p.StockQuantity == before {
		return p, nil
	}

	err = tx.QueryRow(ctx, `
		UPDATE products
		SET stock_quantity = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING updated_at
	`, p.StockQuantity, id).Scan(&p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to %s stock of product %d: %w", op, id, err)
	}

	return p, nil
}
