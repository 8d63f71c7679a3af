package promotion

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrPromotionNotFound = errors.New("promotion not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrNotAttached       = errors.New("product is not attached to promotion")
)

type Repository interface {
	Create(ctx context.Context, p *Promotion) (int64, error)
	GetByID(ctx context.Context, id int64) (*Promotion, error)
	Update(ctx context.Context, p *Promotion) error
	Delete(ctx context.Context, id int64) error
	Attach(ctx context.Context, promotionID, productID int64) error
	Detach(ctx context.Context, promotionID, productID int64) error
	// ProductIDs lists the products associated with a promotion.
	ProductIDs(ctx context.Context, promotionID int64) ([]int64, error)
	// ListByProduct lists every promotion associated with a product, active or not.
	ListByProduct(ctx context.Context, productID int64) ([]Promotion, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

const promotionColumns = `id, name, starts_at, ends_at, discount_type, discount_value, is_active, created_at, updated_at`

func scanPromotion(row pgx.Row) (*Promotion, error) {
	var p Promotion
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.StartsAt,
		&p.EndsAt,
		&p.DiscountType,
		&p.DiscountValue,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *postgresRepository) Create(ctx context.Context, p *Promotion) (int64, error) {
	query := `
		INSERT INTO promotions (name, starts_at, ends_at, discount_type, discount_value, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		p.Name,
		p.StartsAt,
		p.EndsAt,
		string(p.DiscountType),
		p.DiscountValue,
		p.IsActive,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to insert promotion: %w", err)
	}

	return p.ID, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*Promotion, error) {
	query := `SELECT ` + promotionColumns + ` FROM promotions WHERE id = $1`

	p, err := scanPromotion(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPromotionNotFound
		}
		return nil, fmt.Errorf("repository: failed to select promotion by id %d: %w", id, err)
	}

	return p, nil
}

func (r *postgresRepository) Update(ctx context.Context, p *Promotion) error {
	query := `
		UPDATE promotions
		SET name = $1, starts_at = $2, ends_at = $3, discount_type = $4, discount_value = $5, is_active = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		p.Name,
		p.StartsAt,
		p.EndsAt,
		string(p.DiscountType),
		p.DiscountValue,
		p.IsActive,
		p.ID,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrPromotionNotFound
		}
		return fmt.Errorf("repository: failed to update promotion %d: %w", p.ID, err)
	}

	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id int64) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM promotions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete promotion %d: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrPromotionNotFound
	}

	return nil
}

func (r *postgresRepository) Attach(ctx context.Context, promotionID, productID int64) error {
	query := `
		INSERT INTO promotion_products (promotion_id, product_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`

	_, err := r.db.Exec(ctx, query, promotionID, productID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			if pgErr.ConstraintName == "promotion_products_promotion_id_fkey" {
				return ErrPromotionNotFound
			}
			return ErrProductNotFound
		}
		return fmt.Errorf("repository: failed to attach product %d to promotion %d: %w", productID, promotionID, err)
	}

	return nil
}

func (r *postgresRepository) Detach(ctx context.Context, promotionID, productID int64) error {
	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM promotion_products WHERE promotion_id = $1 AND product_id = $2`,
		promotionID, productID)
	if err != nil {
		return fmt.Errorf("repository: failed to detach product %d from promotion %d: %w", productID, promotionID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotAttached
	}

	return nil
}

func (r *postgresRepository) ProductIDs(ctx context.Context, promotionID int64) ([]int64, error) {
	rows, err := r.db.Query(ctx,
		`SELECT product_id FROM promotion_products WHERE promotion_id = $1 ORDER BY product_id`,
		promotionID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query products of promotion %d: %w", promotionID, err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("repository: failed to scan products of promotion %d: %w", promotionID, err)
	}

	return ids, nil
}

func (r *postgresRepository) ListByProduct(ctx context.Context, productID int64) ([]Promotion, error) {
	query := `
		SELECT p.id, p.name, p.starts_at, p.ends_at, p.discount_type, p.discount_value, p.is_active, p.created_at, p.updated_at
		FROM promotions p
		JOIN promotion_products pp ON pp.promotion_id = p.id
		WHERE pp.product_id = $1
		ORDER BY p.id
	`

	rows, err := r.db.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query promotions of product %d: %w", productID, err)
	}
	defer rows.Close()

	promotions := make([]Promotion, 0)
	for rows.Next() {
		p, err := scanPromotion(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan promotion of product %d: %w", productID, err)
		}
		promotions = append(promotions, *p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating promotions of product %d: %w", productID, err)
	}

	return promotions, nil
}
