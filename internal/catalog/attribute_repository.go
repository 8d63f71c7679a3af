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
	ErrAttributeNotFound = errors.New("attribute not found")
	ErrAttributeExists   = errors.New("attribute with this name already exists")
)

type AttributeRepository interface {
	CreateAttribute(ctx context.Context, a *ProductAttribute) (int64, error)
	GetAttribute(ctx context.Context, id int64) (*ProductAttribute, error)
	// SetProductValues replaces every attribute value of the product.
	SetProductValues(ctx context.Context, productID int64, values map[int64]string) error
	ProductValues(ctx context.Context, productID int64) ([]AttributeValue, error)
}

type postgresAttributeRepository struct {
	db *pgxpool.Pool
}

func NewAttributeRepository(db *pgxpool.Pool) AttributeRepository {
	return &postgresAttributeRepository{db: db}
}

func scanAttribute(row pgx.Row) (*ProductAttribute, error) {
	var (
		a         ProductAttribute
		kind      string
		options   []string
		maxLength int
		unit      string
	)
	if err := row.Scan(&a.ID, &a.Name, &kind, &options, &maxLength, &unit); err != nil {
		return nil, err
	}

	t, err := NewAttributeType(kind, options, maxLength, unit)
	if err != nil {
		return nil, fmt.Errorf("attribute %d has a broken definition: %w", a.ID, err)
	}
	a.Type = t
	return &a, nil
}

func (r *postgresAttributeRepository) CreateAttribute(ctx context.Context, a *ProductAttribute) (int64, error) {
	options, maxLength, unit := AttributeSettings(a.Type)
	if options == nil {
		options = []string{}
	}

	query := `
		INSERT INTO attributes (name, kind, options, max_length, unit)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query, a.Name, string(a.Type.Kind()), options, maxLength, unit).Scan(&a.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, ErrAttributeExists
		}
		return 0, fmt.Errorf("repository: failed to insert attribute: %w", err)
	}

	return a.ID, nil
}

func (r *postgresAttributeRepository) GetAttribute(ctx context.Context, id int64) (*ProductAttribute, error) {
	query := `SELECT id, name, kind, options, max_length, unit FROM attributes WHERE id = $1`

	a, err := scanAttribute(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAttributeNotFound
		}
		return nil, fmt.Errorf("repository: failed to select attribute by id %d: %w", id, err)
	}

	return a, nil
}

func (r *postgresAttributeRepository) SetProductValues(ctx context.Context, productID int64, values map[int64]string) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}

	defer func() {
		if rec := recover(); rec != nil {
			_ = tx.Rollback(ctx)
			panic(rec)
		}
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Int64("product_id", productID).Msg("repository: failed to rollback attribute values")
			}
			return
		}
		if err = tx.Commit(ctx); err != nil {
			err = fmt.Errorf("repository: failed to commit attribute values: %w", err)
		}
	}()

	var locked int64
	if err = tx.QueryRow(ctx, `SELECT id FROM products WHERE id = $1 FOR UPDATE`, productID).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrProductNotFound
		}
		return fmt.Errorf("repository: failed to lock product %d: %w", productID, err)
	}

	if _, err = tx.Exec(ctx, `DELETE FROM product_attributes WHERE product_id = $1`, productID); err != nil {
		return fmt.Errorf("repository: failed to clear attribute values of product %d: %w", productID, err)
	}

	if len(values) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for attributeID, value := range values {
		batch.Queue(`INSERT INTO product_attributes (product_id, attribute_id, value) VALUES ($1, $2, $3)`,
			productID, attributeID, value)
	}
	if err = tx.SendBatch(ctx, batch).Close(); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return ErrAttributeNotFound
		}
		return fmt.Errorf("repository: failed to insert attribute values of product %d: %w", productID, err)
	}

	return nil
}

func (r *postgresAttributeRepository) ProductValues(ctx context.Context, productID int64) ([]AttributeValue, error) {
	query := `
		SELECT a.id, a.name, a.kind, a.options, a.max_length, a.unit, pa.value
		FROM product_attributes pa
		JOIN attributes a ON a.id = pa.attribute_id
		WHERE pa.product_id = $1
		ORDER BY a.name
	`

	rows, err := r.db.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query attribute values of product %d: %w", productID, err)
	}

	values, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (AttributeValue, error) {
		var (
			v         AttributeValue
			kind      string
			options   []string
			maxLength int
			unit      string
		)
		if err := row.Scan(&v.Attribute.ID, &v.Attribute.Name, &kind, &options, &maxLength, &unit, &v.Value); err != nil {
			return v, err
		}
		t, err := NewAttributeType(kind, options, maxLength, unit)
		if err != nil {
			return v, fmt.Errorf("attribute %d has a broken definition: %w", v.Attribute.ID, err)
		}
		v.Attribute.Type = t
		return v, nil
	})
	if err != nil {
		return nil, fmt.Errorf("repository: failed to scan attribute values of product %d: %w", productID, err)
	}

	return values, nil
}
