package promotion_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/shop-admin/internal/promotion"
)

var testDB *pgxpool.Pool

func TestMain(m *testing.M) {
	dbHost := os.Getenv("DB_HOST_TEST")
	if dbHost == "" {
		os.Exit(m.Run())
	}

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		dbHost, envOr("DB_PORT_TEST", "5432"), envOr("DB_USER_TEST", "postgres"),
		envOr("DB_PASSWORD_TEST", "123456"), envOr("DB_NAME_TEST", "shop_admin_test"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var err error
	testDB, err = pgxpool.New(ctx, connStr)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to test database")
	}
	if err = testDB.Ping(ctx); err != nil {
		testDB.Close()
		log.Fatal().Err(err).Msg("Failed to ping test database")
	}

	exitCode := m.Run()
	testDB.Close()
	os.Exit(exitCode)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func requireDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testDB == nil {
		t.Skip("DB_HOST_TEST is not set")
	}
	t.Cleanup(func() {
		_, err := testDB.Exec(context.Background(), "TRUNCATE TABLE promotions, products RESTART IDENTITY CASCADE")
		require.NoError(t, err, "failed to truncate promotion tables")
	})
	return testDB
}

func insertProduct(t *testing.T, db *pgxpool.Pool, sku string) int64 {
	t.Helper()
	var id int64
	err := db.QueryRow(context.Background(),
		`INSERT INTO products (name, sku, price, final_price) VALUES ($1, $1, 1000, 1000) RETURNING id`, sku).Scan(&id)
	require.NoError(t, err)
	return id
}

func TestPromotionRepository_Lifecycle(t *testing.T) {
	db := requireDB(t)
	repo := promotion.NewRepository(db)
	ctx := context.Background()

	p := newPromotionInput(promotion.DiscountPercentage, 20)
	id, err := repo.Create(ctx, p)
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, promotion.DiscountPercentage, got.DiscountType)
	assert.True(t, got.StartsAt.Equal(p.StartsAt))

	got.DiscountValue = 25
	got.CreatedAt = time.Time{}
	require.NoError(t, repo.Update(ctx, got))
	assert.False(t, got.CreatedAt.IsZero(), "update returns the stored created_at")
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt))

	productA := insertProduct(t, db, "A")
	productB := insertProduct(t, db, "B")
	require.NoError(t, repo.Attach(ctx, id, productA))
	require.NoError(t, repo.Attach(ctx, id, productB))
	require.NoError(t, repo.Attach(ctx, id, productB), "attach is idempotent")

	ids, err := repo.ProductIDs(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []int64{productA, productB}, ids)

	list, err := repo.ListByProduct(ctx, productA)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(25), list[0].DiscountValue)

	require.NoError(t, repo.Detach(ctx, id, productA))
	list, err = repo.ListByProduct(ctx, productA)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.ErrorIs(t, repo.Detach(ctx, id, productA), promotion.ErrNotAttached)

	assert.ErrorIs(t, repo.Attach(ctx, id, productB+100), promotion.ErrProductNotFound)
	assert.ErrorIs(t, repo.Attach(ctx, id+100, productA), promotion.ErrPromotionNotFound)

	require.NoError(t, repo.Delete(ctx, id))
	_, err = repo.GetByID(ctx, id)
	assert.ErrorIs(t, err, promotion.ErrPromotionNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, id), promotion.ErrPromotionNotFound)
}
