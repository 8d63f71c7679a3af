package order_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/shop-admin/internal/catalog"
	"github.com/vasiliy-maslov/shop-admin/internal/order"
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

	connectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var err error
	testDB, err = pgxpool.New(connectCtx, connStr)
	if err != nil {
		log.Fatal().Err(err).Str("db_host", dbHost).Msg("Failed to connect to test database")
	}
	if err = testDB.Ping(connectCtx); err != nil {
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
		_, err := testDB.Exec(context.Background(), "TRUNCATE TABLE orders, products RESTART IDENTITY CASCADE")
		require.NoError(t, err, "failed to truncate orders and products tables")
	})
	return testDB
}

func seedProduct(t *testing.T, db *pgxpool.Pool, sku string, price int64) int64 {
	t.Helper()
	id, err := catalog.NewRepository(db).Create(context.Background(), &catalog.Product{
		Name: "Product " + sku, SKU: sku, Price: price, StockQuantity: 10, TrackQuantity: true,
	})
	require.NoError(t, err)
	return id
}

func newPersistableOrder(t *testing.T, items ...order.OrderItem) *order.Order {
	t.Helper()
	o := &order.Order{
		Status:          order.StatusPending,
		PaymentStatus:   order.PaymentPending,
		Items:           items,
		ShippingAmount:  300,
		ShippingAddress: &order.Address{FullName: "Ivan Petrov", Country: "RU", City: "Kazan", Street: "Baumana 1"},
	}
	o.RecalculateTotals()
	return o
}

func TestOrderRepository_CreateAndGet(t *testing.T) {
	db := requireDB(t)
	repo := order.NewRepository(db)
	ctx := context.Background()

	plate := seedProduct(t, db, "PL", 500)
	bowl := seedProduct(t, db, "BW", 1000)
	first, err := order.NewOrderItem(plate, "Plate", "PL", 500, 2)
	require.NoError(t, err)
	second, err := order.NewOrderItem(bowl, "Bowl", "BW", 1000, 1)
	require.NoError(t, err)

	o := newPersistableOrder(t, first, second)
	id, err := repo.CreateOrder(ctx, o)
	require.NoError(t, err)
	require.NotZero(t, id)
	assert.NotEmpty(t, o.OrderNumber)

	got, err := repo.GetOrderByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, o.OrderNumber, got.OrderNumber)
	assert.Equal(t, order.StatusPending, got.Status)
	assert.Equal(t, int64(2300), got.TotalAmount)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "PL", got.Items[0].ProductSKU)
	assert.Equal(t, int64(1000), got.Items[0].TotalPrice)
	require.NotNil(t, got.ShippingAddress)
	assert.Equal(t, "Kazan", got.ShippingAddress.City)
	assert.Nil(t, got.BillingAddress)

	_, err = repo.GetOrderByID(ctx, id+1000)
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestOrderRepository_CreateWithUnknownProductRollsBack(t *testing.T) {
	db := requireDB(t)
	repo := order.NewRepository(db)
	ctx := context.Background()

	item, err := order.NewOrderItem(424242, "Ghost", "GH", 100, 1)
	require.NoError(t, err)

	_, err = repo.CreateOrder(ctx, newPersistableOrder(t, item))
	assert.ErrorIs(t, err, order.ErrProductNotFound)

	var count int
	require.NoError(t, db.QueryRow(ctx, "SELECT COUNT(*) FROM orders").Scan(&count))
	assert.Zero(t, count, "order row is rolled back with its items")
}

func TestOrderRepository_UpdateStatusCAS(t *testing.T) {
	db := requireDB(t)
	repo := order.NewRepository(db)
	ctx := context.Background()

	item, err := order.NewOrderItem(seedProduct(t, db, "PL", 500), "Plate", "PL", 500, 1)
	require.NoError(t, err)
	o := newPersistableOrder(t, item)
	_, err = repo.CreateOrder(ctx, o)
	require.NoError(t, err)

	require.True(t, o.MarkShipped(time.Now().UTC()))
	require.NoError(t, repo.UpdateStatus(ctx, o, order.StatusPending))

	stale := *o
	stale.Status = order.StatusCancelled
	assert.ErrorIs(t, repo.UpdateStatus(ctx, &stale, order.StatusPending), order.ErrStatusConflict)

	got, err := repo.GetOrderByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusShipped, got.Status)
	assert.NotNil(t, got.ShippedAt)

	missing := &order.Order{ID: o.ID + 1000, Status: order.StatusCancelled}
	assert.ErrorIs(t, repo.UpdateStatus(ctx, missing, order.StatusPending), order.ErrOrderNotFound)
}

func TestOrderRepository_ItemQuantityAndSoldTotals(t *testing.T) {
	db := requireDB(t)
	repo := order.NewRepository(db)
	ctx := context.Background()

	productID := seedProduct(t, db, "PL", 500)
	newOrder := func(qty int) *order.Order {
		item, err := order.NewOrderItem(productID, "Plate", "PL", 500, qty)
		require.NoError(t, err)
		o := newPersistableOrder(t, item)
		_, err = repo.CreateOrder(ctx, o)
		require.NoError(t, err)
		return o
	}

	kept := newOrder(2)
	cancelled := newOrder(5)
	require.True(t, cancelled.Cancel())
	require.NoError(t, repo.UpdateStatus(ctx, cancelled, order.StatusPending))

	item := &kept.Items[0]
	require.NoError(t, item.UpdateQuantity(3))
	kept.RecalculateTotals()
	require.NoError(t, repo.UpdateItemQuantity(ctx, kept, item))

	got, err := repo.GetOrderByID(ctx, kept.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Items[0].Quantity)
	assert.Equal(t, int64(1500), got.Subtotal)
	assert.Equal(t, int64(1800), got.TotalAmount)

	total, err := repo.TotalQuantityForProduct(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, 8, total, "items of cancelled orders still count")

	require.NoError(t, repo.UpdatePaymentStatus(ctx, kept.ID, order.PaymentPaid))
	assert.ErrorIs(t, repo.UpdatePaymentStatus(ctx, kept.ID+1000, order.PaymentPaid), order.ErrOrderNotFound)
}

func TestOrderRepository_UpdateItemQuantity_ConcurrentEdits(t *testing.T) {
	db := requireDB(t)
	repo := order.NewRepository(db)
	ctx := context.Background()

	plate, err := order.NewOrderItem(seedProduct(t, db, "PL", 500), "Plate", "PL", 500, 2)
	require.NoError(t, err)
	bowl, err := order.NewOrderItem(seedProduct(t, db, "BW", 1000), "Bowl", "BW", 1000, 1)
	require.NoError(t, err)
	created := newPersistableOrder(t, plate, bowl)
	_, err = repo.CreateOrder(ctx, created)
	require.NoError(t, err)

	// Both edits start from the same read of the order.
	first, err := repo.GetOrderByID(ctx, created.ID)
	require.NoError(t, err)
	second, err := repo.GetOrderByID(ctx, created.ID)
	require.NoError(t, err)

	edits := []struct {
		o   *order.Order
		idx int
		qty int
	}{
		{o: first, idx: 0, qty: 4},
		{o: second, idx: 1, qty: 3},
	}

	var wg sync.WaitGroup
	for _, e := range edits {
		wg.Add(1)
		go func() {
			defer wg.Done()
			item := &e.o.Items[e.idx]
			if assert.NoError(t, item.UpdateQuantity(e.qty)) {
				e.o.RecalculateTotals()
				assert.NoError(t, repo.UpdateItemQuantity(ctx, e.o, item))
			}
		}()
	}
	wg.Wait()

	got, err := repo.GetOrderByID(ctx, created.ID)
	require.NoError(t, err)

	var lines int64
	for _, item := range got.Items {
		lines += item.TotalPrice
	}
	assert.Equal(t, int64(5000), lines)
	assert.Equal(t, lines, got.Subtotal)
	assert.Equal(t, got.Subtotal+got.ShippingAmount, got.TotalAmount)
}

func TestOrderRepository_UpdateItemQuantity_AfterShipping(t *testing.T) {
	db := requireDB(t)
	repo := order.NewRepository(db)
	ctx := context.Background()

	item, err := order.NewOrderItem(seedProduct(t, db, "PL", 500), "Plate", "PL", 500, 1)
	require.NoError(t, err)
	o := newPersistableOrder(t, item)
	_, err = repo.CreateOrder(ctx, o)
	require.NoError(t, err)

	stale, err := repo.GetOrderByID(ctx, o.ID)
	require.NoError(t, err)

	require.True(t, o.MarkShipped(time.Now().UTC()))
	require.NoError(t, repo.UpdateStatus(ctx, o, order.StatusPending))

	edited := &stale.Items[0]
	require.NoError(t, edited.UpdateQuantity(7))
	assert.ErrorIs(t, repo.UpdateItemQuantity(ctx, stale, edited), order.ErrOrderLocked)

	got, err := repo.GetOrderByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Items[0].Quantity)
}
