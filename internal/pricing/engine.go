package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/shop-admin/internal/catalog"
	"github.com/vasiliy-maslov/shop-admin/internal/promotion"
	"golang.org/x/sync/errgroup"
)

type ProductStore interface {
	GetByID(ctx context.Context, id int64) (*catalog.Product, error)
	UpdateFinalPrice(ctx context.Context, id int64, expectedPrice, finalPrice int64) error
}

type PromotionSource interface {
	ListByProduct(ctx context.Context, productID int64) ([]promotion.Promotion, error)
	ProductIDs(ctx context.Context, promotionID int64) ([]int64, error)
}

const (
	defaultConcurrency = 4
	// maxPriceAttempts bounds reloads when the base price keeps moving under
	// a recompute.
	maxPriceAttempts = 3
)

// Engine owns the stored final price of every product.
type Engine struct {
	products    ProductStore
	promotions  PromotionSource
	now         func() time.Time
	concurrency int
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithConcurrency bounds how many products RecalculateProducts updates at once.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

func NewEngine(products ProductStore, promotions PromotionSource, opts ...Option) *Engine {
	e := &Engine{
		products:    products,
		promotions:  promotions,
		now:         time.Now,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CalculateFinalPrice returns the price a customer pays for p right now.
func (e *Engine) CalculateFinalPrice(ctx context.Context, p *catalog.Product) (int64, error) {
	promotions, err := e.promotions.ListByProduct(ctx, p.ID)
	if err != nil {
		return 0, fmt.Errorf("pricing: failed to list promotions of product %d: %w", p.ID, err)
	}

	now := e.now()
	active, ok := promotion.ActiveForProduct(promotions, p.Price, now)
	if !ok {
		return p.Price, nil
	}

	return p.Price - promotion.CalculateDiscount(active, p.Price, now), nil
}

// UpdateProductFinalPrice recomputes and stores the final price of one product.
// The write only lands if the base price is still the one the final price was
// computed from; otherwise the product is reloaded and priced again.
func (e *Engine) UpdateProductFinalPrice(ctx context.Context, productID int64) (*catalog.Product, error) {
	for attempt := 1; ; attempt++ {
		p, err := e.products.GetByID(ctx, productID)
		if err != nil {
			if errors.Is(err, catalog.ErrProductNotFound) {
				return nil, catalog.ErrProductNotFound
			}
			return nil, fmt.Errorf("pricing: failed to load product %d: %w", productID, err)
		}

		finalPrice, err := e.CalculateFinalPrice(ctx, p)
		if err != nil {
			return nil, err
		}

		if finalPrice == p.FinalPrice {
			return p, nil
		}

		err = e.products.UpdateFinalPrice(ctx, productID, p.Price, finalPrice)
		switch {
		case err == nil:
			log.Info().Int64("product_id", productID).Int64("old_final_price", p.FinalPrice).Int64("final_price", finalPrice).Msg("pricing: final price updated")
			p.FinalPrice = finalPrice
			return p, nil
		case errors.Is(err, catalog.ErrProductNotFound):
			return nil, catalog.ErrProductNotFound
		case errors.Is(err, catalog.ErrPriceChanged) && attempt < maxPriceAttempts:
			log.Debug().Int64("product_id", productID).Int("attempt", attempt).Msg("pricing: base price moved, repricing")
			continue
		default:
			return nil, fmt.Errorf("pricing: failed to store final price of product %d: %w", productID, err)
		}
	}
}

// RecalculateProducts updates every listed product. Products deleted in the
// meantime are skipped.
func (e *Engine) RecalculateProducts(ctx context.Context, productIDs []int64) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for _, id := range productIDs {
		g.Go(func() error {
			_, err := e.UpdateProductFinalPrice(ctx, id)
			if errors.Is(err, catalog.ErrProductNotFound) {
				log.Warn().Int64("product_id", id).Msg("pricing: product vanished before recalculation")
				return nil
			}
			return err
		})
	}

	return g.Wait()
}

// RecalculateForPromotion updates every product attached to the promotion.
func (e *Engine) RecalculateForPromotion(ctx context.Context, promotionID int64) error {
	ids, err := e.promotions.ProductIDs(ctx, promotionID)
	if err != nil {
		return fmt.Errorf("pricing: failed to list products of promotion %d: %w", promotionID, err)
	}
	return e.RecalculateProducts(ctx, ids)
}

// DiscountPercent is the badge percentage derived from the compare price.
// It is unrelated to promotions.
func DiscountPercent(p *catalog.Product) int64 {
	if p.ComparePrice == nil || *p.ComparePrice <= p.Price || *p.ComparePrice <= 0 {
		return 0
	}

	compare := decimal.NewFromInt(*p.ComparePrice)
	return compare.Sub(decimal.NewFromInt(p.Price)).
		Div(compare).
		Mul(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
}
