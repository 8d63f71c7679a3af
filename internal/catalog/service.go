package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidAmount  = errors.New("amount must be greater than zero")
	ErrInvalidPrice   = errors.New("price cannot be negative")
	ErrInvalidStock   = errors.New("stock quantity cannot be negative")
	ErrInvalidProduct = errors.New("product name and sku are required")
)

// FinalPriceUpdater recomputes and stores a product's final price.
type FinalPriceUpdater interface {
	UpdateProductFinalPrice(ctx context.Context, productID int64) (*Product, error)
}

type Service interface {
	// CreateProduct stores a new product. Its final price starts at its price.
	CreateProduct(ctx context.Context, p *Product) (*Product, error)
	GetProduct(ctx context.Context, id int64) (*Product, error)
	IncrementStock(ctx context.Context, id int64, amount int) (*Product, error)
	DecrementStock(ctx context.Context, id int64, amount int) (*Product, error)
	ChangePrice(ctx context.Context, id int64, price int64, comparePrice *int64) (*Product, error)
	StockStatus(p *Product) StockStatus
}

type service struct {
	repo    Repository
	pricing FinalPriceUpdater
	policy  StockPolicy
}

func NewService(repo Repository, pricing FinalPriceUpdater, policy StockPolicy) Service {
	return &service{
		repo:    repo,
		pricing: pricing,
		policy:  policy,
	}
}

func (s *service) CreateProduct(ctx context.Context, p *Product) (*Product, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.SKU = strings.TrimSpace(p.SKU)
	switch {
	case p.Name == "" || p.SKU == "":
		return nil, ErrInvalidProduct
	case p.Price < 0 || (p.ComparePrice != nil && *p.ComparePrice < 0):
		return nil, ErrInvalidPrice
	case p.StockQuantity < 0:
		return nil, ErrInvalidStock
	}

	if _, err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, ErrSKUExists) {
			log.Warn().Str("sku", p.SKU).Msg("service: attempt to create product with taken sku")
			return nil, ErrSKUExists
		}
		log.Error().Err(err).Str("sku", p.SKU).Msg("service: failed to create product")
		return nil, fmt.Errorf("service: failed to create product: %w", err)
	}

	log.Info().Int64("product_id", p.ID).Str("sku", p.SKU).Msg("service: product created")
	return p, nil
}

func (s *service) GetProduct(ctx context.Context, id int64) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			log.Warn().Int64("product_id", id).Msg("service: product not found by id")
			return nil, ErrProductNotFound
		}
		log.Error().Err(err).Int64("product_id", id).Msg("service: failed to fetch product")
		return nil, fmt.Errorf("service: failed to fetch product: %w", err)
	}

	return p, nil
}

func (s *service) IncrementStock(ctx context.Context, id int64, amount int) (*Product, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	p, err := s.repo.IncrementStock(ctx, id, amount)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		log.Error().Err(err).Int64("product_id", id).Int("amount", amount).Msg("service: failed to increment stock")
		return nil, fmt.Errorf("service: failed to increment stock: %w", err)
	}

	log.Info().Int64("product_id", id).Int("amount", amount).Int("stock_quantity", p.StockQuantity).Msg("service: stock incremented")
	return p, nil
}

func (s *service) DecrementStock(ctx context.Context, id int64, amount int) (*Product, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	p, err := s.repo.DecrementStock(ctx, id, amount)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		log.Error().Err(err).Int64("product_id", id).Int("amount", amount).Msg("service: failed to decrement stock")
		return nil, fmt.Errorf("service: failed to decrement stock: %w", err)
	}

	log.Info().Int64("product_id", id).Int("amount", amount).Int("stock_quantity", p.StockQuantity).Msg("service: stock decremented")
	return p, nil
}

// ChangePrice stores the new base price and recomputes the final price.
func (s *service) ChangePrice(ctx context.Context, id int64, price int64, comparePrice *int64) (*Product, error) {
	if price < 0 || (comparePrice != nil && *comparePrice < 0) {
		return nil, ErrInvalidPrice
	}

	if err := s.repo.UpdatePrice(ctx, id, price, comparePrice); err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		log.Error().Err(err).Int64("product_id", id).Msg("service: failed to update price")
		return nil, fmt.Errorf("service: failed to update price: %w", err)
	}

	p, err := s.pricing.UpdateProductFinalPrice(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service: failed to recompute final price: %w", err)
	}

	return p, nil
}

func (s *service) StockStatus(p *Product) StockStatus {
	return s.policy.Status(p)
}
