package promotion

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidWindow        = errors.New("promotion end must not be before its start")
	ErrInvalidDiscountType  = errors.New("unknown discount type")
	ErrInvalidDiscountValue = errors.New("invalid discount value")
	ErrNameRequired         = errors.New("promotion name is required")
)

// PriceRecalculator recomputes stored final prices. The service calls it
// after every mutation that can change which discount a product gets.
type PriceRecalculator interface {
	RecalculateProducts(ctx context.Context, productIDs []int64) error
	RecalculateForPromotion(ctx context.Context, promotionID int64) error
}

type Service interface {
	CreatePromotion(ctx context.Context, p *Promotion) (*Promotion, error)
	GetPromotion(ctx context.Context, id int64) (*Promotion, error)
	UpdatePromotion(ctx context.Context, p *Promotion) (*Promotion, error)
	DeletePromotion(ctx context.Context, id int64) error
	AttachProduct(ctx context.Context, promotionID, productID int64) error
	DetachProduct(ctx context.Context, promotionID, productID int64) error
}

type service struct {
	repo   Repository
	prices PriceRecalculator
}

func NewService(repo Repository, prices PriceRecalculator) Service {
	return &service{
		repo:   repo,
		prices: prices,
	}
}

func validate(p *Promotion) error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrNameRequired
	}
	if p.EndsAt.Before(p.StartsAt) {
		return ErrInvalidWindow
	}

	switch p.DiscountType {
	case DiscountPercentage:
		if p.DiscountValue < 0 || p.DiscountValue > 100 {
			return fmt.Errorf("%w: percentage must be between 0 and 100, got %d", ErrInvalidDiscountValue, p.DiscountValue)
		}
	case DiscountFixed:
		if p.DiscountValue < 0 {
			return fmt.Errorf("%w: fixed amount cannot be negative, got %d", ErrInvalidDiscountValue, p.DiscountValue)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidDiscountType, p.DiscountType)
	}

	return nil
}

func (s *service) CreatePromotion(ctx context.Context, p *Promotion) (*Promotion, error) {
	if err := validate(p); err != nil {
		return nil, err
	}

	p.ID = 0
	if _, err := s.repo.Create(ctx, p); err != nil {
		log.Error().Err(err).Msg("service: failed to create promotion in repository")
		return nil, fmt.Errorf("service: failed to create promotion: %w", err)
	}

	log.Info().Int64("promotion_id", p.ID).Str("discount_type", p.DiscountType.String()).Msg("service: promotion created")
	return p, nil
}

func (s *service) GetPromotion(ctx context.Context, id int64) (*Promotion, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrPromotionNotFound) {
			log.Warn().Int64("promotion_id", id).Msg("service: promotion not found by id")
			return nil, ErrPromotionNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch promotion: %w", err)
	}

	return p, nil
}

func (s *service) UpdatePromotion(ctx context.Context, p *Promotion) (*Promotion, error) {
	if err := validate(p); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, p); err != nil {
		if errors.Is(err, ErrPromotionNotFound) {
			return nil, ErrPromotionNotFound
		}
		log.Error().Err(err).Int64("promotion_id", p.ID).Msg("service: failed to update promotion in repository")
		return nil, fmt.Errorf("service: failed to update promotion: %w", err)
	}

	if err := s.prices.RecalculateForPromotion(ctx, p.ID); err != nil {
		log.Error().Err(err).Int64("promotion_id", p.ID).Msg("service: failed to recalculate final prices")
		return nil, fmt.Errorf("service: failed to recalculate final prices: %w", err)
	}

	return p, nil
}

func (s *service) DeletePromotion(ctx context.Context, id int64) error {
	// The association rows go away with the promotion, so collect them first.
	productIDs, err := s.repo.ProductIDs(ctx, id)
	if err != nil {
		return fmt.Errorf("service: failed to list products of promotion: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrPromotionNotFound) {
			return ErrPromotionNotFound
		}
		log.Error().Err(err).Int64("promotion_id", id).Msg("service: failed to delete promotion in repository")
		return fmt.Errorf("service: failed to delete promotion: %w", err)
	}

	if err := s.recalculate(ctx, id, productIDs); err != nil {
		return err
	}

	log.Info().Int64("promotion_id", id).Int("products", len(productIDs)).Msg("service: promotion deleted")
	return nil
}

func (s *service) AttachProduct(ctx context.Context, promotionID, productID int64) error {
	if err := s.repo.Attach(ctx, promotionID, productID); err != nil {
		if errors.Is(err, ErrPromotionNotFound) || errors.Is(err, ErrProductNotFound) {
			return err
		}
		return fmt.Errorf("service: failed to attach product: %w", err)
	}

	return s.recalculate(ctx, promotionID, []int64{productID})
}

func (s *service) DetachProduct(ctx context.Context, promotionID, productID int64) error {
	if err := s.repo.Detach(ctx, promotionID, productID); err != nil {
		if errors.Is(err, ErrNotAttached) {
			log.Warn().Int64("promotion_id", promotionID).Int64("product_id", productID).Msg("service: detach of a product that is not attached")
			return ErrNotAttached
		}
		return fmt.Errorf("service: failed to detach product: %w", err)
	}

	return s.recalculate(ctx, promotionID, []int64{productID})
}

func (s *service) recalculate(ctx context.Context, promotionID int64, productIDs []int64) error {
	if len(productIDs) == 0 {
		return nil
	}

	if err := s.prices.RecalculateProducts(ctx, productIDs); err != nil {
		log.Error().Err(err).Int64("promotion_id", promotionID).Ints64("product_ids", productIDs).Msg("service: failed to recalculate final prices")
		return fmt.Errorf("service: failed to recalculate final prices: %w", err)
	}

	return nil
}
