package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

type AttributeService interface {
	CreateAttribute(ctx context.Context, name string, t AttributeType) (*ProductAttribute, error)
	// SetProductAttributes validates every value against its attribute type
	// and replaces the product's values only when all of them pass.
	SetProductAttributes(ctx context.Context, productID int64, values map[int64]string) ([]AttributeValue, error)
	ProductAttributes(ctx context.Context, productID int64) ([]AttributeValue, error)
}

type attributeService struct {
	repo AttributeRepository
}

func NewAttributeService(repo AttributeRepository) AttributeService {
	return &attributeService{repo: repo}
}

func (s *attributeService) CreateAttribute(ctx context.Context, name string, t AttributeType) (*ProductAttribute, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrAttributeNameRequired
	}

	a := &ProductAttribute{Name: name, Type: t}
	if _, err := s.repo.CreateAttribute(ctx, a); err != nil {
		if errors.Is(err, ErrAttributeExists) {
			log.Warn().Str("name", name).Msg("service: attribute name already taken")
			return nil, ErrAttributeExists
		}
		log.Error().Err(err).Str("name", name).Msg("service: failed to create attribute")
		return nil, fmt.Errorf("service: failed to create attribute: %w", err)
	}

	log.Info().Int64("attribute_id", a.ID).Str("name", name).Str("kind", string(a.Type.Kind())).Msg("service: attribute created")
	return a, nil
}

func (s *attributeService) SetProductAttributes(ctx context.Context, productID int64, values map[int64]string) ([]AttributeValue, error) {
	for attributeID, raw := range values {
		a, err := s.repo.GetAttribute(ctx, attributeID)
		if err != nil {
			if errors.Is(err, ErrAttributeNotFound) {
				return nil, fmt.Errorf("%w: %d", ErrAttributeNotFound, attributeID)
			}
			return nil, fmt.Errorf("service: failed to load attribute %d: %w", attributeID, err)
		}
		if err := ValidateAttributeValue(a.Type, raw); err != nil {
			log.Warn().Err(err).Int64("product_id", productID).Str("attribute", a.Name).Msg("service: rejected attribute value")
			return nil, fmt.Errorf("%s: %w", a.Name, err)
		}
	}

	if err := s.repo.SetProductValues(ctx, productID, values); err != nil {
		if errors.Is(err, ErrProductNotFound) || errors.Is(err, ErrAttributeNotFound) {
			return nil, err
		}
		log.Error().Err(err).Int64("product_id", productID).Msg("service: failed to store attribute values")
		return nil, fmt.Errorf("service: failed to store attribute values: %w", err)
	}

	return s.ProductAttributes(ctx, productID)
}

func (s *attributeService) ProductAttributes(ctx context.Context, productID int64) ([]AttributeValue, error) {
	values, err := s.repo.ProductValues(ctx, productID)
	if err != nil {
		log.Error().Err(err).Int64("product_id", productID).Msg("service: failed to load attribute values")
		return nil, fmt.Errorf("service: failed to load attribute values: %w", err)
	}
	return values, nil
}
