package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/vasiliy-maslov/shop-admin/internal/promotion"
)

type PromotionRequest struct {
	Name          string    `json:"name" validate:"required,max=255"`
	StartsAt      time.Time `json:"starts_at" validate:"required"`
	EndsAt        time.Time `json:"ends_at" validate:"required"`
	DiscountType  string    `json:"discount_type" validate:"required,oneof=percentage fixed"`
	DiscountValue int64     `json:"discount_value" validate:"gte=0"`
	IsActive      *bool     `json:"is_active,omitempty"`
}

func (req PromotionRequest) toPromotion() *promotion.Promotion {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return &promotion.Promotion{
		Name:          req.Name,
		StartsAt:      req.StartsAt,
		EndsAt:        req.EndsAt,
		DiscountType:  promotion.DiscountType(req.DiscountType),
		DiscountValue: req.DiscountValue,
		IsActive:      active,
	}
}

type PromotionHandler struct {
	service  promotion.Service
	validate *validator.Validate
}

func NewPromotionHandler(service promotion.Service) *PromotionHandler {
	return &PromotionHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *PromotionHandler) RegisterRoutes(router chi.Router) {
	router.Post("/promotions", h.handleCreatePromotion)
	router.Get("/promotions/{id}", h.handleGetPromotion)
	router.Put("/promotions/{id}", h.handleUpdatePromotion)
	router.Delete("/promotions/{id}", h.handleDeletePromotion)
	router.Post("/promotions/{id}/products/{productID}", h.handleAttachProduct)
	router.Delete("/promotions/{id}/products/{productID}", h.handleDetachProduct)
}

func (h *PromotionHandler) handleCreatePromotion(w http.ResponseWriter, r *http.Request) {
	var req PromotionRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	created, err := h.service.CreatePromotion(r.Context(), req.toPromotion())
	if err != nil {
		respondWithServiceError(w, err, "Failed to create promotion")
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

func (h *PromotionHandler) handleGetPromotion(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	p, err := h.service.GetPromotion(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get promotion")
		return
	}

	respondWithJSON(w, http.StatusOK, p)
}

func (h *PromotionHandler) handleUpdatePromotion(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var req PromotionRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	p := req.toPromotion()
	p.ID = id
	updated, err := h.service.UpdatePromotion(r.Context(), p)
	if err != nil {
		respondWithServiceError(w, err, "Failed to update promotion")
		return
	}

	respondWithJSON(w, http.StatusOK, updated)
}

func (h *PromotionHandler) handleDeletePromotion(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeletePromotion(r.Context(), id); err != nil {
		respondWithServiceError(w, err, "Failed to delete promotion")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *PromotionHandler) handleAttachProduct(w http.ResponseWriter, r *http.Request) {
	promotionID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	productID, ok := parseIDParam(w, r, "productID")
	if !ok {
		return
	}

	if err := h.service.AttachProduct(r.Context(), promotionID, productID); err != nil {
		respondWithServiceError(w, err, "Failed to attach product")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *PromotionHandler) handleDetachProduct(w http.ResponseWriter, r *http.Request) {
	promotionID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	productID, ok := parseIDParam(w, r, "productID")
	if !ok {
		return
	}

	if err := h.service.DetachProduct(r.Context(), promotionID, productID); err != nil {
		respondWithServiceError(w, err, "Failed to detach product")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
