package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/vasiliy-maslov/shop-admin/internal/catalog"
	"github.com/vasiliy-maslov/shop-admin/internal/money"
	"github.com/vasiliy-maslov/shop-admin/internal/pricing"
)

// SoldQuantityReader reports how many units of a product were ordered.
type SoldQuantityReader interface {
	TotalQuantityForProduct(ctx context.Context, productID int64) (int, error)
}

type CreateProductRequest struct {
	Name            string `json:"name" validate:"required,max=255"`
	SKU             string `json:"sku" validate:"required,max=64"`
	Price           *int64 `json:"price" validate:"required,gte=0"`
	ComparePrice    *int64 `json:"compare_price,omitempty" validate:"omitempty,gte=0"`
	StockQuantity   int    `json:"stock_quantity" validate:"gte=0"`
	TrackQuantity   *bool  `json:"track_quantity,omitempty"`
	ContinueSelling bool   `json:"continue_selling"`
}

type StockChangeRequest struct {
	Amount int `json:"amount" validate:"required,gt=0"`
}

type ChangePriceRequest struct {
	Price        *int64 `json:"price" validate:"required,gte=0"`
	ComparePrice *int64 `json:"compare_price,omitempty" validate:"omitempty,gte=0"`
}

type FormattedPrices struct {
	Price        string `json:"price"`
	FinalPrice   string `json:"final_price"`
	ComparePrice string `json:"compare_price,omitempty"`
}

type ProductResponse struct {
	ID              int64               `json:"id"`
	Name            string              `json:"name"`
	SKU             string              `json:"sku"`
	Price           int64               `json:"price"`
	ComparePrice    *int64              `json:"compare_price,omitempty"`
	FinalPrice      int64               `json:"final_price"`
	DiscountPercent int64               `json:"discount_percent"`
	StockQuantity   int                 `json:"stock_quantity"`
	TrackQuantity   bool                `json:"track_quantity"`
	ContinueSelling bool                `json:"continue_selling"`
	InStock         bool                `json:"in_stock"`
	StockStatus     catalog.StockStatus `json:"stock_status"`
	Formatted       FormattedPrices     `json:"formatted"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

type SoldQuantityResponse struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type ProductHandler struct {
	service   catalog.Service
	pricing   catalog.FinalPriceUpdater
	sold      SoldQuantityReader
	formatter *money.Formatter
	validate  *validator.Validate
}

func NewProductHandler(service catalog.Service, pricing catalog.FinalPriceUpdater, sold SoldQuantityReader, formatter *money.Formatter) *ProductHandler {
	return &ProductHandler{
		service:   service,
		pricing:   pricing,
		sold:      sold,
		formatter: formatter,
		validate:  validator.New(),
	}
}

func (h *ProductHandler) RegisterRoutes(router chi.Router) {
	router.Post("/products", h.handleCreateProduct)
	router.Get("/products/{id}", h.handleGetProduct)
	router.Post("/products/{id}/stock/increment", h.handleIncrementStock)
	router.Post("/products/{id}/stock/decrement", h.handleDecrementStock)
	router.Put("/products/{id}/price", h.handleChangePrice)
	router.Post("/products/{id}/final-price", h.handleRecalculateFinalPrice)
	router.Get("/products/{id}/sold-quantity", h.handleSoldQuantity)
}

func (h *ProductHandler) toResponse(p *catalog.Product) ProductResponse {
	formatted := FormattedPrices{
		Price:      h.formatter.Format(p.Price),
		FinalPrice: h.formatter.Format(p.FinalPrice),
	}
	if p.ComparePrice != nil {
		formatted.ComparePrice = h.formatter.Format(*p.ComparePrice)
	}

	return ProductResponse{
		ID:              p.ID,
		Name:            p.Name,
		SKU:             p.SKU,
		Price:           p.Price,
		ComparePrice:    p.ComparePrice,
		FinalPrice:      p.FinalPrice,
		DiscountPercent: pricing.DiscountPercent(p),
		StockQuantity:   p.StockQuantity,
		TrackQuantity:   p.TrackQuantity,
		ContinueSelling: p.ContinueSelling,
		InStock:         p.IsInStock(),
		StockStatus:     h.service.StockStatus(p),
		Formatted:       formatted,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func (h *ProductHandler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	p := &catalog.Product{
		Name:            req.Name,
		SKU:             req.SKU,
		Price:           *req.Price,
		ComparePrice:    req.ComparePrice,
		StockQuantity:   req.StockQuantity,
		TrackQuantity:   req.TrackQuantity == nil || *req.TrackQuantity,
		ContinueSelling: req.ContinueSelling,
	}

	created, err := h.service.CreateProduct(r.Context(), p)
	if err != nil {
		respondWithServiceError(w, err, "Failed to create product")
		return
	}

	respondWithJSON(w, http.StatusCreated, h.toResponse(created))
}

func (h *ProductHandler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	p, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get product")
		return
	}

	respondWithJSON(w, http.StatusOK, h.toResponse(p))
}

func (h *ProductHandler) handleIncrementStock(w http.ResponseWriter, r *http.Request) {
	h.changeStock(w, r, h.service.IncrementStock)
}

func (h *ProductHandler) handleDecrementStock(w http.ResponseWriter, r *http.Request) {
	h.changeStock(w, r, h.service.DecrementStock)
}

func (h *ProductHandler) changeStock(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, id int64, amount int) (*catalog.Product, error)) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var req StockChangeRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	p, err := apply(r.Context(), id, req.Amount)
	if err != nil {
		respondWithServiceError(w, err, "Failed to change stock")
		return
	}

	respondWithJSON(w, http.StatusOK, h.toResponse(p))
}

func (h *ProductHandler) handleChangePrice(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var req ChangePriceRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	p, err := h.service.ChangePrice(r.Context(), id, *req.Price, req.ComparePrice)
	if err != nil {
		respondWithServiceError(w, err, "Failed to change price")
		return
	}

	respondWithJSON(w, http.StatusOK, h.toResponse(p))
}

func (h *ProductHandler) handleRecalculateFinalPrice(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	p, err := h.pricing.UpdateProductFinalPrice(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err, "Failed to recalculate final price")
		return
	}

	respondWithJSON(w, http.StatusOK, h.toResponse(p))
}

func (h *ProductHandler) handleSoldQuantity(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	quantity, err := h.sold.TotalQuantityForProduct(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get sold quantity")
		return
	}

	respondWithJSON(w, http.StatusOK, SoldQuantityResponse{ProductID: id, Quantity: quantity})
}
