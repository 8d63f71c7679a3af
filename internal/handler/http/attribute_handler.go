package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/vasiliy-maslov/shop-admin/internal/catalog"
)

type CreateAttributeRequest struct {
	Name      string   `json:"name" validate:"required,max=255"`
	Kind      string   `json:"kind" validate:"required,oneof=text number select boolean date"`
	Options   []string `json:"options,omitempty" validate:"omitempty,dive,required"`
	MaxLength int      `json:"max_length,omitempty" validate:"gte=0"`
	Unit      string   `json:"unit,omitempty" validate:"max=32"`
}

type AttributeValueRequest struct {
	AttributeID int64  `json:"attribute_id" validate:"required,gt=0"`
	Value       string `json:"value"`
}

type SetAttributesRequest struct {
	Values []AttributeValueRequest `json:"values" validate:"dive"`
}

type AttributeResponse struct {
	ID        int64                 `json:"id"`
	Name      string                `json:"name"`
	Kind      catalog.AttributeKind `json:"kind"`
	Options   []string              `json:"options,omitempty"`
	MaxLength int                   `json:"max_length,omitempty"`
	Unit      string                `json:"unit,omitempty"`
}

type ProductAttributeResponse struct {
	AttributeID int64                 `json:"attribute_id"`
	Name        string                `json:"name"`
	Kind        catalog.AttributeKind `json:"kind"`
	Value       string                `json:"value"`
	Formatted   string                `json:"formatted"`
}

type AttributeHandler struct {
	service  catalog.AttributeService
	validate *validator.Validate
}

func NewAttributeHandler(service catalog.AttributeService) *AttributeHandler {
	return &AttributeHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *AttributeHandler) RegisterRoutes(router chi.Router) {
	router.Post("/attributes", h.handleCreateAttribute)
	router.Get("/products/{id}/attributes", h.handleGetProductAttributes)
	router.Put("/products/{id}/attributes", h.handleSetProductAttributes)
}

func toAttributeResponse(a *catalog.ProductAttribute) AttributeResponse {
	options, maxLength, unit := catalog.AttributeSettings(a.Type)
	return AttributeResponse{
		ID:        a.ID,
		Name:      a.Name,
		Kind:      a.Type.Kind(),
		Options:   options,
		MaxLength: maxLength,
		Unit:      unit,
	}
}

func toProductAttributeResponses(values []catalog.AttributeValue) []ProductAttributeResponse {
	out := make([]ProductAttributeResponse, 0, len(values))
	for _, v := range values {
		out = append(out, ProductAttributeResponse{
			AttributeID: v.Attribute.ID,
			Name:        v.Attribute.Name,
			Kind:        v.Attribute.Type.Kind(),
			Value:       v.Value,
			Formatted:   catalog.FormatAttributeValue(v.Attribute.Type, v.Value),
		})
	}
	return out
}

func (h *AttributeHandler) handleCreateAttribute(w http.ResponseWriter, r *http.Request) {
	var req CreateAttributeRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	t, err := catalog.NewAttributeType(req.Kind, req.Options, req.MaxLength, req.Unit)
	if err != nil {
		respondWithServiceError(w, err, "Failed to create attribute")
		return
	}

	a, err := h.service.CreateAttribute(r.Context(), req.Name, t)
	if err != nil {
		respondWithServiceError(w, err, "Failed to create attribute")
		return
	}

	respondWithJSON(w, http.StatusCreated, toAttributeResponse(a))
}

func (h *AttributeHandler) handleGetProductAttributes(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	values, err := h.service.ProductAttributes(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get product attributes")
		return
	}

	respondWithJSON(w, http.StatusOK, toProductAttributeResponses(values))
}

func (h *AttributeHandler) handleSetProductAttributes(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var req SetAttributesRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	values := make(map[int64]string, len(req.Values))
	for _, v := range req.Values {
		values[v.AttributeID] = v.Value
	}

	stored, err := h.service.SetProductAttributes(r.Context(), id, values)
	if err != nil {
		respondWithServiceError(w, err, "Failed to set product attributes")
		return
	}

	respondWithJSON(w, http.StatusOK, toProductAttributeResponses(stored))
}
