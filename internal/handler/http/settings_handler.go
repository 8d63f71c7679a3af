package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/vasiliy-maslov/shop-admin/internal/settings"
)

type SetSettingRequest struct {
	Value string `json:"value" validate:"max=4096"`
}

type SettingResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type SettingsHandler struct {
	service  settings.Service
	validate *validator.Validate
}

func NewSettingsHandler(service settings.Service) *SettingsHandler {
	return &SettingsHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *SettingsHandler) RegisterRoutes(router chi.Router) {
	router.Get("/settings/{key}", h.handleGetSetting)
	router.Put("/settings/{key}", h.handleSetSetting)
}

func (h *SettingsHandler) handleGetSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	value, err := h.service.Get(r.Context(), key)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get setting")
		return
	}

	respondWithJSON(w, http.StatusOK, SettingResponse{Key: key, Value: value})
}

func (h *SettingsHandler) handleSetSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var req SetSettingRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	s, err := h.service.Set(r.Context(), key, req.Value)
	if err != nil {
		respondWithServiceError(w, err, "Failed to store setting")
		return
	}

	respondWithJSON(w, http.StatusOK, SettingResponse{Key: s.Key, Value: s.Value})
}
