package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/shop-admin/internal/catalog"
	"github.com/vasiliy-maslov/shop-admin/internal/order"
	"github.com/vasiliy-maslov/shop-admin/internal/promotion"
	"github.com/vasiliy-maslov/shop-admin/internal/settings"
)

type ValidationErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func formatValidationErrors(errs validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(errs))
	for _, fe := range errs {
		field := strings.ToLower(fe.Field())
		if fe.Param() != "" {
			details[field] = fmt.Sprintf("failed on '%s=%s'", fe.Tag(), fe.Param())
		} else {
			details[field] = fmt.Sprintf("failed on '%s'", fe.Tag())
		}
	}
	return details
}

// decodeAndValidate reads a JSON body into dst and runs struct validation.
// It writes the error response itself and reports whether the caller may go on.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, validate *validator.Validate, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		log.Warn().Err(err).Msg("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}

	if err := validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{
				Error:   "Validation failed",
				Details: formatValidationErrors(validationErrors),
			})
		} else {
			log.Error().Err(err).Type("validation_error_type", err).Msg("Unexpected error type during validation")
			respondWithError(w, http.StatusInternalServerError, "Internal validation error")
		}
		return false
	}

	return true
}

func parseIDParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		log.Warn().Str(name, raw).Msg("Failed to parse id parameter from URL")
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s parameter", name))
		return 0, false
	}
	return id, true
}

func mapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, catalog.ErrAttributeNotFound),
		errors.Is(err, promotion.ErrPromotionNotFound),
		errors.Is(err, promotion.ErrProductNotFound),
		errors.Is(err, promotion.ErrNotAttached),
		errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, order.ErrOrderItemNotFound),
		errors.Is(err, settings.ErrSettingNotFound):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrSKUExists),
		errors.Is(err, catalog.ErrAttributeExists),
		errors.Is(err, catalog.ErrPriceChanged),
		errors.Is(err, order.ErrStatusConflict),
		errors.Is(err, order.ErrOrderLocked):
		return http.StatusConflict
	case errors.Is(err, catalog.ErrInvalidAmount),
		errors.Is(err, catalog.ErrInvalidPrice),
		errors.Is(err, catalog.ErrInvalidStock),
		errors.Is(err, catalog.ErrInvalidProduct),
		errors.Is(err, catalog.ErrInvalidAttribute),
		errors.Is(err, catalog.ErrUnknownAttributeKind),
		errors.Is(err, catalog.ErrAttributeNameRequired),
		errors.Is(err, promotion.ErrInvalidWindow),
		errors.Is(err, promotion.ErrInvalidDiscountType),
		errors.Is(err, promotion.ErrInvalidDiscountValue),
		errors.Is(err, promotion.ErrNameRequired),
		errors.Is(err, order.ErrEmptyOrder),
		errors.Is(err, order.ErrNegativeAmount),
		errors.Is(err, order.ErrInvalidQuantity),
		errors.Is(err, order.ErrInvalidPaymentStatus),
		errors.Is(err, settings.ErrKeyRequired):
		return http.StatusBadRequest
	case errors.Is(err, order.ErrProductNotFound),
		errors.Is(err, order.ErrOutOfStock):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondWithServiceError logs err and answers with its mapped status. Client
// errors carry the error text; server errors carry fallback.
func respondWithServiceError(w http.ResponseWriter, err error, fallback string) {
	code := mapErrorToStatusCode(err)
	if code >= http.StatusInternalServerError {
		log.Error().Err(err).Msg(fallback)
		respondWithError(w, code, fallback)
		return
	}
	log.Warn().Err(err).Int("status", code).Msg(fallback)
	respondWithError(w, code, err.Error())
}
