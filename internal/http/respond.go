package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fjod/go_cart/storefront-checkout/internal/backend"
	"github.com/fjod/go_cart/storefront-checkout/internal/checkout"
	"github.com/fjod/go_cart/storefront-checkout/pkg/circuitbreaker"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleError converts checkout and backend errors to HTTP responses.
func handleError(w http.ResponseWriter, err error) {
	var validationErr *checkout.ValidationError
	var apiErr *backend.APIError

	switch {
	case errors.As(err, &validationErr):
		respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   validationErr.Message,
			Code:    "validation_failed",
			Details: string(validationErr.Step),
		})
	case errors.Is(err, checkout.ErrUnknownShippingMethod):
		respondError(w, http.StatusUnprocessableEntity, "unknown_shipping_method", err.Error())
	case errors.Is(err, checkout.ErrSessionNotFound), errors.Is(err, checkout.ErrSessionClosed):
		respondError(w, http.StatusNotFound, "not_found", "checkout session not found")
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusConflict, "empty_cart", err.Error())
	case errors.Is(err, checkout.ErrSubmissionInProgress):
		respondError(w, http.StatusConflict, "submission_in_progress", err.Error())
	case errors.Is(err, checkout.ErrCheckoutCompleted):
		respondError(w, http.StatusConflict, "checkout_completed", err.Error())
	case errors.Is(err, checkout.ErrNoNextStep),
		errors.Is(err, checkout.ErrNoPreviousStep),
		errors.Is(err, checkout.ErrNotOnPaymentStep):
		respondError(w, http.StatusConflict, "invalid_step", err.Error())
	case errors.Is(err, circuitbreaker.ErrOpen):
		respondError(w, http.StatusServiceUnavailable, "service_unavailable", "backend temporarily unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
	case errors.As(err, &apiErr):
		respondError(w, http.StatusBadGateway, "backend_error", apiErr.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
