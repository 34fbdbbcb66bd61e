package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront-checkout/domain"
	"github.com/fjod/go_cart/storefront-checkout/internal/checkout"
	"github.com/fjod/go_cart/storefront-checkout/pkg/logger"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CheckoutSessions is implemented by *checkout.Service.
type CheckoutSessions interface {
	Start(ctx context.Context, customer *domain.Customer, cartOwnerID string) (*checkout.Wizard, error)
	Get(ctx context.Context, id, cartOwnerID string) (*checkout.Wizard, error)
	Find(id, cartOwnerID string) (*checkout.Wizard, error)
	Abandon(id, cartOwnerID string) error
}

type CheckoutHandler struct {
	sessions CheckoutSessions
	timeout  time.Duration
	log      *zap.Logger
}

func NewCheckoutHandler(sessions CheckoutSessions, timeout time.Duration, log *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		sessions: sessions,
		timeout:  timeout,
		log:      log,
	}
}

type ContactRequestDTO struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type PhoneVerificationRequestDTO struct {
	Sent     bool `json:"sent"`
	Verified bool `json:"verified"`
}

type ShippingMethodRequestDTO struct {
	ShippingMethodID string `json:"shipping_method_id"`
}

// PaymentRequestDTO updates whichever of the two fields is present.
type PaymentRequestDTO struct {
	PaymentMethodID *string              `json:"payment_method_id"`
	NewCard         *domain.NewCardInput `json:"new_card"`
}

// Routes mounts the session endpoints on r.
func (h *CheckoutHandler) Routes(r chi.Router) {
	r.Post("/", h.StartSession)
	r.Route("/{session_id}", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Delete("/", h.AbandonSession)
		r.Put("/contact", h.UpdateContact)
		r.Post("/phone-verification", h.RecordPhoneVerification)
		r.Put("/address", h.UpdateAddress)
		r.Put("/shipping-method", h.SelectShippingMethod)
		r.Put("/payment", h.UpdatePayment)
		r.Post("/advance", h.Advance)
		r.Post("/retreat", h.Retreat)
		r.Delete("/error", h.DismissError)
		r.Post("/order", h.PlaceOrder)
	})
}

// POST /api/v1/checkout/sessions
func (h *CheckoutHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	wz, err := h.sessions.Start(ctx, getCustomer(r.Context()), getCartOwner(r.Context()))
	if err != nil {
		h.logFailure(r, "start checkout failed", err)
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, wz.View())
}

// GET /api/v1/checkout/sessions/{session_id}
func (h *CheckoutHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	wz, err := h.sessions.Get(ctx, chi.URLParam(r, "session_id"), getCartOwner(r.Context()))
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, wz.View())
}

// DELETE /api/v1/checkout/sessions/{session_id}
func (h *CheckoutHandler) AbandonSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Abandon(chi.URLParam(r, "session_id"), getCartOwner(r.Context())); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CheckoutHandler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	var req ContactRequestDTO
	if !decode(w, r, &req) {
		return
	}
	h.mutate(w, r, func(wz *checkout.Wizard) error {
		return wz.SetContact(req.Email, req.Phone)
	})
}

func (h *CheckoutHandler) RecordPhoneVerification(w http.ResponseWriter, r *http.Request) {
	var req PhoneVerificationRequestDTO
	if !decode(w, r, &req) {
		return
	}
	h.mutate(w, r, func(wz *checkout.Wizard) error {
		return wz.RecordPhoneVerification(req.Sent, req.Verified)
	})
}

func (h *CheckoutHandler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	var req domain.ShippingAddress
	if !decode(w, r, &req) {
		return
	}
	h.mutate(w, r, func(wz *checkout.Wizard) error {
		return wz.UpdateAddress(req)
	})
}

func (h *CheckoutHandler) SelectShippingMethod(w http.ResponseWriter, r *http.Request) {
	var req ShippingMethodRequestDTO
	if !decode(w, r, &req) {
		return
	}
	if req.ShippingMethodID == "" {
		respondError(w, http.StatusBadRequest, "missing_shipping_method_id", "shipping_method_id is required")
		return
	}
	h.mutate(w, r, func(wz *checkout.Wizard) error {
		return wz.SelectShippingMethod(req.ShippingMethodID)
	})
}

func (h *CheckoutHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	var req PaymentRequestDTO
	if !decode(w, r, &req) {
		return
	}
	if req.PaymentMethodID == nil && req.NewCard == nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "payment_method_id or new_card is required")
		return
	}
	h.mutate(w, r, func(wz *checkout.Wizard) error {
		if req.PaymentMethodID != nil {
			if err := wz.SelectPaymentMethod(*req.PaymentMethodID); err != nil {
				return err
			}
		}
		if req.NewCard != nil {
			return wz.UpdateNewCard(*req.NewCard)
		}
		return nil
	})
}

func (h *CheckoutHandler) Advance(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, (*checkout.Wizard).Advance)
}

func (h *CheckoutHandler) Retreat(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, (*checkout.Wizard).Retreat)
}

func (h *CheckoutHandler) DismissError(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(wz *checkout.Wizard) error {
		wz.DismissError()
		return nil
	})
}

// POST /api/v1/checkout/sessions/{session_id}/order
func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	wz, err := h.sessions.Find(chi.URLParam(r, "session_id"), getCartOwner(r.Context()))
	if err != nil {
		handleError(w, err)
		return
	}

	conf, err := wz.PlaceOrder(ctx)
	if err != nil {
		if !submissionFailed(err) {
			handleError(w, err)
			return
		}
		h.logFailure(r, "order submission failed", err)
		respondJSON(w, http.StatusBadGateway, ErrorResponse{
			Error: wz.View().Error,
			Code:  "order_failed",
		})
		return
	}
	respondJSON(w, http.StatusCreated, conf)
}

// mutate applies fn to the caller's session and responds with the resulting view.
func (h *CheckoutHandler) mutate(w http.ResponseWriter, r *http.Request, fn func(*checkout.Wizard) error) {
	wz, err := h.sessions.Find(chi.URLParam(r, "session_id"), getCartOwner(r.Context()))
	if err != nil {
		handleError(w, err)
		return
	}
	if err := fn(wz); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, wz.View())
}

func (h *CheckoutHandler) logFailure(r *http.Request, msg string, err error) {
	logger.WithContext(r.Context(), h.log).Warn(msg,
		zap.String("request_id", getRequestID(r.Context())),
		zap.String("checkout_session", chi.URLParam(r, "session_id")),
		zap.Error(err))
}

// submissionFailed reports whether err came from the order backend rather than a rejected call.
func submissionFailed(err error) bool {
	var validationErr *checkout.ValidationError
	if errors.As(err, &validationErr) {
		return false
	}
	for _, target := range []error{
		checkout.ErrSessionClosed,
		checkout.ErrCheckoutCompleted,
		checkout.ErrSubmissionInProgress,
		checkout.ErrNotOnPaymentStep,
		checkout.ErrEmptyCart,
	} {
		if errors.Is(err, target) {
			return false
		}
	}
	return true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}
