package handler

import (
	"errors"
	"net/http"
	"strings"

	"farmart/internal/model"
	"farmart/internal/payment"
	"farmart/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// CheckoutHandler submits checkouts and reports on online attempts.
type CheckoutHandler struct {
	service service.CheckoutService
	logger  zerolog.Logger
}

// NewCheckoutHandler creates a new checkout handler.
func NewCheckoutHandler(service service.CheckoutService, logger zerolog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
		logger:  logger.With().Str("handler", "checkout").Logger(),
	}
}

// Submit handles POST /api/checkout. Pay-on-delivery answers 201 once the
// order is placed; online payment answers 202 with the hosted checkout URL.
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	var req model.CheckoutRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	result, err := h.service.Submit(r.Context(), p.UserID, &req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	status := http.StatusCreated
	if result.State == model.CheckoutAwaitingPayment {
		status = http.StatusAccepted
	}
	writeJSON(w, status, result)
}

// Status handles GET /api/checkout/{txRef}.
func (h *CheckoutHandler) Status(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	result, err := h.service.Status(r.Context(), p.UserID, chi.URLParam(r, "txRef"))
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// PaymentSessions is the part of the payment hub driven by client events.
type PaymentSessions interface {
	Callback(txRef string, cb payment.Callback) error
	Redirect(rawURL string) error
	Dismiss(txRef string) error
}

// PaymentHandler relays hosted checkout events to the waiting payment flows.
type PaymentHandler struct {
	sessions    PaymentSessions
	redirectURL string
	logger      zerolog.Logger
}

// NewPaymentHandler creates a payment event handler. redirectURL is the
// public address of the redirect landing.
func NewPaymentHandler(sessions PaymentSessions, redirectURL string, logger zerolog.Logger) *PaymentHandler {
	if i := strings.IndexByte(redirectURL, '?'); i >= 0 {
		redirectURL = redirectURL[:i]
	}
	return &PaymentHandler{
		sessions:    sessions,
		redirectURL: redirectURL,
		logger:      logger.With().Str("handler", "payment").Logger(),
	}
}

// Callback handles POST /api/payments/{txRef}/callback.
func (h *PaymentHandler) Callback(w http.ResponseWriter, r *http.Request) {
	var cb payment.Callback
	if !decodeJSON(w, r, &cb, h.logger) {
		return
	}
	h.respond(w, h.sessions.Callback(chi.URLParam(r, "txRef"), cb))
}

// Redirect handles GET /api/payments/redirect, the provider's landing page.
func (h *PaymentHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	landing := h.redirectURL + "?" + r.URL.RawQuery
	h.respond(w, h.sessions.Redirect(landing))
}

// Close handles POST /api/payments/{txRef}/close.
func (h *PaymentHandler) Close(w http.ResponseWriter, r *http.Request) {
	h.respond(w, h.sessions.Dismiss(chi.URLParam(r, "txRef")))
}

func (h *PaymentHandler) respond(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"status": "received"})
	case errors.Is(err, payment.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, model.ErrCodeCheckoutNotFound, "payment session not found", h.logger)
	default:
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation, err.Error(), h.logger)
	}
}
