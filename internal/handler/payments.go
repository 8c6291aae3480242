package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/scholar-stream/internal/apperror"
	"github.com/sakif/scholar-stream/internal/service"
)

// maxWebhookBytes matches the payload limit the payment provider documents.
const maxWebhookBytes = 64 << 10

// PaymentHandler serves checkout creation and the provider webhook.
type PaymentHandler struct {
	svc    *service.PaymentService
	logger *slog.Logger
}

func NewPaymentHandler(svc *service.PaymentService, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{svc: svc, logger: logger}
}

type checkoutRequest struct {
	Amount          float64 `json:"amount"`
	ApplicationID   string  `json:"applicationId"`
	ScholarshipID   string  `json:"scholarshipId"`
	UserID          string  `json:"userId"`
	UserEmail       string  `json:"userEmail"`
	ScholarshipName string  `json:"scholarshipName"`
}

type checkoutResponse struct {
	URL string `json:"url"`
}

// HandleCheckout creates a hosted checkout session for an application fee.
//
// HTTP: POST /create-payment-intent
// RESPONSE: {"url": "https://checkout..."}
func (h *PaymentHandler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	caller, err := principal(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var body checkoutRequest
	if err := decodeJSON(w, r, &body); err != nil {
		WriteError(w, r, err)
		return
	}

	url, err := h.svc.Checkout(r.Context(), caller, service.CheckoutInput(body))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, checkoutResponse{URL: url})
}

// HandleWebhook receives signed provider events.
//
// HTTP: POST /webhooks/payment
// The raw body is needed for signature verification, so it is read as bytes
// rather than decoded.
func (h *PaymentHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		WriteError(w, r, apperror.ValidationFailed("body", "unreadable webhook body"))
		return
	}

	if err := h.svc.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
