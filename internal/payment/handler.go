package payment

import (
	"encoding/json"
	"log/slog"
	"net/http"

	errors "github.com/frahmantamala/payment-gateway/internal"
	"github.com/frahmantamala/payment-gateway/internal/transport"
	"github.com/go-chi/chi"
)

type Handler struct {
	transport.BaseHandler
	PaymentService ServiceAPI
	Logger         *slog.Logger
}

func NewHandler(paymentService ServiceAPI, logger *slog.Logger) *Handler {
	return &Handler{
		BaseHandler:    transport.BaseHandler{Logger: logger},
		PaymentService: paymentService,
		Logger:         logger,
	}
}

// InitiatePayment handles POST /api/v1/payments/{provider}
func (h *Handler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")

	var req InitiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("InitiatePayment: failed to parse request body", "error", err)
		h.HandleError(w, errors.NewValidationError("body", "invalid request body"))
		return
	}

	if err := req.Validate(); err != nil {
		h.Logger.Error("InitiatePayment: validation error", "error", err)
		h.HandleError(w, err)
		return
	}

	resp, err := h.PaymentService.Initiate(r.Context(), provider, req.ToRequest())
	if err != nil {
		h.Logger.Error("InitiatePayment: service error",
			"error", err,
			"provider", provider,
			"order_id", req.OrderID)
		h.HandleError(w, err)
		return
	}

	h.Logger.Info("InitiatePayment: payment initiated",
		"provider", provider,
		"order_id", req.OrderID,
		"type", resp.Type)

	h.WriteJSON(w, http.StatusCreated, NewInitiateResponse(provider, resp))
}

// CapturePayment handles POST /api/v1/payments/{provider}/{paymentID}/capture
func (h *Handler) CapturePayment(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	paymentID := chi.URLParam(r, "paymentID")

	if paymentID == "" {
		h.HandleError(w, errors.NewMissingFieldError("payment_id"))
		return
	}

	result, err := h.PaymentService.Capture(r.Context(), provider, paymentID)
	if err != nil {
		h.Logger.Error("CapturePayment: service error",
			"error", err,
			"provider", provider,
			"payment_id", paymentID)
		h.HandleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, NewResultResponse(provider, result))
}

// RefundPayment handles POST /api/v1/payments/{provider}/{paymentID}/refund
func (h *Handler) RefundPayment(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	paymentID := chi.URLParam(r, "paymentID")

	if paymentID == "" {
		h.HandleError(w, errors.NewMissingFieldError("payment_id"))
		return
	}

	var req RefundRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.Logger.Error("RefundPayment: failed to parse request body", "error", err)
			h.HandleError(w, errors.NewValidationError("body", "invalid request body"))
			return
		}
	}

	if err := req.Validate(); err != nil {
		h.HandleError(w, err)
		return
	}

	result, err := h.PaymentService.Refund(r.Context(), provider, paymentID, req.Amount)
	if err != nil {
		h.Logger.Error("RefundPayment: service error",
			"error", err,
			"provider", provider,
			"payment_id", paymentID)
		h.HandleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, NewResultResponse(provider, result))
}

// GetPaymentStatus handles GET /api/v1/payments/{provider}/{paymentID}
func (h *Handler) GetPaymentStatus(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	paymentID := chi.URLParam(r, "paymentID")

	if paymentID == "" {
		h.HandleError(w, errors.NewMissingFieldError("payment_id"))
		return
	}

	result, err := h.PaymentService.GetStatus(r.Context(), provider, paymentID)
	if err != nil {
		h.Logger.Error("GetPaymentStatus: service error",
			"error", err,
			"provider", provider,
			"payment_id", paymentID)
		h.HandleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, NewResultResponse(provider, result))
}

// GetPaymentHistory handles GET /api/v1/payments/orders/{orderID}/history
func (h *Handler) GetPaymentHistory(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	logs, err := h.PaymentService.History(orderID)
	if err != nil {
		h.Logger.Error("GetPaymentHistory: service error", "error", err, "order_id", orderID)
		h.HandleError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]any{
		"order_id": orderID,
		"logs":     logs,
	})
}
