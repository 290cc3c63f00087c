package payment

import (
	"log/slog"
	"net/http"

	errors "github.com/frahmantamala/payment-gateway/internal"
	"github.com/frahmantamala/payment-gateway/internal/transport"
	"github.com/frahmantamala/payment-gateway/pkg/logger"
	"github.com/go-chi/chi"
)

// WebhookHandler receives provider-originated notifications. The provider
// posts form-encoded fields; the adapter authenticates them before any state
// is trusted.
type WebhookHandler struct {
	*transport.BaseHandler
	paymentService ServiceAPI
	logger         *slog.Logger
}

func NewWebhookHandler(baseHandler *transport.BaseHandler, paymentService ServiceAPI, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		BaseHandler:    baseHandler,
		paymentService: paymentService,
		logger:         logger,
	}
}

// HandleProviderCallback handles POST /api/v1/payments/{provider}/callback
func (h *WebhookHandler) HandleProviderCallback(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")

	if err := r.ParseForm(); err != nil {
		h.logger.Error("invalid callback form", "error", err, "provider", provider)
		h.HandleError(w, errors.NewValidationError("body", "invalid form payload"))
		return
	}

	data := make(map[string]string, len(r.PostForm))
	for key := range r.PostForm {
		data[key] = r.PostForm.Get(key)
	}

	h.logger.Info("received provider callback",
		"provider", provider,
		"fields", len(data))

	ctx := logger.With(r.Context(), logger.ProviderKey, provider)
	result, err := h.paymentService.VerifyCallback(ctx, provider, data)
	if err != nil {
		h.logger.Error("callback verification failed",
			"error", err,
			"provider", provider)
		h.HandleError(w, err)
		return
	}

	h.logger.Info("provider callback processed",
		"provider", provider,
		"success", result.Success,
		"status", result.Status,
		"payment_id", result.PaymentID)

	h.WriteJSON(w, http.StatusOK, NewResultResponse(provider, result))
}
