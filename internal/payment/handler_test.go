package payment_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/go-chi/chi"

	"github.com/frahmantamala/payment-gateway/internal"
	"github.com/frahmantamala/payment-gateway/internal/core/datamodel/payment"
	paymentsvc "github.com/frahmantamala/payment-gateway/internal/payment"
	"github.com/frahmantamala/payment-gateway/internal/transport"
)

// stubService lets handler specs script the service outcome directly.
type stubService struct {
	initiateResp *payment.Response
	initiateErr  error
	captureRes   *payment.Result
	refundRes    *payment.Result
	refundErr    error
	statusRes    *payment.Result
	verifyRes    *payment.Result
	verifyErr    error
	history      []*payment.Log

	gotProvider string
	gotAmount   *float64
}

func (s *stubService) Initiate(ctx context.Context, provider string, req payment.Request) (*payment.Response, error) {
	s.gotProvider = provider
	return s.initiateResp, s.initiateErr
}
func (s *stubService) Capture(ctx context.Context, provider, paymentID string) (*payment.Result, error) {
	return s.captureRes, nil
}
func (s *stubService) Refund(ctx context.Context, provider, paymentID string, amount *float64) (*payment.Result, error) {
	s.gotAmount = amount
	return s.refundRes, s.refundErr
}
func (s *stubService) GetStatus(ctx context.Context, provider, paymentID string) (*payment.Result, error) {
	return s.statusRes, nil
}
func (s *stubService) VerifyCallback(ctx context.Context, provider string, data map[string]string) (*payment.Result, error) {
	s.gotProvider = provider
	return s.verifyRes, s.verifyErr
}
func (s *stubService) History(orderID string) ([]*payment.Log, error) {
	return s.history, nil
}

var _ = Describe("HTTP Handlers", func() {
	var (
		svc    *stubService
		router *chi.Mux
	)

	BeforeEach(func() {
		svc = &stubService{}
		handler := paymentsvc.NewHandler(svc, slog.Default())
		webhook := paymentsvc.NewWebhookHandler(transport.NewBaseHandler(slog.Default()), svc, slog.Default())

		router = chi.NewRouter()
		router.Route("/payments/{provider}", func(r chi.Router) {
			r.Post("/", handler.InitiatePayment)
			r.Post("/callback", webhook.HandleProviderCallback)
			r.Post("/{paymentID}/refund", handler.RefundPayment)
		})
	})

	Describe("InitiatePayment", func() {
		It("should respond 201 with the gateway response", func() {
			resp, err := payment.NewResponse(payment.Response{
				Type:         payment.TypeAPI,
				Data:         map[string]any{"payment_intent_id": "pi_123"},
				ClientSecret: "pi_123_secret",
			})
			Expect(err).ToNot(HaveOccurred())
			svc.initiateResp = resp

			rec := httptest.NewRecorder()
			body := `{"amount": 49.99, "currency": "EUR", "order_id": "ORD-1"}`
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/payments/stripe", strings.NewReader(body)))

			Expect(rec.Code).To(Equal(http.StatusCreated))
			Expect(svc.gotProvider).To(Equal("stripe"))

			var out map[string]any
			Expect(json.Unmarshal(rec.Body.Bytes(), &out)).To(Succeed())
			Expect(out["client_secret"]).To(Equal("pi_123_secret"))
			Expect(out["provider"]).To(Equal("stripe"))
		})

		It("should respond 422 to a payload missing the order ID", func() {
			rec := httptest.NewRecorder()
			body := `{"amount": 49.99, "currency": "EUR"}`
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/payments/stripe", strings.NewReader(body)))

			Expect(rec.Code).To(Equal(http.StatusUnprocessableEntity))
		})

		It("should map service errors through the taxonomy", func() {
			svc.initiateErr = internal.NewPaymentDeclinedError("stripe", "card declined", "card_declined")

			rec := httptest.NewRecorder()
			body := `{"amount": 49.99, "currency": "EUR", "order_id": "ORD-1"}`
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/payments/stripe", strings.NewReader(body)))

			Expect(rec.Code).To(Equal(http.StatusPaymentRequired))

			var out map[string]any
			Expect(json.Unmarshal(rec.Body.Bytes(), &out)).To(Succeed())
			errBody := out["error"].(map[string]any)
			Expect(errBody["code"]).To(Equal(float64(internal.CodePaymentDeclined)))
		})
	})

	Describe("RefundPayment", func() {
		BeforeEach(func() {
			res, err := payment.NewResult(payment.Result{
				Success:       true,
				Status:        payment.StatusRefunded,
				TransactionID: "re_789",
			})
			Expect(err).ToNot(HaveOccurred())
			svc.refundRes = res
		})

		It("should treat an empty body as a full refund", func() {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/payments/stripe/pi_123/refund", nil))

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(svc.gotAmount).To(BeNil())
		})

		It("should pass a partial amount through", func() {
			rec := httptest.NewRecorder()
			body := `{"amount": 20.5}`
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/payments/stripe/pi_123/refund", strings.NewReader(body)))

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(svc.gotAmount).ToNot(BeNil())
			Expect(*svc.gotAmount).To(Equal(20.5))
		})

		It("should reject a non-positive amount", func() {
			rec := httptest.NewRecorder()
			body := `{"amount": -1}`
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/payments/stripe/pi_123/refund", strings.NewReader(body)))

			Expect(rec.Code).To(Equal(http.StatusUnprocessableEntity))
		})
	})

	Describe("HandleProviderCallback", func() {
		It("should flatten the form and respond with the verification result", func() {
			res, err := payment.NewResult(payment.Result{
				Success:       true,
				Status:        payment.StatusCompleted,
				PaymentID:     "123456789012",
				TransactionID: "123456",
			})
			Expect(err).ToNot(HaveOccurred())
			svc.verifyRes = res

			form := url.Values{}
			form.Set("Ds_MerchantParameters", "blob")
			form.Set("Ds_Signature", "sig")
			req := httptest.NewRequest(http.MethodPost, "/payments/redsys/callback", strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(svc.gotProvider).To(Equal("redsys"))

			var out map[string]any
			Expect(json.Unmarshal(rec.Body.Bytes(), &out)).To(Succeed())
			Expect(out["success"]).To(BeTrue())
			Expect(out["payment_id"]).To(Equal("123456789012"))
		})

		It("should surface a signature failure as a gateway error", func() {
			svc.verifyErr = internal.NewSignatureVerificationError("redsys")

			req := httptest.NewRequest(http.MethodPost, "/payments/redsys/callback", strings.NewReader("a=b"))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusBadGateway))
		})
	})
})
