package payment_test

import (
	"context"
	"log/slog"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/payment-gateway/internal"
	"github.com/frahmantamala/payment-gateway/internal/core/datamodel/payment"
	"github.com/frahmantamala/payment-gateway/internal/core/events"
	"github.com/frahmantamala/payment-gateway/internal/gateway"
	paymentsvc "github.com/frahmantamala/payment-gateway/internal/payment"
)

type stubGateway struct {
	initiateResp *payment.Response
	initiateErr  error
	captureRes   *payment.Result
	captureErr   error
	refundRes    *payment.Result
	refundErr    error
	statusRes    *payment.Result
	verifyRes    *payment.Result
	verifyErr    error

	gotRequest *payment.Request
	gotData    map[string]string
}

func (s *stubGateway) Initiate(ctx context.Context, req *payment.Request) (*payment.Response, error) {
	s.gotRequest = req
	return s.initiateResp, s.initiateErr
}
func (s *stubGateway) Capture(ctx context.Context, paymentID string) (*payment.Result, error) {
	return s.captureRes, s.captureErr
}
func (s *stubGateway) Refund(ctx context.Context, paymentID string, amount *float64) (*payment.Result, error) {
	return s.refundRes, s.refundErr
}
func (s *stubGateway) GetStatus(ctx context.Context, paymentID string) (*payment.Result, error) {
	return s.statusRes, nil
}
func (s *stubGateway) VerifyCallback(data map[string]string) (*payment.Result, error) {
	s.gotData = data
	return s.verifyRes, s.verifyErr
}

type stubResolver struct {
	gw  *stubGateway
	err error
}

func (r *stubResolver) Driver(provider payment.Provider) (gateway.PaymentGateway, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.gw, nil
}

type memRepo struct {
	mu      sync.Mutex
	entries []*payment.Log
}

func (m *memRepo) Create(log *payment.Log) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, log)
	return nil
}

func (m *memRepo) GetByOrderID(orderID string) ([]*payment.Log, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*payment.Log
	for _, e := range m.entries {
		if e.OrderID == orderID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memRepo) GetLatestByOrderID(orderID string) (*payment.Log, error) {
	logs, _ := m.GetByOrderID(orderID)
	if len(logs) == 0 {
		return nil, internal.NewPaymentNotFoundError("", orderID)
	}
	return logs[len(logs)-1], nil
}

func (m *memRepo) all() []*payment.Log {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*payment.Log(nil), m.entries...)
}

var _ = Describe("Service", func() {
	var (
		gw       *stubGateway
		resolver *stubResolver
		repo     *memRepo
		bus      *events.EventBus
		svc      *paymentsvc.Service

		published chan events.Event
	)

	BeforeEach(func() {
		gw = &stubGateway{}
		resolver = &stubResolver{gw: gw}
		repo = &memRepo{}
		bus = events.NewEventBus(slog.Default())
		svc = paymentsvc.NewService(resolver, repo, bus, slog.Default())

		published = make(chan events.Event, 10)
		capture := func(ctx context.Context, event events.Event) error {
			published <- event
			return nil
		}
		bus.Subscribe(events.EventTypePaymentCompleted, capture)
		bus.Subscribe(events.EventTypePaymentFailed, capture)
		bus.Subscribe(events.EventTypePaymentRefunded, capture)
	})

	Describe("Initiate", func() {
		validReq := payment.Request{
			Amount:   49.99,
			Currency: "EUR",
			OrderID:  "ORD-3001",
		}

		BeforeEach(func() {
			resp, err := payment.NewResponse(payment.Response{
				Type:         payment.TypeAPI,
				Data:         map[string]any{"payment_intent_id": "pi_123"},
				ClientSecret: "pi_123_secret",
			})
			Expect(err).ToNot(HaveOccurred())
			gw.initiateResp = resp
		})

		It("should validate before touching the gateway", func() {
			bad := validReq
			bad.Amount = -5

			_, err := svc.Initiate(context.Background(), "stripe", bad)

			Expect(internal.IsCode(err, internal.CodeInvalidAmount)).To(BeTrue())
			Expect(gw.gotRequest).To(BeNil())
		})

		It("should delegate a valid request and audit a pending entry", func() {
			resp, err := svc.Initiate(context.Background(), "stripe", validReq)

			Expect(err).ToNot(HaveOccurred())
			Expect(resp.ClientSecret).To(Equal("pi_123_secret"))
			Expect(gw.gotRequest.OrderID).To(Equal("ORD-3001"))

			entries := repo.all()
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Operation).To(Equal("initiate"))
			Expect(entries[0].Status).To(Equal(payment.StatusPending))
			Expect(entries[0].Success).To(BeTrue())
			Expect(entries[0].Amount).To(Equal(49.99))
		})

		It("should audit a failed entry when the gateway rejects", func() {
			gw.initiateResp = nil
			gw.initiateErr = internal.NewProviderAPIError("stripe", "boom", "api_error")

			_, err := svc.Initiate(context.Background(), "stripe", validReq)

			Expect(internal.IsCode(err, internal.CodeAPIError)).To(BeTrue())
			entries := repo.all()
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Success).To(BeFalse())
			Expect(entries[0].Status).To(Equal(payment.StatusFailed))
			Expect(string(entries[0].Payload)).To(ContainSubstring("PROVIDER_ERROR"))
		})

		It("should surface resolver errors untouched", func() {
			resolver.err = internal.NewUnsupportedProviderError("bitcoin")

			_, err := svc.Initiate(context.Background(), "bitcoin", validReq)
			Expect(internal.IsCode(err, internal.CodeUnsupportedProvider)).To(BeTrue())
		})
	})

	Describe("Capture", func() {
		It("should publish a completed event for a successful capture", func() {
			res, err := payment.NewResult(payment.Result{
				Success:       true,
				Status:        payment.StatusCompleted,
				PaymentID:     "pi_123",
				TransactionID: "ch_456",
				Data:          map[string]any{"order_id": "ORD-3002"},
			})
			Expect(err).ToNot(HaveOccurred())
			gw.captureRes = res

			result, err := svc.Capture(context.Background(), "stripe", "pi_123")

			Expect(err).ToNot(HaveOccurred())
			Expect(result.Success).To(BeTrue())

			var event events.Event
			Eventually(published).Should(Receive(&event))
			Expect(event.EventType()).To(Equal(events.EventTypePaymentCompleted))

			data := event.Payload().(map[string]any)
			Expect(data["order_id"]).To(Equal("ORD-3002"))
			Expect(data["payment_id"]).To(Equal("pi_123"))
		})

		It("should carry the charged amount on the completed event", func() {
			res, err := payment.NewResult(payment.Result{
				Success:       true,
				Status:        payment.StatusCompleted,
				PaymentID:     "pi_123",
				TransactionID: "ch_456",
				Data: map[string]any{
					"order_id": "ORD-3002",
					"amount":   49.99,
					"currency": "EUR",
				},
			})
			Expect(err).ToNot(HaveOccurred())
			gw.captureRes = res

			_, err = svc.Capture(context.Background(), "stripe", "pi_123")
			Expect(err).ToNot(HaveOccurred())

			var event events.Event
			Eventually(published).Should(Receive(&event))
			data := event.Payload().(map[string]any)
			Expect(data["amount"]).To(Equal(49.99))
			Expect(data["currency"]).To(Equal("EUR"))
		})

		It("should audit the result with its identifiers", func() {
			res, err := payment.NewResult(payment.Result{
				Success:       true,
				Status:        payment.StatusCompleted,
				PaymentID:     "pi_123",
				TransactionID: "ch_456",
			})
			Expect(err).ToNot(HaveOccurred())
			gw.captureRes = res

			_, err = svc.Capture(context.Background(), "stripe", "pi_123")
			Expect(err).ToNot(HaveOccurred())

			entries := repo.all()
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Operation).To(Equal("capture"))
			Expect(*entries[0].PaymentID).To(Equal("pi_123"))
			Expect(*entries[0].TransactionID).To(Equal("ch_456"))
		})
	})

	Describe("Refund", func() {
		It("should publish a refunded event carrying the amount", func() {
			res, err := payment.NewResult(payment.Result{
				Success:       true,
				Status:        payment.StatusRefunded,
				TransactionID: "re_789",
			})
			Expect(err).ToNot(HaveOccurred())
			gw.refundRes = res

			amount := 20.00
			_, err = svc.Refund(context.Background(), "stripe", "pi_123", &amount)
			Expect(err).ToNot(HaveOccurred())

			var event events.Event
			Eventually(published).Should(Receive(&event))
			Expect(event.EventType()).To(Equal(events.EventTypePaymentRefunded))

			data := event.Payload().(map[string]any)
			Expect(data["amount"]).To(Equal(20.00))
			Expect(data["transaction_id"]).To(Equal("re_789"))
		})

		It("should stay silent when the refund did not succeed", func() {
			res, err := payment.NewResult(payment.Result{
				Success: false,
				Status:  "PENDING",
				Message: "refund pending review",
			})
			Expect(err).ToNot(HaveOccurred())
			gw.refundRes = res

			_, err = svc.Refund(context.Background(), "paypal", "5O1", nil)
			Expect(err).ToNot(HaveOccurred())
			Consistently(published).ShouldNot(Receive())
		})
	})

	Describe("VerifyCallback", func() {
		It("should publish a completed event with the callback order", func() {
			res, err := payment.NewResult(payment.Result{
				Success:       true,
				Status:        payment.StatusCompleted,
				PaymentID:     "123456789012",
				TransactionID: "123456",
				Data:          map[string]any{"Ds_Order": "123456789012"},
			})
			Expect(err).ToNot(HaveOccurred())
			gw.verifyRes = res

			result, err := svc.VerifyCallback(context.Background(), "redsys", map[string]string{
				"Ds_MerchantParameters": "blob", "Ds_Signature": "sig",
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(result.Success).To(BeTrue())
			Expect(gw.gotData).To(HaveKey("Ds_Signature"))

			var event events.Event
			Eventually(published).Should(Receive(&event))
			data := event.Payload().(map[string]any)
			Expect(data["order_id"]).To(Equal("123456789012"))
		})

		It("should convert the terminal's cent amount on the completed event", func() {
			res, err := payment.NewResult(payment.Result{
				Success:       true,
				Status:        payment.StatusCompleted,
				PaymentID:     "123456789012",
				TransactionID: "123456",
				Data: map[string]any{
					"Ds_Order":  "123456789012",
					"Ds_Amount": "9990",
				},
			})
			Expect(err).ToNot(HaveOccurred())
			gw.verifyRes = res

			_, err = svc.VerifyCallback(context.Background(), "redsys", map[string]string{})
			Expect(err).ToNot(HaveOccurred())

			var event events.Event
			Eventually(published).Should(Receive(&event))
			data := event.Payload().(map[string]any)
			Expect(data["amount"]).To(Equal(99.90))
			Expect(data["currency"]).To(Equal("EUR"))
		})

		It("should publish a failed event for a failed callback result", func() {
			res, err := payment.NewResult(payment.Result{
				Success: false,
				Status:  payment.StatusFailed,
				Message: "Payment failed",
				Data:    map[string]any{"Ds_Order": "123456789012"},
			})
			Expect(err).ToNot(HaveOccurred())
			gw.verifyRes = res

			_, err = svc.VerifyCallback(context.Background(), "redsys", map[string]string{})
			Expect(err).ToNot(HaveOccurred())

			var event events.Event
			Eventually(published).Should(Receive(&event))
			Expect(event.EventType()).To(Equal(events.EventTypePaymentFailed))
		})

		It("should audit and propagate verification errors", func() {
			gw.verifyErr = internal.NewSignatureVerificationError("redsys")

			_, err := svc.VerifyCallback(context.Background(), "redsys", map[string]string{})

			Expect(internal.IsCode(err, internal.CodeSignatureFailed)).To(BeTrue())
			entries := repo.all()
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Operation).To(Equal("callback"))
			Expect(entries[0].Success).To(BeFalse())
		})
	})

	Describe("History", func() {
		It("should require an order ID", func() {
			_, err := svc.History("")
			Expect(internal.IsCode(err, internal.CodeMissingField)).To(BeTrue())
		})

		It("should return the order's audit trail", func() {
			Expect(repo.Create(&payment.Log{Provider: "stripe", Operation: "initiate", OrderID: "ORD-1"})).To(Succeed())
			Expect(repo.Create(&payment.Log{Provider: "stripe", Operation: "capture", OrderID: "ORD-1"})).To(Succeed())
			Expect(repo.Create(&payment.Log{Provider: "stripe", Operation: "initiate", OrderID: "ORD-2"})).To(Succeed())

			logs, err := svc.History("ORD-1")
			Expect(err).ToNot(HaveOccurred())
			Expect(logs).To(HaveLen(2))
		})
	})

	Describe("with no repository wired", func() {
		It("should still complete operations", func() {
			svc = paymentsvc.NewService(resolver, nil, bus, slog.Default())
			res, err := payment.NewResult(payment.Result{
				Success:   true,
				Status:    payment.StatusCompleted,
				PaymentID: "pi_123",
			})
			Expect(err).ToNot(HaveOccurred())
			gw.captureRes = res

			result, err := svc.Capture(context.Background(), "stripe", "pi_123")
			Expect(err).ToNot(HaveOccurred())
			Expect(result.Success).To(BeTrue())
		})

		It("should report an empty history", func() {
			svc = paymentsvc.NewService(resolver, nil, bus, slog.Default())

			logs, err := svc.History("ORD-1")

			Expect(err).ToNot(HaveOccurred())
			Expect(logs).To(BeEmpty())
		})
	})
})
