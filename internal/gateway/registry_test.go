package gateway_test

import (
	"context"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/payment-gateway/internal"
	"github.com/frahmantamala/payment-gateway/internal/core/datamodel/payment"
	"github.com/frahmantamala/payment-gateway/internal/gateway"
)

// base64 of a 24-byte 3DES key
const testRedsysSecret = "MDEyMzQ1Njc4OTAxMjM0NTY3ODkwMTIz"

type fakeGateway struct{}

func (f *fakeGateway) Initiate(ctx context.Context, req *payment.Request) (*payment.Response, error) {
	return nil, nil
}
func (f *fakeGateway) Capture(ctx context.Context, paymentID string) (*payment.Result, error) {
	return nil, nil
}
func (f *fakeGateway) Refund(ctx context.Context, paymentID string, amount *float64) (*payment.Result, error) {
	return nil, nil
}
func (f *fakeGateway) GetStatus(ctx context.Context, paymentID string) (*payment.Result, error) {
	return nil, nil
}
func (f *fakeGateway) VerifyCallback(data map[string]string) (*payment.Result, error) {
	return nil, nil
}

var _ = Describe("Registry", func() {
	var (
		cfg      internal.PaymentsConfig
		registry *gateway.Registry
	)

	BeforeEach(func() {
		cfg = internal.PaymentsConfig{
			Stripe: internal.StripeConfig{SecretKey: "sk_test_123"},
			Redsys: internal.RedsysConfig{
				MerchantCode: "999008881",
				SecretKey:    testRedsysSecret,
				Terminal:     "1",
				Environment:  "test",
			},
			PayPal: internal.PayPalConfig{
				ClientID:     "client-id",
				ClientSecret: "client-secret",
				Environment:  "sandbox",
			},
		}
		registry = gateway.NewRegistry(cfg, slog.Default())
	})

	Describe("Driver", func() {
		Context("resolving built-in providers", func() {
			It("should construct each configured provider", func() {
				for _, provider := range []payment.Provider{
					payment.ProviderStripe,
					payment.ProviderRedsys,
					payment.ProviderPayPal,
				} {
					gw, err := registry.Driver(provider)
					Expect(err).ToNot(HaveOccurred(), string(provider))
					Expect(gw).ToNot(BeNil(), string(provider))
				}
			})

			It("should return the cached instance on repeated resolution", func() {
				first, err := registry.Driver(payment.ProviderStripe)
				Expect(err).ToNot(HaveOccurred())

				second, err := registry.Driver(payment.ProviderStripe)
				Expect(err).ToNot(HaveOccurred())
				Expect(second).To(BeIdenticalTo(first))
			})
		})

		Context("when a provider is misconfigured", func() {
			It("should surface the construction error and not cache it", func() {
				cfg.Stripe.SecretKey = ""
				registry = gateway.NewRegistry(cfg, slog.Default())

				_, err := registry.Driver(payment.ProviderStripe)
				Expect(internal.IsCode(err, internal.CodeMissingCredentials)).To(BeTrue())

				// still fails the same way: nothing was cached
				_, err = registry.Driver(payment.ProviderStripe)
				Expect(internal.IsCode(err, internal.CodeMissingCredentials)).To(BeTrue())
			})

			It("should reject a Redsys secret that is not a 24-byte key", func() {
				cfg.Redsys.SecretKey = "c2hvcnQ=" // "short"
				registry = gateway.NewRegistry(cfg, slog.Default())

				_, err := registry.Driver(payment.ProviderRedsys)
				Expect(internal.IsCode(err, internal.CodeInvalidAPIKey)).To(BeTrue())
			})
		})

		Context("resolving cash", func() {
			It("should explain that cash needs no online processing", func() {
				_, err := registry.Driver(payment.ProviderCash)
				Expect(internal.IsCode(err, internal.CodeInvalidConfiguration)).To(BeTrue())
			})
		})

		Context("resolving an unknown provider", func() {
			It("should return an unsupported provider error", func() {
				_, err := registry.Driver("bitcoin")
				Expect(internal.IsCode(err, internal.CodeUnsupportedProvider)).To(BeTrue())
			})
		})
	})

	Describe("Register", func() {
		It("should resolve a custom provider through its constructor", func() {
			custom := &fakeGateway{}
			calls := 0
			registry.Register("mock", func() (gateway.PaymentGateway, error) {
				calls++
				return custom, nil
			})

			gw, err := registry.Driver("mock")
			Expect(err).ToNot(HaveOccurred())
			Expect(gw).To(BeIdenticalTo(custom))

			// cached, constructor not run again
			_, err = registry.Driver("mock")
			Expect(err).ToNot(HaveOccurred())
			Expect(calls).To(Equal(1))
		})

		It("should reject a constructor returning no gateway", func() {
			registry.Register("broken", func() (gateway.PaymentGateway, error) {
				return nil, nil
			})

			_, err := registry.Driver("broken")
			Expect(internal.IsCode(err, internal.CodeInvalidConfiguration)).To(BeTrue())
		})

		It("should let a custom provider shadow nothing built in", func() {
			registry.Register("mock", func() (gateway.PaymentGateway, error) {
				return &fakeGateway{}, nil
			})

			// built-ins resolve before custom names
			_, err := registry.Driver(payment.ProviderStripe)
			Expect(err).ToNot(HaveOccurred())
		})
	})
})
