package payment_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	errors "github.com/frahmantamala/payment-gateway/internal"
	"github.com/frahmantamala/payment-gateway/internal/core/datamodel/payment"
)

var _ = Describe("Response", func() {
	Describe("NewResponse", func() {
		Context("for API responses", func() {
			It("should require a client secret", func() {
				_, err := payment.NewResponse(payment.Response{
					Type: payment.TypeAPI,
					Data: map[string]any{"payment_intent_id": "pi_123"},
				})

				Expect(errors.IsCode(err, errors.CodeMissingField)).To(BeTrue())
			})

			It("should accept a client secret", func() {
				resp, err := payment.NewResponse(payment.Response{
					Type:         payment.TypeAPI,
					Data:         map[string]any{"payment_intent_id": "pi_123"},
					ClientSecret: "pi_123_secret_abc",
				})

				Expect(err).ToNot(HaveOccurred())
				Expect(resp.IsAPI()).To(BeTrue())
			})
		})

		Context("for redirect responses", func() {
			It("should require a redirect URL or form HTML", func() {
				_, err := payment.NewResponse(payment.Response{
					Type: payment.TypeRedirect,
					Data: map[string]any{"order_id": "ORD-1"},
				})

				Expect(errors.IsCode(err, errors.CodeMissingField)).To(BeTrue())
			})

			It("should reject a malformed redirect URL", func() {
				_, err := payment.NewResponse(payment.Response{
					Type:        payment.TypeRedirect,
					Data:        map[string]any{"order_id": "ORD-1"},
					RedirectURL: "not-a-url",
				})

				Expect(errors.IsCode(err, errors.CodeInvalidURL)).To(BeTrue())
			})

			It("should accept form HTML without a redirect URL", func() {
				resp, err := payment.NewResponse(payment.Response{
					Type:     payment.TypeRedirect,
					Data:     map[string]any{"order_id": "ORD-1"},
					FormHTML: "<form></form>",
				})

				Expect(err).ToNot(HaveOccurred())
				Expect(resp.IsRedirect()).To(BeTrue())
			})
		})

		Context("for alternative responses", func() {
			It("should accept any non-empty data payload", func() {
				resp, err := payment.NewResponse(payment.Response{
					Type: payment.TypeAlternative,
					Data: map[string]any{"instructions": "pay at counter"},
				})

				Expect(err).ToNot(HaveOccurred())
				Expect(resp.IsAlternative()).To(BeTrue())
			})
		})

		Context("with an empty data payload", func() {
			It("should reject regardless of type", func() {
				_, err := payment.NewResponse(payment.Response{
					Type:         payment.TypeAPI,
					ClientSecret: "secret",
				})

				Expect(errors.IsCode(err, errors.CodeMissingField)).To(BeTrue())
			})
		})

		Context("with an unknown type", func() {
			It("should reject", func() {
				_, err := payment.NewResponse(payment.Response{
					Type: "webhook",
					Data: map[string]any{"x": 1},
				})

				Expect(errors.IsCode(err, errors.CodeValidationFailed)).To(BeTrue())
			})
		})
	})
})
