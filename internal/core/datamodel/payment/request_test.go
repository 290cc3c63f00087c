package payment_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	errors "github.com/frahmantamala/payment-gateway/internal"
	"github.com/frahmantamala/payment-gateway/internal/core/datamodel/payment"
)

var _ = Describe("Request", func() {
	var base payment.Request

	BeforeEach(func() {
		base = payment.Request{
			Amount:   99.90,
			Currency: "EUR",
			OrderID:  "ORD-2024-001",
		}
	})

	Describe("NewRequest", func() {
		Context("with valid parameters", func() {
			It("should return a validated copy", func() {
				req, err := payment.NewRequest(base)

				Expect(err).ToNot(HaveOccurred())
				Expect(req.Amount).To(Equal(99.90))
				Expect(req.Currency).To(Equal("EUR"))
				Expect(req.OrderID).To(Equal("ORD-2024-001"))
			})

			It("should accept the maximum amount", func() {
				base.Amount = 999999.99

				_, err := payment.NewRequest(base)
				Expect(err).ToNot(HaveOccurred())
			})

			It("should deep-copy metadata so caller mutations do not leak", func() {
				base.Metadata = map[string]string{"description": "Concert ticket"}

				req, err := payment.NewRequest(base)
				Expect(err).ToNot(HaveOccurred())

				base.Metadata["description"] = "changed"
				Expect(req.Metadata["description"]).To(Equal("Concert ticket"))
			})
		})

		Context("with an invalid amount", func() {
			It("should reject zero", func() {
				base.Amount = 0

				_, err := payment.NewRequest(base)
				Expect(errors.IsCode(err, errors.CodeInvalidAmount)).To(BeTrue())
			})

			It("should reject negative amounts", func() {
				base.Amount = -5

				_, err := payment.NewRequest(base)
				Expect(errors.IsCode(err, errors.CodeInvalidAmount)).To(BeTrue())
			})

			It("should reject amounts above the maximum", func() {
				base.Amount = 1000000.00

				_, err := payment.NewRequest(base)
				Expect(errors.IsCode(err, errors.CodeInvalidAmount)).To(BeTrue())
			})
		})

		Context("with an invalid currency", func() {
			It("should reject a 2-letter code", func() {
				base.Currency = "EU"

				_, err := payment.NewRequest(base)
				Expect(errors.IsCode(err, errors.CodeInvalidCurrency)).To(BeTrue())
			})

			It("should reject codes with digits", func() {
				base.Currency = "E1R"

				_, err := payment.NewRequest(base)
				Expect(errors.IsCode(err, errors.CodeInvalidCurrency)).To(BeTrue())
			})
		})

		Context("with an invalid order ID", func() {
			It("should reject an empty order ID", func() {
				base.OrderID = ""

				_, err := payment.NewRequest(base)
				Expect(errors.IsCode(err, errors.CodeInvalidOrderID)).To(BeTrue())
			})

			It("should reject whitespace-only order IDs", func() {
				base.OrderID = "   "

				_, err := payment.NewRequest(base)
				Expect(errors.IsCode(err, errors.CodeInvalidOrderID)).To(BeTrue())
			})
		})

		Context("with invalid URLs", func() {
			It("should reject a return URL without scheme", func() {
				base.ReturnURL = "example.com/return"

				_, err := payment.NewRequest(base)
				Expect(errors.IsCode(err, errors.CodeInvalidURL)).To(BeTrue())
			})

			It("should accept empty optional URLs", func() {
				base.ReturnURL = ""
				base.CancelURL = ""

				_, err := payment.NewRequest(base)
				Expect(err).ToNot(HaveOccurred())
			})
		})

		Context("with metadata constraints", func() {
			It("should reject an invalid customer email", func() {
				base.Metadata = map[string]string{"customer_email": "not-an-email"}

				_, err := payment.NewRequest(base)
				Expect(errors.IsCode(err, errors.CodeInvalidEmail)).To(BeTrue())
			})

			It("should reject an oversized description", func() {
				long := make([]byte, 501)
				for i := range long {
					long[i] = 'x'
				}
				base.Metadata = map[string]string{"description": string(long)}

				_, err := payment.NewRequest(base)
				Expect(errors.IsCode(err, errors.CodeInvalidFieldLength)).To(BeTrue())
			})
		})

		Context("with an unknown payment method", func() {
			It("should reject it", func() {
				base.Method = "crypto"

				_, err := payment.NewRequest(base)
				Expect(errors.IsCode(err, errors.CodeUnsupportedMethod)).To(BeTrue())
			})
		})
	})

	Describe("Description", func() {
		It("should prefer the metadata description", func() {
			base.Metadata = map[string]string{"description": "Concert ticket"}
			req, err := payment.NewRequest(base)
			Expect(err).ToNot(HaveOccurred())

			Expect(req.Description()).To(Equal("Concert ticket"))
		})

		It("should fall back to the order ID", func() {
			req, err := payment.NewRequest(base)
			Expect(err).ToNot(HaveOccurred())

			Expect(req.Description()).To(Equal("Order ORD-2024-001"))
		})
	})
})
