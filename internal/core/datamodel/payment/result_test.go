package payment_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	errors "github.com/frahmantamala/payment-gateway/internal"
	"github.com/frahmantamala/payment-gateway/internal/core/datamodel/payment"
)

var _ = Describe("Result", func() {
	Describe("NewResult", func() {
		Context("with a successful outcome", func() {
			It("should require at least one identifier", func() {
				_, err := payment.NewResult(payment.Result{
					Success: true,
					Status:  payment.StatusCompleted,
				})

				Expect(errors.IsCode(err, errors.CodeValidationFailed)).To(BeTrue())
			})

			It("should accept a transaction ID alone", func() {
				res, err := payment.NewResult(payment.Result{
					Success:       true,
					Status:        payment.StatusCompleted,
					TransactionID: "tx-123",
				})

				Expect(err).ToNot(HaveOccurred())
				Expect(res.TransactionID).To(Equal("tx-123"))
			})
		})

		Context("with a failed outcome", func() {
			It("should not require identifiers", func() {
				res, err := payment.NewResult(payment.Result{
					Success: false,
					Status:  payment.StatusFailed,
					Message: "declined",
				})

				Expect(err).ToNot(HaveOccurred())
				Expect(res.Success).To(BeFalse())
			})
		})

		Context("with an invalid status", func() {
			It("should reject an empty status", func() {
				_, err := payment.NewResult(payment.Result{Status: ""})
				Expect(errors.IsCode(err, errors.CodeMissingField)).To(BeTrue())
			})

			It("should reject unsafe characters", func() {
				_, err := payment.NewResult(payment.Result{Status: "failed; DROP TABLE"})
				Expect(errors.IsCode(err, errors.CodeValidationFailed)).To(BeTrue())
			})

			It("should reject statuses over 50 characters", func() {
				_, err := payment.NewResult(payment.Result{
					Status: strings.Repeat("a", 51),
				})
				Expect(errors.IsCode(err, errors.CodeInvalidFieldLength)).To(BeTrue())
			})

			It("should accept provider-specific statuses in the safe class", func() {
				res, err := payment.NewResult(payment.Result{
					Success:   false,
					Status:    "requires_payment_method",
					PaymentID: "pi_123",
				})

				Expect(err).ToNot(HaveOccurred())
				Expect(res.Status).To(Equal("requires_payment_method"))
			})
		})

		It("should deep-copy the data map", func() {
			data := map[string]any{"Ds_Order": "1234"}
			res, err := payment.NewResult(payment.Result{
				Success:   true,
				Status:    payment.StatusCompleted,
				PaymentID: "1234",
				Data:      data,
			})
			Expect(err).ToNot(HaveOccurred())

			data["Ds_Order"] = "mutated"
			Expect(res.Data["Ds_Order"]).To(Equal("1234"))
		})
	})

	Describe("NormalizeStatus", func() {
		It("should fold case and dashes", func() {
			Expect(payment.NormalizeStatus("Not-Supported")).To(Equal("not_supported"))
		})

		It("should leave canonical statuses unchanged", func() {
			Expect(payment.NormalizeStatus("completed")).To(Equal("completed"))
		})
	})

	Describe("IsKnownStatus", func() {
		It("should recognize known statuses regardless of spelling", func() {
			Expect(payment.IsKnownStatus("COMPLETED")).To(BeTrue())
			Expect(payment.IsKnownStatus("not-supported")).To(BeTrue())
		})

		It("should not recognize provider-specific statuses", func() {
			Expect(payment.IsKnownStatus("requires_payment_method")).To(BeFalse())
		})
	})
})
