package reconcile

import (
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Reconcile", func() {
	var (
		input  string
		result *Result
		err    error
	)

	JustBeforeEach(func() {
		var raw RawReceipt
		Expect(json.Unmarshal([]byte(input), &raw)).To(Succeed())
		result, err = Reconcile(&raw)
	})

	When("the receipt has a discount and a gratuity line", func() {
		BeforeEach(func() {
			input = `{
				"merchant": "Diner",
				"date": "2024-05-04",
				"items": [
					{"raw_line": "1 Burger 12.50", "name": "Burger", "qty": 1, "price": 12.5},
					{"raw_line": "2 Fries 8.00", "name": "Fries", "qty": "2", "price": "8"},
					{"raw_line": "Happy Hour -2.00", "name": "Happy Hour", "qty": 1, "price": -2},
					{"raw_line": "Gratuity 5.00", "name": "Gratuity", "qty": 1, "price": 5}
				],
				"subtotal": "18.50",
				"tax": 1.5,
				"total": 25
			}`
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should end in the reconciled state", func() {
			Expect(result.State).To(Equal(StatePriceReconciled))
			Expect(result.Unresolved()).To(BeFalse())
			Expect(result.Pricing.Interpretation).To(Equal(InterpretationLineTotal))
		})

		It("should move the gratuity into tip", func() {
			Expect(result.Receipt.Tip).To(Equal(5.0))
			Expect(result.Adjustments.TipFromLine).To(BeTrue())
		})

		It("should keep only purchasable items", func() {
			Expect(names(result.Receipt.Items)).To(Equal([]string{"Burger", "Fries"}))
		})

		It("should fold the discount into the fries", func() {
			fries := result.Receipt.Items[1]
			Expect(fries.LinePrice).To(Equal(6.0))
			Expect(fries.UnitPrice).To(Equal(3.0))
		})

		It("should not warn", func() {
			Expect(result.Diagnostics.Warnings).To(BeEmpty())
			Expect(result.Diagnostics.ManualPriceItems).To(BeEmpty())
		})
	})

	When("the extracted prices are unit prices", func() {
		BeforeEach(func() {
			input = `{"items": [{"name": "Beer", "qty": 3, "price": 4}], "subtotal": 12, "tax": 0.96, "total": 12.96}`
		})

		It("should resolve to per-unit pricing", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Pricing.Interpretation).To(Equal(InterpretationPerUnit))
			Expect(result.Receipt.Items[0].LinePrice).To(Equal(12.0))
			Expect(result.Receipt.Items[0].UnitPrice).To(Equal(4.0))
			Expect(result.Diagnostics.Warnings).To(BeEmpty())
		})
	})

	When("no interpretation matches the total", func() {
		BeforeEach(func() {
			input = `{"items": [{"name": "Soup", "qty": 1, "price": 5}], "subtotal": 5, "tax": 0, "total": 9}`
		})

		It("should still return a receipt", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Receipt.Items[0].LinePrice).To(Equal(5.0))
		})

		It("should report the ambiguity", func() {
			Expect(result.Unresolved()).To(BeTrue())
			Expect(result.State).To(Equal(StateAmbiguityUnresolved))
			Expect(result.Pricing.ComputedSum).To(HaveValue(Equal(5.0)))
		})

		It("should warn about the total", func() {
			Expect(result.Diagnostics.Warnings).To(ConsistOf(HaveField("Kind", WarningTotalMismatch)))
		})
	})

	When("an item needs a manual price", func() {
		BeforeEach(func() {
			input = `{"items": [
				{"name": "Tea", "qty": 1, "price": 3},
				{"name": "Smudged", "qty": 1, "price": 0, "needs_manual_price": true}
			], "subtotal": 3, "tax": 0, "total": 3}`
		})

		It("should list it in the diagnostics", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Diagnostics.ManualPriceItems).To(ConsistOf("Smudged"))
		})
	})

	When("the raw line disagrees with the extracted price", func() {
		BeforeEach(func() {
			input = `{"items": [{"raw_line": "Pie 4.25", "name": "Pie", "qty": 1, "price": 425}],
				"subtotal": 4.25, "tax": 0, "total": 4.25}`
		})

		It("should trust the raw line", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Receipt.Items[0].LinePrice).To(Equal(4.25))
			Expect(result.Diagnostics.Warnings).To(BeEmpty())
		})
	})

	When("a quantity is zero", func() {
		BeforeEach(func() {
			input = `{"items": [{"name": "Ghost", "qty": 0, "price": 1}], "subtotal": 1, "tax": 0, "total": 1}`
		})

		It("returns an InvalidQuantity error and no result", func() {
			Expect(errors.Is(err, ErrInvalidQuantity)).To(BeTrue())
			Expect(result).To(BeNil())
		})
	})

	When("a number is malformed", func() {
		BeforeEach(func() {
			input = `{"items": [], "subtotal": 0, "tax": "one", "total": 0}`
		})

		It("returns an InvalidNumericField error and no result", func() {
			Expect(errors.Is(err, ErrInvalidNumericField)).To(BeTrue())
			Expect(result).To(BeNil())
		})
	})

	When("the result is encoded as JSON", func() {
		BeforeEach(func() {
			input = `{"merchant": "Cafe", "items": [{"name": "Latte", "qty": 2, "price": 9}], "subtotal": 9, "tax": 0, "total": 9}`
		})

		It("should use the documented field names", func() {
			data, err := json.Marshal(result)
			Expect(err).NotTo(HaveOccurred())

			var doc map[string]any
			Expect(json.Unmarshal(data, &doc)).To(Succeed())
			Expect(doc).To(HaveKeyWithValue("state", "price_reconciled"))
			Expect(doc["receipt"]).To(HaveKeyWithValue("merchant", "Cafe"))
			items := doc["receipt"].(map[string]any)["items"].([]any)
			Expect(items[0]).To(HaveKeyWithValue("qty", 2.0))
			Expect(items[0]).To(HaveKeyWithValue("price", 9.0))
			Expect(items[0]).To(HaveKeyWithValue("unit_price", 4.5))
		})
	})
})
