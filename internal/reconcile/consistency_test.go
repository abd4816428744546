package reconcile

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("CheckConsistency", func() {
	var (
		receipt  *Receipt
		warnings []Warning
	)

	JustBeforeEach(func() {
		warnings = CheckConsistency(receipt)
	})

	When("everything adds up", func() {
		BeforeEach(func() {
			receipt = &Receipt{Subtotal: 10, Tax: 1, Total: 11, Items: []*LineItem{item("A", 2, 10)}}
		})

		It("should not warn", func() {
			Expect(warnings).To(BeEmpty())
		})
	})

	When("items do not add up to the subtotal", func() {
		BeforeEach(func() {
			receipt = &Receipt{Subtotal: 12, Tax: 1, Total: 13, Items: []*LineItem{item("A", 1, 10)}}
		})

		It("should warn about the subtotal only", func() {
			Expect(warnings).To(HaveLen(1))
			Expect(warnings[0].Kind).To(Equal(WarningSubtotalMismatch))
			Expect(warnings[0].Computed).To(Equal(10.0))
			Expect(warnings[0].Stated).To(Equal(12.0))
			Expect(warnings[0].Difference).To(Equal(-2.0))
		})

		It("should describe the mismatch", func() {
			Expect(warnings[0].String()).To(ContainSubstring("10.00"))
		})
	})

	When("subtotal, tax and tip do not add up to the total", func() {
		BeforeEach(func() {
			receipt = &Receipt{Subtotal: 10, Tax: 1, Tip: 2, Total: 11, Items: []*LineItem{item("A", 1, 10)}}
		})

		It("should warn about the total", func() {
			Expect(warnings).To(ConsistOf(HaveField("Kind", WarningTotalMismatch)))
			Expect(warnings[0].Computed).To(Equal(13.0))
		})
	})

	When("the difference is below half a cent", func() {
		BeforeEach(func() {
			receipt = &Receipt{Subtotal: 0.3, Total: 0.3, Items: []*LineItem{item("A", 1, 0.1), item("B", 1, 0.2)}}
		})

		It("should not warn", func() {
			Expect(warnings).To(BeEmpty())
		})
	})

	When("the items sum is a fraction of a cent off", func() {
		BeforeEach(func() {
			receipt = &Receipt{Subtotal: 10, Total: 10, Items: []*LineItem{item("A", 1, 10.004)}}
		})

		It("should not warn", func() {
			Expect(warnings).To(BeEmpty())
		})
	})
})
