package reconcile

import "fmt"

// WarningKind names a consistency check that failed
type WarningKind string

const (
	WarningSubtotalMismatch WarningKind = "subtotal_mismatch"
	WarningTotalMismatch    WarningKind = "total_mismatch"
)

// Warning is an arithmetic disagreement on the receipt. It never stops processing.
type Warning struct {
	Kind       WarningKind `json:"kind"`
	Computed   float64     `json:"computed"`
	Stated     float64     `json:"stated"`
	Difference float64     `json:"difference"`
}

func (w Warning) String() string {
	switch w.Kind {
	case WarningSubtotalMismatch:
		return fmt.Sprintf("subtotal mismatch: items sum to %.2f, receipt says %.2f", w.Computed, w.Stated)
	case WarningTotalMismatch:
		return fmt.Sprintf("total mismatch: subtotal + tax + tip is %.2f, receipt says %.2f", w.Computed, w.Stated)
	}
	return fmt.Sprintf("%s: %.2f vs %.2f", w.Kind, w.Computed, w.Stated)
}

// Diagnostics is the advisory channel that travels next to the receipt
type Diagnostics struct {
	Warnings         []Warning `json:"warnings,omitempty"`
	ManualPriceItems []string  `json:"manual_price_items,omitempty"`
}

// CheckConsistency compares the item prices with the subtotal, and
// subtotal + tax + tip with the total. It only reports; the receipt is
// never changed to force agreement.
func CheckConsistency(r *Receipt) []Warning {
	var warnings []Warning

	var itemsSum float64
	for _, it := range r.Items {
		itemsSum += it.LinePrice
	}
	if !sameCents(itemsSum, r.Subtotal) {
		warnings = append(warnings, newWarning(WarningSubtotalMismatch, itemsSum, r.Subtotal))
	}

	expected := r.Subtotal + r.Tax + r.Tip
	if !sameCents(expected, r.Total) {
		warnings = append(warnings, newWarning(WarningTotalMismatch, expected, r.Total))
	}

	return warnings
}

func newWarning(kind WarningKind, computed, stated float64) Warning {
	return Warning{
		Kind:       kind,
		Computed:   computed,
		Stated:     stated,
		Difference: round2(computed - stated),
	}
}
