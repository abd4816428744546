// Package reconcile turns an untrusted receipt extraction into a canonical,
// arithmetically checked Receipt.
//
// The pipeline is Normalize → OverridePriceFromRawLine → ValidateQuantities
// → Reclassify → ResolvePricing → CheckConsistency. Only malformed numbers
// and non-positive quantities are errors; arithmetic disagreements are
// reported through Result.Pricing and Result.Diagnostics.
//
// Everything here is pure and keeps no state between receipts, so separate
// receipts may be reconciled concurrently.
package reconcile

// State is the terminal state of a reconciliation
type State string

const (
	StatePriceReconciled     State = "price_reconciled"
	StateAmbiguityUnresolved State = "ambiguity_unresolved"
)

// Result is a reconciled receipt together with everything the caller
// should know about how it was obtained.
type Result struct {
	Receipt     *Receipt    `json:"receipt"`
	State       State       `json:"state"`
	Pricing     Pricing     `json:"pricing"`
	Adjustments Adjustments `json:"adjustments"`
	Diagnostics Diagnostics `json:"diagnostics"`
}

// Unresolved reports whether neither pricing interpretation matched the total
func (r *Result) Unresolved() bool {
	return r.State == StateAmbiguityUnresolved
}

// Reconcile runs the full pipeline over one extraction
func Reconcile(raw *RawReceipt) (*Result, error) {
	r, err := Normalize(raw)
	if err != nil {
		return nil, err
	}

	// Collected before reclassification, so flagged tip or discount lines are listed too.
	diag := Diagnostics{ManualPriceItems: ManualPriceItems(r)}

	OverridePriceFromRawLine(r)
	if err := ValidateQuantities(r); err != nil {
		return nil, err
	}

	adj := Reclassify(r)
	pricing := ResolvePricing(r)
	diag.Warnings = CheckConsistency(r)

	state := StatePriceReconciled
	if !pricing.Resolved() {
		state = StateAmbiguityUnresolved
	}

	return &Result{
		Receipt:     r,
		State:       state,
		Pricing:     pricing,
		Adjustments: adj,
		Diagnostics: diag,
	}, nil
}
