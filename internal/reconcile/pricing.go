package reconcile

// Interpretation is the pricing convention the recognizer is assumed to have used
type Interpretation string

const (
	// InterpretationLineTotal treats each price as quantity × unit price
	InterpretationLineTotal Interpretation = "line_total"
	// InterpretationPerUnit treats each price as the price of one unit
	InterpretationPerUnit Interpretation = "per_unit"
)

// PricingStatus tags the outcome of ResolvePricing
type PricingStatus string

const (
	PricingResolved   PricingStatus = "resolved"
	PricingUnresolved PricingStatus = "unresolved"
)

// PricedItem is one item under a chosen interpretation
type PricedItem struct {
	Name      string  `json:"name"`
	Quantity  float64 `json:"qty"`
	UnitPrice float64 `json:"unit_price"`
	LineTotal float64 `json:"line_total"`
}

// Candidate is one interpretation that was tried. Sum is items + tax + tip.
type Candidate struct {
	Interpretation Interpretation `json:"interpretation"`
	Sum            float64        `json:"sum"`
	Matches        bool           `json:"matches"`
}

// Pricing is either Resolved, with the interpretation and per-item mapping,
// or Unresolved, with the sum that failed to match the stated total.
// ComputedSum is set only when Unresolved.
type Pricing struct {
	Status         PricingStatus  `json:"status"`
	Interpretation Interpretation `json:"interpretation,omitempty"`
	Items          []PricedItem   `json:"items,omitempty"`
	ComputedSum    *float64       `json:"computed_sum,omitempty"`
	Candidates     []Candidate    `json:"candidates"`
}

// Resolved reports whether an interpretation matched the stated total
func (p Pricing) Resolved() bool {
	return p.Status == PricingResolved
}

var interpretations = []Interpretation{InterpretationLineTotal, InterpretationPerUnit}

// ResolvePricing decides whether item prices are line totals or unit prices
// by checking which reading makes items + tax + tip equal the stated total.
// Line totals are tried first. When one matches, the receipt's items are
// rewritten so LinePrice holds the line total and UnitPrice the unit price.
// When neither matches the items are left untouched.
//
// Quantities must already be validated as positive.
func ResolvePricing(r *Receipt) Pricing {
	var p Pricing

	for _, interp := range interpretations {
		items := priceItems(r.Items, interp)
		sum := r.Tax + r.Tip
		for _, it := range items {
			sum += it.LineTotal
		}

		matches := sameCents(sum, r.Total)
		p.Candidates = append(p.Candidates, Candidate{Interpretation: interp, Sum: sum, Matches: matches})
		if matches {
			p.Status = PricingResolved
			p.Interpretation = interp
			p.Items = items
			for i, it := range r.Items {
				it.UnitPrice = items[i].UnitPrice
				it.LinePrice = items[i].LineTotal
			}
			return p
		}
	}

	// The sum reported is the per-unit reading, the last one tried.
	p.Status = PricingUnresolved
	p.ComputedSum = &p.Candidates[len(p.Candidates)-1].Sum
	return p
}

func priceItems(items []*LineItem, interp Interpretation) []PricedItem {
	out := make([]PricedItem, 0, len(items))
	for _, it := range items {
		pi := PricedItem{Name: it.Name, Quantity: it.Quantity}
		switch interp {
		case InterpretationLineTotal:
			pi.LineTotal = it.LinePrice
			pi.UnitPrice = it.LinePrice / it.Quantity
		case InterpretationPerUnit:
			pi.UnitPrice = it.LinePrice
			pi.LineTotal = it.LinePrice * it.Quantity
		}
		out = append(out, pi)
	}
	return out
}
