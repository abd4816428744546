package reconcile

import "math"

// Fold records a discount line absorbed into the item before it
type Fold struct {
	Discount string  `json:"discount"`
	Target   string  `json:"target"`
	Amount   float64 `json:"amount"`
	Before   float64 `json:"before"`
	After    float64 `json:"after"`
}

// Adjustments describes what reclassification did to the item list
type Adjustments struct {
	TipLines         []string `json:"tip_lines,omitempty"`
	TipFromLine      bool     `json:"tip_from_line"`
	Folded           []Fold   `json:"folded,omitempty"`
	DroppedDiscounts []string `json:"dropped_discounts,omitempty"`
}

// Reclassify walks the items once, in order, and removes everything that is
// not a purchasable good:
//
//   - tip lines set Tip when it is still zero and are always removed
//   - discount lines (keyword or negative price) are added to the most
//     recently retained item, floored at zero, or dropped when no item has
//     been retained yet
//   - everything else is retained
//
// Discounts are assumed to follow the item they reduce on the printed
// receipt; a discount aimed at an earlier, non-adjacent item is not detected.
func Reclassify(r *Receipt) Adjustments {
	var adj Adjustments
	kept := make([]*LineItem, 0, len(r.Items))
	var last *LineItem

	for _, it := range r.Items {
		switch {
		case IsTipLine(it.Name):
			adj.TipLines = append(adj.TipLines, it.Name)
			if r.Tip == 0 {
				r.Tip = it.LinePrice
				adj.TipFromLine = true
			}
		case IsDiscountLine(it.Name, it.LinePrice):
			if last == nil {
				adj.DroppedDiscounts = append(adj.DroppedDiscounts, it.Name)
				continue
			}
			before := last.LinePrice
			last.LinePrice = math.Max(0, before+it.LinePrice)
			adj.Folded = append(adj.Folded, Fold{
				Discount: it.Name,
				Target:   last.Name,
				Amount:   it.LinePrice,
				Before:   before,
				After:    last.LinePrice,
			})
		default:
			kept = append(kept, it)
			last = it
		}
	}

	r.Items = kept
	return adj
}
