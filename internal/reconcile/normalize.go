package reconcile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// trailingAmountPattern matches a signed amount with exactly two fraction
// digits at the very end of a receipt line.
var trailingAmountPattern = regexp.MustCompile(`(-?\d+\.\d{2})\s*$`)

var errNull = errors.New("value is null")

// Normalize coerces every numeric field of the extraction into a float and
// returns a fresh Receipt. Absent fields default to zero; tip may also be
// null. Any other value that is not a number or numeric text fails with an
// *InvalidNumericFieldError.
func Normalize(raw *RawReceipt) (*Receipt, error) {
	if raw == nil {
		return nil, fmt.Errorf("normalizing receipt: no extraction")
	}

	r := &Receipt{
		Merchant: raw.Merchant,
		Date:     raw.Date,
		Items:    make([]*LineItem, 0, len(raw.Items)),
	}

	totals := []struct {
		name     string
		field    RawField
		dst      *float64
		nullable bool
	}{
		{"subtotal", raw.Subtotal, &r.Subtotal, false},
		{"tax", raw.Tax, &r.Tax, false},
		{"total", raw.Total, &r.Total, false},
		{"tip", raw.Tip, &r.Tip, true},
	}
	for _, t := range totals {
		v, err := coerceField(t.field, t.nullable)
		if err != nil {
			return nil, &InvalidNumericFieldError{Field: t.name, Index: -1, Value: t.field.String(), Err: err}
		}
		*t.dst = v
	}

	for i, it := range raw.Items {
		qty, err := coerceField(it.Qty, false)
		if err != nil {
			return nil, &InvalidNumericFieldError{Field: "qty", Item: it.Name, Index: i, Value: it.Qty.String(), Err: err}
		}

		price, err := coerceField(it.Price, false)
		if err != nil {
			// The trailing amount on the raw line replaces the price anyway.
			if _, ok := trailingAmount(it.RawLine); !ok {
				return nil, &InvalidNumericFieldError{Field: "price", Item: it.Name, Index: i, Value: it.Price.String(), Err: err}
			}
			price = 0
		}

		r.Items = append(r.Items, &LineItem{
			RawLine:          it.RawLine,
			Name:             it.Name,
			Quantity:         qty,
			LinePrice:        price,
			NeedsManualPrice: it.NeedsManualPrice,
		})
	}

	return r, nil
}

// ValidateQuantities fails on the first item whose quantity is not positive.
// It must run before pricing so that no unit price is derived from a zero
// or negative quantity.
func ValidateQuantities(r *Receipt) error {
	for i, it := range r.Items {
		if it.Quantity <= 0 {
			return &InvalidQuantityError{Item: it.Name, Index: i, Quantity: it.Quantity}
		}
	}
	return nil
}

// OverridePriceFromRawLine replaces an item's extracted price with the
// amount printed at the end of its raw line, sign included.
func OverridePriceFromRawLine(r *Receipt) {
	for _, it := range r.Items {
		if v, ok := trailingAmount(it.RawLine); ok {
			it.LinePrice = v
		}
	}
}

// ManualPriceItems lists the names of items the recognizer could not price
func ManualPriceItems(r *Receipt) []string {
	var names []string
	for i, it := range r.Items {
		if it.NeedsManualPrice {
			name := it.Name
			if name == "" {
				name = itemLabel(i, "")
			}
			names = append(names, name)
		}
	}
	return names
}

func trailingAmount(line *string) (float64, bool) {
	if line == nil {
		return 0, false
	}
	s := strings.TrimSpace(*line)
	if s == "" {
		return 0, false
	}
	m := trailingAmountPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func coerceField(f RawField, nullable bool) (float64, error) {
	if f.IsZero() {
		return 0, nil
	}
	if f.IsNull() {
		if nullable {
			return 0, nil
		}
		return 0, errNull
	}
	return coerceNumber(f.raw)
}

func coerceNumber(raw json.RawMessage) (float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, errNull
	}

	var text string
	switch c := raw[0]; {
	case c == '"':
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, fmt.Errorf("decoding text: %w", err)
		}
	case c == '-' || (c >= '0' && c <= '9'):
		text = string(raw)
	default:
		return 0, fmt.Errorf("not a number or numeric text")
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", text)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number: %q", text)
	}
	return v, nil
}
