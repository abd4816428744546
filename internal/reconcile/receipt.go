package reconcile

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// RawField is a numeric value as reported by the recognizer. It may be
// absent, null, a JSON number or a number written as text.
type RawField struct {
	raw json.RawMessage
	set bool
}

// Number returns a RawField holding a JSON number
func Number(v float64) RawField {
	return RawField{raw: json.RawMessage(strconv.FormatFloat(v, 'f', -1, 64)), set: true}
}

// Text returns a RawField holding a JSON string
func Text(s string) RawField {
	b, _ := json.Marshal(s)
	return RawField{raw: b, set: true}
}

// Null returns a RawField holding an explicit JSON null
func Null() RawField {
	return RawField{raw: json.RawMessage("null"), set: true}
}

// IsZero reports whether the field was absent from the extraction.
// It lets `omitzero` drop absent fields when re-encoding.
func (f RawField) IsZero() bool {
	return !f.set
}

// IsNull reports whether the field was present as an explicit null
func (f RawField) IsNull() bool {
	return f.set && string(bytes.TrimSpace(f.raw)) == "null"
}

// String returns the raw JSON text of the field
func (f RawField) String() string {
	if !f.set {
		return "<absent>"
	}
	return string(f.raw)
}

func (f *RawField) UnmarshalJSON(b []byte) error {
	f.raw = append(f.raw[:0], b...)
	f.set = true
	return nil
}

func (f RawField) MarshalJSON() ([]byte, error) {
	if !f.set {
		return []byte("null"), nil
	}
	return f.raw, nil
}

// RawItem is one line item exactly as extracted
type RawItem struct {
	RawLine          *string  `json:"raw_line,omitempty"`
	Name             string   `json:"name"`
	Qty              RawField `json:"qty,omitzero"`
	Price            RawField `json:"price,omitzero"`
	NeedsManualPrice bool     `json:"needs_manual_price,omitempty"`
}

// RawReceipt is the tolerant input shape shared by every extraction format.
// raw_line, needs_manual_price and tip are optional.
type RawReceipt struct {
	Merchant string    `json:"merchant"`
	Date     string    `json:"date"`
	Items    []RawItem `json:"items"`
	Subtotal RawField  `json:"subtotal,omitzero"`
	Tax      RawField  `json:"tax,omitzero"`
	Tip      RawField  `json:"tip,omitzero"`
	Total    RawField  `json:"total,omitzero"`
}

// LineItem is a normalized line item. LinePrice starts as the extracted
// price and holds the resolved line total once pricing is reconciled.
type LineItem struct {
	RawLine          *string `json:"raw_line,omitempty"`
	Name             string  `json:"name"`
	Quantity         float64 `json:"qty"`
	UnitPrice        float64 `json:"unit_price,omitempty"`
	LinePrice        float64 `json:"price"`
	NeedsManualPrice bool    `json:"needs_manual_price,omitempty"`
}

// Receipt is the canonical receipt record. Item order is significant:
// discount lines fold into the item retained just before them.
type Receipt struct {
	Merchant string      `json:"merchant"`
	Date     string      `json:"date"`
	Items    []*LineItem `json:"items"`
	Subtotal float64     `json:"subtotal"`
	Tax      float64     `json:"tax"`
	Tip      float64     `json:"tip"`
	Total    float64     `json:"total"`
}
