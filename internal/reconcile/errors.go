package reconcile

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidNumericField matches any *InvalidNumericFieldError
	ErrInvalidNumericField = errors.New("invalid numeric field")
	// ErrInvalidQuantity matches any *InvalidQuantityError
	ErrInvalidQuantity = errors.New("invalid quantity")
)

// InvalidNumericFieldError is returned when a required number cannot be coerced
type InvalidNumericFieldError struct {
	Field string // subtotal, tax, tip, total, qty or price
	Item  string // item name, empty for receipt-level fields
	Index int    // item position, -1 for receipt-level fields
	Value string // raw JSON text
	Err   error
}

func (e *InvalidNumericFieldError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("invalid numeric value for %s of %s: %s: %v", e.Field, itemLabel(e.Index, e.Item), e.Value, e.Err)
	}
	return fmt.Sprintf("invalid numeric value for %s: %s: %v", e.Field, e.Value, e.Err)
}

func (e *InvalidNumericFieldError) Is(target error) bool {
	return target == ErrInvalidNumericField
}

func (e *InvalidNumericFieldError) Unwrap() error {
	return e.Err
}

// InvalidQuantityError is returned for an item whose quantity is zero or negative
type InvalidQuantityError struct {
	Item     string
	Index    int
	Quantity float64
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("invalid quantity for %s: %g", itemLabel(e.Index, e.Item), e.Quantity)
}

func (e *InvalidQuantityError) Is(target error) bool {
	return target == ErrInvalidQuantity
}

// itemLabel names an item for error messages, falling back to its position
func itemLabel(index int, name string) string {
	if name == "" {
		return fmt.Sprintf("item #%d", index+1)
	}
	return fmt.Sprintf("item %q", name)
}
