package scanning

import (
	"context"

	"github.com/zombor/receipt-reconciler/internal/reconcile"
)

// Scanner defines the interface for receipt recognition
type Scanner interface {
	// ScanReceipt reads a receipt image/PDF and returns the itemised extraction
	ScanReceipt(ctx context.Context, imageData []byte, contentType string) (*reconcile.RawReceipt, error)
	// Close closes the scanner and releases resources
	Close() error
}

// Named is implemented by scanners that can identify themselves, so cached
// responses from different providers or models are kept apart.
type Named interface {
	Name() string
}
