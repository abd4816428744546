package receipt

import (
	"time"

	"github.com/zombor/receipt-reconciler/internal/reconcile"
)

// Result is one processed receipt: the reconciled receipt plus where it
// came from and when it was processed
type Result struct {
	ID          string    `json:"id"`
	Source      string    `json:"source,omitempty"`
	ProcessedAt time.Time `json:"processed_at"`
	*reconcile.Result
}
