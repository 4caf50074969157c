package invoice

import (
	"time"
)

// Sequence represents a tenant's invoice number sequence for a specific
// period (year-month by default). The persistence layer must increment
// LastValue atomically so two concurrent creations never observe the same
// value.
type Sequence struct {
	ID        string
	TenantID  string
	Period    string
	LastValue int64
	CreatedAt time.Time
	UpdatedAt time.Time
}
