package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrderLine is one computed line item of an order summary
type OrderLine struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	Subtotal  int64  `json:"subtotal"`
}

// Order is a computed summary of one user's cart, ready for export
type Order struct {
	ID         uuid.UUID   `json:"id"`
	UserID     string      `json:"user_id"`
	Lines      []OrderLine `json:"lines"`
	GrandTotal int64       `json:"grand_total"`
	CreatedAt  time.Time   `json:"created_at"`
}

// IsEmpty reports whether the order has no line items
func (o *Order) IsEmpty() bool {
	return len(o.Lines) == 0
}
