package order

import (
	"time"

	"parts-bot/internal/cart"
	"parts-bot/internal/domain"

	"github.com/google/uuid"
)

// Summarizer derives order summaries from cart state
type Summarizer struct {
	cart *cart.Store
}

// NewSummarizer creates a summarizer over the given cart store
func NewSummarizer(c *cart.Store) *Summarizer {
	return &Summarizer{cart: c}
}

// Compute builds line items and totals from the user's current cart.
// Pure derivation: no side effects and no catalog re-validation, so
// the total reflects cart state exactly even if stock has since
// dropped below a line's quantity.
func (s *Summarizer) Compute(userID string) domain.Order {
	lines := s.cart.Snapshot(userID)

	o := domain.Order{
		ID:        uuid.New(),
		UserID:    userID,
		CreatedAt: time.Now(),
	}

	for _, l := range lines {
		subtotal := l.Subtotal()
		o.Lines = append(o.Lines, domain.OrderLine{
			Code:      l.Code,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Subtotal:  subtotal,
		})
		o.GrandTotal += subtotal
	}

	return o
}
