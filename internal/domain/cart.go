package domain

// CartLine is one product entry within a user's cart. Name and unit
// price are captured when the line is first created and do not track
// later catalog changes.
type CartLine struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

// Subtotal returns quantity times the captured unit price
func (l CartLine) Subtotal() int64 {
	return int64(l.Quantity) * l.UnitPrice
}
