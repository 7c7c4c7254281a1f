package cart

import (
	"errors"
	"strings"
	"sync"

	"parts-bot/internal/domain"
)

// Common errors returned by the store
var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

// InsufficientStockError reports a rejected add together with how many
// units were actually available at validation time.
type InsufficientStockError struct {
	Code      string
	Available int
}

func (e *InsufficientStockError) Error() string {
	return "insufficient stock for " + e.Code
}

// userCart keeps lines by code plus insertion order for presentation
type userCart struct {
	lines map[string]*domain.CartLine
	order []string
}

// Store holds one cart per user for the process lifetime. State is
// partitioned by user identifier; every mutation is a read-then-write
// under one lock so rapid repeated adds for the same user cannot race
// past the stock check.
type Store struct {
	mu    sync.RWMutex
	carts map[string]*userCart
}

// NewStore creates an empty in-memory cart store
func NewStore() *Store {
	return &Store{
		carts: make(map[string]*userCart),
	}
}

// Add puts qty units of the product into the user's cart. The stock
// value on the supplied product is trusted as fresh; callers must
// re-fetch the product from the catalog immediately before calling.
// On first insert the line captures the product's current name and
// wholesale price.
func (s *Store) Add(userID string, product domain.Product, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[userID]
	if !ok {
		c = &userCart{lines: make(map[string]*domain.CartLine)}
		s.carts[userID] = c
	}

	key := normalizeCode(product.Code)
	current := 0
	if line, ok := c.lines[key]; ok {
		current = line.Quantity
	}

	if current+qty > product.Stock {
		return &InsufficientStockError{Code: product.Code, Available: product.Stock}
	}

	line, ok := c.lines[key]
	if !ok {
		line = &domain.CartLine{
			Code:      product.Code,
			Name:      product.Name,
			UnitPrice: product.WholesalePrice,
		}
		c.lines[key] = line
		c.order = append(c.order, key)
	}
	line.Quantity += qty

	return nil
}

// ChangeQuantity adds delta (possibly negative) to an existing line.
// A resulting quantity of zero or less removes the line entirely.
// No-op when the user or code is absent.
func (s *Store) ChangeQuantity(userID, code string, delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[userID]
	if !ok {
		return
	}

	key := normalizeCode(code)
	line, ok := c.lines[key]
	if !ok {
		return
	}

	line.Quantity += delta
	if line.Quantity <= 0 {
		delete(c.lines, key)
		for i, k := range c.order {
			if k == key {
				c.order = append(c.order[:i], c.order[i+1:]...)
				break
			}
		}
	}
}

// Quantity returns how many units of the code the user currently holds
func (s *Store) Quantity(userID, code string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.carts[userID]
	if !ok {
		return 0
	}
	line, ok := c.lines[normalizeCode(code)]
	if !ok {
		return 0
	}
	return line.Quantity
}

// Clear replaces the user's cart with an empty one
func (s *Store) Clear(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, userID)
}

// Snapshot returns the user's cart lines in insertion order. The
// returned slice is a copy and safe to hold across later mutations.
func (s *Store) Snapshot(userID string) []domain.CartLine {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.carts[userID]
	if !ok {
		return nil
	}

	lines := make([]domain.CartLine, 0, len(c.order))
	for _, key := range c.order {
		lines = append(lines, *c.lines[key])
	}
	return lines
}

func normalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
