package session

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"parts-bot/internal/cart"
	"parts-bot/internal/catalog"
	"parts-bot/internal/domain"
)

// MaxDigits bounds manual quantity entry to 4 digits (up to 9999).
// Digits pushed beyond the bound are silently dropped.
const MaxDigits = 4

// Outcome discriminates the result of a confirm
type Outcome int

const (
	// Added means the quantity was accepted and the session is done
	Added Outcome = iota
	// EmptyInput means confirm was pressed with no digits entered
	EmptyInput
	// ProductGone means the session's code no longer resolves
	ProductGone
	// InsufficientStock means the cart rejected the quantity
	InsufficientStock
)

// ConfirmResult describes what a confirm did. On every outcome except
// Added the session stays alive so the user can immediately retry.
type ConfirmResult struct {
	Outcome   Outcome
	Product   domain.Product
	Quantity  int
	Available int // set on InsufficientStock
}

// entry is one user's in-progress quantity entry
type entry struct {
	code      string
	digits    string
	createdAt time.Time
}

// Registry tracks at most one quantity-entry session per user and
// terminates each one with a cart mutation. Only a successful confirm
// or an explicit cancel clears a session; every failure path keeps it
// alive so the keypad flow can continue without restarting.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry

	catalog *catalog.Cache
	cart    *cart.Store
}

// NewRegistry creates an empty session registry
func NewRegistry(c *catalog.Cache, s *cart.Store) *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		catalog: c,
		cart:    s,
	}
}

// Start opens a session for the code. An existing session for another
// code is silently replaced and its partial entry discarded.
func (r *Registry) Start(userID, code string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[userID] = &entry{code: code, createdAt: time.Now()}
}

// Active reports whether the user has a session, and for which code
func (r *Registry) Active(userID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[userID]
	if !ok {
		return "", false
	}
	return e.code, true
}

// Digits returns the digits entered so far
func (r *Registry) Digits(userID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[userID]; ok {
		return e.digits
	}
	return ""
}

// PushDigit appends one digit to the entry, silently dropping input
// past the length bound. No-op without an active session or for a
// non-digit byte.
func (r *Registry) PushDigit(userID string, d byte) {
	if d < '0' || d > '9' {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[userID]
	if !ok {
		return
	}
	if len(e.digits) >= MaxDigits {
		return
	}
	e.digits += string(d)
}

// Backspace removes the last entered digit, no-op when empty
func (r *Registry) Backspace(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[userID]
	if !ok {
		return
	}
	if len(e.digits) > 0 {
		e.digits = e.digits[:len(e.digits)-1]
	}
}

// Cancel drops the session unconditionally without touching the cart
func (r *Registry) Cancel(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, userID)
}

// ErrNoSession is returned by Confirm when the user has no session
var ErrNoSession = errors.New("no active quantity entry session")

// Confirm parses the entered digits, re-fetches the product by the
// session's code and attempts the cart mutation. The session is
// removed only when the add succeeds.
func (r *Registry) Confirm(ctx context.Context, userID string) (ConfirmResult, error) {
	r.mu.Lock()
	e, ok := r.entries[userID]
	if !ok {
		r.mu.Unlock()
		return ConfirmResult{}, ErrNoSession
	}
	code, digits := e.code, e.digits
	r.mu.Unlock()

	if digits == "" {
		return ConfirmResult{Outcome: EmptyInput}, nil
	}

	qty, err := strconv.Atoi(digits)
	if err != nil || qty <= 0 {
		// Bounded digit input should always parse; treat a zero
		// quantity the same as empty input.
		return ConfirmResult{Outcome: EmptyInput}, nil
	}

	product, found := r.catalog.FindByCode(ctx, code)
	if !found {
		return ConfirmResult{Outcome: ProductGone, Quantity: qty}, nil
	}

	if err := r.cart.Add(userID, product, qty); err != nil {
		var stockErr *cart.InsufficientStockError
		if errors.As(err, &stockErr) {
			return ConfirmResult{
				Outcome:   InsufficientStock,
				Product:   product,
				Quantity:  qty,
				Available: stockErr.Available,
			}, nil
		}
		return ConfirmResult{}, err
	}

	r.mu.Lock()
	// Only clear if the session was not replaced mid-confirm.
	if cur, ok := r.entries[userID]; ok && cur == e {
		delete(r.entries, userID)
	}
	r.mu.Unlock()

	return ConfirmResult{Outcome: Added, Product: product, Quantity: qty}, nil
}
