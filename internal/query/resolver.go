package query

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"parts-bot/internal/catalog"
	"parts-bot/internal/domain"
)

// Kind discriminates the outcome of resolving free-form input
type Kind int

const (
	// NoMatch means neither code lookup nor name search found anything
	NoMatch Kind = iota
	// ExactMatch means the input resolved to a single product by code
	ExactMatch
	// NameMatches means name search found more than one candidate
	NameMatches
)

// Result is the outcome of resolving one piece of user text
type Result struct {
	Kind     Kind
	Product  domain.Product
	Quantity int // 0 when no quantity suffix was present
	Matches  []domain.Product
}

var (
	// "8512-153-19 x 3" / "8512-153-19 * 3"
	multiplierPattern = regexp.MustCompile(`^(.+?)\s*[x*]\s*(\d+)$`)
	// "8512-153-19 3"
	trailingIntPattern = regexp.MustCompile(`^(.+)\s+(\d+)$`)
)

// Resolver turns free-form user text into a catalog lookup
type Resolver struct {
	catalog *catalog.Cache
}

// NewResolver creates a resolver backed by the given catalog
func NewResolver(c *catalog.Cache) *Resolver {
	return &Resolver{catalog: c}
}

// SplitQuantity extracts an optional quantity suffix from the input.
// Supported forms: "<code> x 3", "<code> * 3" (Cyrillic х accepted as
// the multiplier) and "<code> 3". Returns the code part and quantity,
// quantity 0 when no suffix matched.
func SplitQuantity(text string) (string, int) {
	s := strings.TrimSpace(text)
	lowered := strings.ReplaceAll(strings.ToLower(s), "х", "x")

	if m := multiplierPattern.FindStringSubmatch(lowered); m != nil {
		qty, err := strconv.Atoi(m[2])
		if err == nil {
			// Lower-cased code is fine: code lookup is
			// case-insensitive anyway.
			return strings.TrimSpace(m[1]), qty
		}
	}

	if m := trailingIntPattern.FindStringSubmatch(s); m != nil {
		qty, err := strconv.Atoi(m[2])
		if err == nil {
			return strings.TrimSpace(m[1]), qty
		}
	}

	return s, 0
}

// Resolve parses the text into a (code, optional quantity) pair and
// looks it up. Code lookup always runs first; name search is a
// fallback on the original, unsplit text, never primary.
func (r *Resolver) Resolve(ctx context.Context, text string) Result {
	code, qty := SplitQuantity(text)

	if product, ok := r.catalog.FindByCode(ctx, code); ok {
		return Result{Kind: ExactMatch, Product: product, Quantity: qty}
	}

	matches := r.catalog.SearchByName(ctx, text)
	switch len(matches) {
	case 0:
		return Result{Kind: NoMatch}
	case 1:
		return Result{Kind: ExactMatch, Product: matches[0]}
	default:
		return Result{Kind: NameMatches, Matches: matches}
	}
}
