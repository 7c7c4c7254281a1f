package domain

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// Product represents one article in the catalog feed
type Product struct {
	Code           string `json:"code"`
	Name           string `json:"name"`
	WholesaleText  string `json:"wholesale_text"`
	RetailText     string `json:"retail_text"`
	WholesalePrice int64  `json:"wholesale_price"`
	ImageRef       string `json:"image_ref"`
	Stock          int    `json:"stock"`
	Model          string `json:"model"`
}

// Snapshot is one immutable, fully-loaded view of the catalog.
// It is replaced wholesale on refresh and never mutated in place.
type Snapshot struct {
	Products []Product
	LoadedAt time.Time
}

// Age returns how long ago the snapshot was loaded
func (s *Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.LoadedAt)
}

// stripSpaces removes every whitespace rune, including NBSP and thin
// spaces that the feed uses as thousands separators in price columns.
var stripSpaces = runes.Remove(runes.In(unicode.White_Space))

// ParsePrice normalizes a textual price like "34 042" to an integer
// currency amount. Anything that is not a plain non-negative integer
// after separator removal parses as 0.
func ParsePrice(text string) int64 {
	cleaned, _, err := transform.String(stripSpaces, strings.TrimSpace(text))
	if err != nil || cleaned == "" {
		return 0
	}

	v, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// ParseStock parses a stock cell, clamping to 0 on any parse failure
// or negative value.
func ParseStock(text string) int {
	cleaned, _, err := transform.String(stripSpaces, strings.TrimSpace(text))
	if err != nil || cleaned == "" {
		return 0
	}

	v, err := strconv.Atoi(cleaned)
	if err != nil || v < 0 {
		return 0
	}
	return v
}
