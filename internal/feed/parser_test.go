package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	raw := []byte(`[
		{"article": "8512-153-19", "name": "Drive belt", "wholesale": "3 400", "retail": "4 100", "photo": "https://cdn.example.com/belt.jpg", "stock": "12", "model": "Tiksy 250"},
		{"article": "  3B4-23311-00 ", "name": "", "wholesale": "oops", "retail": "", "photo": "", "stock": "bad", "model": ""},
		{"article": "", "name": "headerless junk row", "wholesale": "1", "retail": "1", "photo": "", "stock": "1", "model": ""}
	]`)

	products, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, products, 2)

	first := products[0]
	assert.Equal(t, "8512-153-19", first.Code)
	assert.Equal(t, "Drive belt", first.Name)
	assert.Equal(t, int64(3400), first.WholesalePrice)
	assert.Equal(t, "3 400", first.WholesaleText)
	assert.Equal(t, "4 100", first.RetailText)
	assert.Equal(t, "https://cdn.example.com/belt.jpg", first.ImageRef)
	assert.Equal(t, 12, first.Stock)
	assert.Equal(t, "Tiksy 250", first.Model)

	// Code is trimmed, missing name falls back to the code, numeric
	// cells clamp to zero on parse failure.
	second := products[1]
	assert.Equal(t, "3B4-23311-00", second.Code)
	assert.Equal(t, "3B4-23311-00", second.Name)
	assert.Equal(t, int64(0), second.WholesalePrice)
	assert.Equal(t, 0, second.Stock)
}

func TestParseRejectsMalformedFeed(t *testing.T) {
	_, err := Parse([]byte(`{"not": "an array"}`))
	assert.Error(t, err)

	_, err = Parse([]byte(`garbage`))
	assert.Error(t, err)
}

func TestParseEmptyFeed(t *testing.T) {
	products, err := Parse([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, products)
}
