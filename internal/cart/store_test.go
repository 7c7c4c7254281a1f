package cart

import (
	"errors"
	"testing"

	"parts-bot/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProduct(code string, stock int) domain.Product {
	return domain.Product{
		Code:           code,
		Name:           "part " + code,
		WholesalePrice: 100,
		Stock:          stock,
	}
}

func TestAddRejectsNonPositiveQuantity(t *testing.T) {
	s := NewStore()
	p := testProduct("A-1", 5)

	assert.ErrorIs(t, s.Add("u1", p, 0), ErrInvalidQuantity)
	assert.ErrorIs(t, s.Add("u1", p, -2), ErrInvalidQuantity)
	assert.Empty(t, s.Snapshot("u1"))
}

func TestAddEnforcesStock(t *testing.T) {
	s := NewStore()
	p := testProduct("A-1", 5)

	require.NoError(t, s.Add("u1", p, 3))
	assert.Equal(t, 3, s.Quantity("u1", "A-1"))

	// 3+3 exceeds stock of 5: rejected, quantity unchanged
	err := s.Add("u1", p, 3)
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 5, stockErr.Available)
	assert.Equal(t, 3, s.Quantity("u1", "A-1"))

	// Topping up to exactly the stock is allowed
	require.NoError(t, s.Add("u1", p, 2))
	assert.Equal(t, 5, s.Quantity("u1", "A-1"))
}

func TestAddCapturesNameAndPriceAtFirstInsert(t *testing.T) {
	s := NewStore()

	first := domain.Product{Code: "A-1", Name: "Old name", WholesalePrice: 100, Stock: 10}
	require.NoError(t, s.Add("u1", first, 1))

	// The catalog renamed and re-priced the product; the line keeps
	// what it captured on first insert.
	renamed := domain.Product{Code: "A-1", Name: "New name", WholesalePrice: 999, Stock: 10}
	require.NoError(t, s.Add("u1", renamed, 1))

	lines := s.Snapshot("u1")
	require.Len(t, lines, 1)
	assert.Equal(t, "Old name", lines[0].Name)
	assert.Equal(t, int64(100), lines[0].UnitPrice)
	assert.Equal(t, 2, lines[0].Quantity)
}

func TestAddIsCaseInsensitiveOnCode(t *testing.T) {
	s := NewStore()

	require.NoError(t, s.Add("u1", testProduct("A-1", 5), 2))
	require.NoError(t, s.Add("u1", testProduct("a-1", 5), 2))

	lines := s.Snapshot("u1")
	require.Len(t, lines, 1)
	assert.Equal(t, 4, lines[0].Quantity)
}

func TestChangeQuantityRemovesLineAtZero(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Add("u1", testProduct("A-1", 10), 3))

	s.ChangeQuantity("u1", "A-1", -3)

	assert.Equal(t, 0, s.Quantity("u1", "A-1"))
	for _, l := range s.Snapshot("u1") {
		assert.NotEqual(t, "A-1", l.Code)
	}
}

func TestChangeQuantityNoOpOnMissing(t *testing.T) {
	s := NewStore()

	s.ChangeQuantity("ghost", "A-1", 5)
	assert.Empty(t, s.Snapshot("ghost"))

	require.NoError(t, s.Add("u1", testProduct("A-1", 10), 1))
	s.ChangeQuantity("u1", "B-2", 5)
	assert.Equal(t, 0, s.Quantity("u1", "B-2"))
}

func TestClearIsIdempotent(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Add("u1", testProduct("A-1", 10), 3))

	s.Clear("u1")
	assert.Empty(t, s.Snapshot("u1"))

	s.Clear("u1")
	assert.Empty(t, s.Snapshot("u1"))
}

func TestSnapshotPreservesInsertionOrder(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Add("u1", testProduct("C-3", 10), 1))
	require.NoError(t, s.Add("u1", testProduct("A-1", 10), 1))
	require.NoError(t, s.Add("u1", testProduct("B-2", 10), 1))

	// A repeat add must not move the line
	require.NoError(t, s.Add("u1", testProduct("C-3", 10), 1))

	lines := s.Snapshot("u1")
	require.Len(t, lines, 3)
	assert.Equal(t, "C-3", lines[0].Code)
	assert.Equal(t, "A-1", lines[1].Code)
	assert.Equal(t, "B-2", lines[2].Code)
}

func TestCartsArePartitionedByUser(t *testing.T) {
	s := NewStore()
	p := testProduct("A-1", 2)

	require.NoError(t, s.Add("u1", p, 2))

	// u2 has their own cart against the same stock value
	require.NoError(t, s.Add("u2", p, 2))

	var stockErr *InsufficientStockError
	assert.True(t, errors.As(s.Add("u1", p, 1), &stockErr))
	assert.Equal(t, 2, s.Quantity("u2", "A-1"))
}
