package service

import (
	"context"

	"github.com/go-playground/validator/v10"
)

var rowValidate = validator.New()

// ImportRow is one (code, quantity) row from a bulk upload
type ImportRow struct {
	Code     string `json:"code" validate:"required"`
	Quantity int    `json:"quantity" validate:"gt=0"`
}

// RowFailure records why one row was not imported
type RowFailure struct {
	Code      string `json:"code"`
	Reason    string `json:"reason"`
	Available int    `json:"available,omitempty"`
}

// Failure reasons for import rows
const (
	ReasonInvalidQuantity   = "invalid quantity"
	ReasonProductNotFound   = "product not found"
	ReasonInsufficientStock = "insufficient stock"
)

// ImportReport summarizes one bulk import
type ImportReport struct {
	Added    int          `json:"added"`
	Failures []RowFailure `json:"failures,omitempty"`
}

// ImportRows adds each (code, quantity) row to the user's cart.
// Per-row failures are collected and the batch continues; partial
// success is the expected outcome.
func (s *botService) ImportRows(ctx context.Context, userID string, rows []ImportRow) ImportReport {
	var report ImportReport

	for _, row := range rows {
		if err := rowValidate.Struct(row); err != nil {
			report.Failures = append(report.Failures, RowFailure{
				Code:   row.Code,
				Reason: ReasonInvalidQuantity,
			})
			continue
		}

		product, ok := s.catalog.FindByCode(ctx, row.Code)
		if !ok {
			report.Failures = append(report.Failures, RowFailure{
				Code:   row.Code,
				Reason: ReasonProductNotFound,
			})
			continue
		}

		if err := s.cart.Add(userID, product, row.Quantity); err != nil {
			report.Failures = append(report.Failures, RowFailure{
				Code:      row.Code,
				Reason:    ReasonInsufficientStock,
				Available: product.Stock,
			})
			continue
		}

		report.Added++
	}

	if report.Added > 0 {
		s.ShowCart(ctx, userID)
	}

	return report
}
