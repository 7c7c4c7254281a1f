package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatValidationErrors(t *testing.T) {
	type payload struct {
		Code     string `validate:"required"`
		Quantity int    `validate:"gt=0"`
	}

	err := ValidateRequest(payload{})
	require.Error(t, err)

	errs := FormatValidationErrors(err)
	require.Len(t, errs, 2)
	assert.Equal(t, "Code", errs[0].Field)
	assert.Equal(t, "this field is required", errs[0].Message)
	assert.Equal(t, "Quantity", errs[1].Field)
	assert.Equal(t, "value must be greater than 0", errs[1].Message)
}
