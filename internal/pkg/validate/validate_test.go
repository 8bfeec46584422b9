package validate

import (
	"testing"

	"github.com/quick-orders/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	VariantID int64 `json:"variant_id" validate:"required"`
}

type sample struct {
	Email   string `json:"email" validate:"required,email"`
	Purpose string `json:"purpose" validate:"omitempty,oneof=login registration"`
	Items   []item `json:"items" validate:"required,min=1,dive"`
}

func TestStruct_ReportsJSONNames(t *testing.T) {
	err := Struct(&sample{Purpose: "signup"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
	assert.ErrorContains(t, err, "email is required")
	assert.ErrorContains(t, err, "purpose must be one of [login registration]")
	assert.ErrorContains(t, err, "items is required")
}

func TestStruct_DivesIntoSlices(t *testing.T) {
	err := Struct(&sample{Email: "a@example.com", Items: []item{{}}})
	assert.ErrorContains(t, err, "items[0].variant_id is required")
}

func TestStruct_InvalidEmail(t *testing.T) {
	err := Struct(&sample{Email: "not-an-email", Items: []item{{VariantID: 1}}})
	assert.ErrorContains(t, err, "email must be a valid email address")
}

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, Struct(&sample{Email: "a@example.com", Items: []item{{VariantID: 1}}}))
}

func TestEmail(t *testing.T) {
	assert.True(t, Email("a@example.com"))
	assert.False(t, Email("not-an-email"))
	assert.False(t, Email(""))
}
