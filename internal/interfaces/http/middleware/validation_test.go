package middleware

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupValidator_UsesJSONFieldNames(t *testing.T) {
	SetupValidator()

	v, ok := binding.Validator.Engine().(*validator.Validate)
	require.True(t, ok)

	type payload struct {
		UnitCost string `json:"unit_cost" binding:"required"`
		FormOnly string `form:"source" binding:"required"`
	}

	err := v.Struct(payload{})
	require.Error(t, err)

	verrs, ok := err.(validator.ValidationErrors)
	require.True(t, ok)

	names := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		names = append(names, fe.Field())
	}
	assert.Contains(t, names, "unit_cost")
	assert.Contains(t, names, "source")
	assert.NotContains(t, names, "UnitCost")
}

func TestValidationMessage(t *testing.T) {
	type payload struct {
		Required string `binding:"required"`
		Email    string `binding:"email"`
		MinStr   string `binding:"min=5"`
		MinNum   int    `binding:"min=5"`
		Max      string `binding:"max=2"`
		Len      string `binding:"len=5"`
		UUID     string `binding:"uuid"`
		OneOf    string `binding:"oneof=credit debit"`
		GTE      int    `binding:"gte=10"`
		URL      string `binding:"url"`
		Custom   string `binding:"lowercase"`
	}

	v := validator.New()
	v.SetTagName("binding")
	err := v.Struct(payload{
		Email:  "not-an-email",
		MinStr: "ab",
		MinNum: 2,
		Max:    "abc",
		Len:    "ab",
		UUID:   "not-a-uuid",
		OneOf:  "refund",
		GTE:    3,
		URL:    "not-a-url",
		Custom: "MIXED",
	})
	require.Error(t, err)

	expected := map[string]string{
		"Required": "This field is required",
		"Email":    "Invalid email format",
		"MinStr":   "Must be at least 5 characters",
		"MinNum":   "Must be at least 5",
		"Max":      "Must be at most 2 characters",
		"Len":      "Must be exactly 5 characters",
		"UUID":     "Invalid UUID format",
		"OneOf":    "Must be one of: credit debit",
		"GTE":      "Must be greater than or equal to 10",
		"URL":      "Invalid URL format",
		"Custom":   "Invalid value",
	}

	verrs := err.(validator.ValidationErrors)
	require.Len(t, verrs, len(expected))
	for _, fe := range verrs {
		assert.Equal(t, expected[fe.StructField()], ValidationMessage(fe), fe.StructField())
	}
}
