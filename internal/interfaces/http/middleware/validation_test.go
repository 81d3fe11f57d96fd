package middleware

import (
	"errors"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupValidator(t *testing.T) {
	SetupValidator()

	v, ok := binding.Validator.Engine().(*validator.Validate)
	require.True(t, ok)
	require.NotNil(t, v)

	// Field names in errors come from json tags after setup.
	type reviseInput struct {
		ItemIDs []string `json:"item_ids" validate:"required,min=1"`
	}
	err := v.Struct(reviseInput{})
	require.Error(t, err)

	details, ok := ValidationDetails(err)
	require.True(t, ok)
	require.Len(t, details, 1)
	assert.Equal(t, "item_ids", details[0].Field)
	assert.Equal(t, "This field is required", details[0].Message)
}

func TestValidationDetails(t *testing.T) {
	SetupValidator()
	v := binding.Validator.Engine().(*validator.Validate)

	type input struct {
		SellerID    string `json:"seller_id" validate:"required,uuid"`
		SupplierURL string `json:"supplier_url" validate:"omitempty,url"`
		Page        int    `json:"page" validate:"gte=1"`
		Marketplace string `json:"marketplace" validate:"oneof=ebay mock"`
	}

	t.Run("one detail per failing field", func(t *testing.T) {
		err := v.Struct(input{
			SellerID:    "not-a-uuid",
			SupplierURL: "not a url",
			Page:        0,
			Marketplace: "amazon",
		})
		require.Error(t, err)

		details, ok := ValidationDetails(err)
		require.True(t, ok)
		require.Len(t, details, 4)

		byField := make(map[string]string, len(details))
		for _, d := range details {
			byField[d.Field] = d.Message
		}
		assert.Equal(t, "Invalid UUID format", byField["seller_id"])
		assert.Equal(t, "Invalid URL format", byField["supplier_url"])
		assert.Equal(t, "Must be greater than or equal to 1", byField["page"])
		assert.Equal(t, "Must be one of: ebay mock", byField["marketplace"])
	})

	t.Run("string min reports characters", func(t *testing.T) {
		type named struct {
			Name string `json:"name" validate:"min=3"`
		}
		err := v.Struct(named{Name: "ab"})
		require.Error(t, err)

		details, ok := ValidationDetails(err)
		require.True(t, ok)
		require.Len(t, details, 1)
		assert.Equal(t, "Must be at least 3 characters", details[0].Message)
	})

	t.Run("non-validator errors are passed on", func(t *testing.T) {
		details, ok := ValidationDetails(errors.New("unexpected EOF"))
		assert.False(t, ok)
		assert.Nil(t, details)
	})
}
