package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePrice(t *testing.T) {
	t.Run("valid amounts", func(t *testing.T) {
		for _, price := range []string{"", "0", "12", "120.50", "0.99", "9.9", "1000000.00"} {
			assert.NoError(t, ValidatePrice(price), "price %q", price)
		}
	})

	t.Run("invalid amounts", func(t *testing.T) {
		for _, price := range []string{"12.999", "-5", "+5", "1,000", "12.", ".50", "1e3", "abc", "12.50.00", "12 "} {
			err := ValidatePrice(price)
			require.Error(t, err, "price %q", price)

			var mutErr *MutationError
			require.ErrorAs(t, err, &mutErr)
			assert.Equal(t, ErrorKindValidation, mutErr.Kind)
			assert.Equal(t, "price", mutErr.Field)
		}
	})
}

func TestNormalizePrice(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"12", "12"},
		{"012", "12"},
		{"12.50", "12.50"},
		{"012.50", "12.50"},
		{"12.5", "12.50"},
		{"0.99", "0.99"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePrice(tt.in))
		})
	}
}

func TestValidateAttribute(t *testing.T) {
	t.Run("value and optional price accepted", func(t *testing.T) {
		assert.NoError(t, ValidateAttribute("Small", ""))
		assert.NoError(t, ValidateAttribute("Small", "9.99"))
	})

	t.Run("empty value rejected", func(t *testing.T) {
		err := ValidateAttribute("", "9.99")
		require.Error(t, err)

		var mutErr *MutationError
		require.ErrorAs(t, err, &mutErr)
		assert.Equal(t, "value", mutErr.Field)
	})

	t.Run("malformed price rejected", func(t *testing.T) {
		err := ValidateAttribute("Small", "12.999")
		require.Error(t, err)

		var mutErr *MutationError
		require.ErrorAs(t, err, &mutErr)
		assert.Equal(t, "price", mutErr.Field)
	})
}
