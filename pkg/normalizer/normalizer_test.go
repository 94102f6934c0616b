package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttribute(t *testing.T) {
	t.Run("canonical record passes through unchanged", func(t *testing.T) {
		raw := Raw{
			"id":                "attr-1",
			"variation_type_id": "type-1",
			"value":             "Small",
			"price":             "9.99",
			"image_url":         "https://cdn.example.com/a.png",
		}

		attr := Attribute(raw)

		require.NotNil(t, attr.ID)
		assert.Equal(t, "attr-1", *attr.ID)
		assert.Equal(t, "type-1", attr.VariationTypeID)
		assert.Equal(t, "Small", attr.Value)
		assert.Equal(t, "9.99", attr.Price)
		assert.Equal(t, "https://cdn.example.com/a.png", attr.ImageURL)
	})

	t.Run("normalizing twice is a no-op", func(t *testing.T) {
		raw := Raw{
			"id":                "attr-1",
			"variation_type_id": "type-1",
			"value":             "Small",
			"price":             "9.99",
		}

		first := Attribute(raw)
		second := Attribute(Raw{
			"id":                *first.ID,
			"variation_type_id": first.VariationTypeID,
			"value":             first.Value,
			"price":             first.Price,
		})

		assert.Equal(t, first, second)
	})

	t.Run("aliases resolve in priority order", func(t *testing.T) {
		raw := Raw{
			"_id":            "attr-2",
			"attribute_name": "Large",
			"amount":         "12.00",
			"image":          "https://cdn.example.com/b.png",
			"variant_id":     "type-2",
		}

		attr := Attribute(raw)

		require.NotNil(t, attr.ID)
		assert.Equal(t, "attr-2", *attr.ID)
		assert.Equal(t, "Large", attr.Value)
		assert.Equal(t, "12.00", attr.Price)
		assert.Equal(t, "https://cdn.example.com/b.png", attr.ImageURL)
		assert.Equal(t, "type-2", attr.VariationTypeID)
	})

	t.Run("preferred alias wins over lower priority ones", func(t *testing.T) {
		raw := Raw{
			"value":          "Preferred",
			"attribute_name": "Ignored",
			"price":          "1.00",
			"amount":         "2.00",
		}

		attr := Attribute(raw)

		assert.Equal(t, "Preferred", attr.Value)
		assert.Equal(t, "1.00", attr.Price)
	})

	t.Run("record without a value becomes an empty-value entry", func(t *testing.T) {
		raw := Raw{"id": "attr-3", "price": "5.00"}

		attr := Attribute(raw)

		require.NotNil(t, attr.ID)
		assert.Equal(t, "", attr.Value)
		assert.Equal(t, "5.00", attr.Price)
	})

	t.Run("numeric price values are stringified", func(t *testing.T) {
		attr := Attribute(Raw{"value": "Small", "price": float64(12)})
		assert.Equal(t, "12", attr.Price)

		attr = Attribute(Raw{"value": "Small", "price": 12.5})
		assert.Equal(t, "12.5", attr.Price)
	})

	t.Run("whitespace is trimmed", func(t *testing.T) {
		attr := Attribute(Raw{"value": "  Small  "})
		assert.Equal(t, "Small", attr.Value)
	})

	t.Run("missing id stays nil", func(t *testing.T) {
		attr := Attribute(Raw{"value": "Small"})
		assert.Nil(t, attr.ID)
	})
}

func TestAttributes(t *testing.T) {
	raws := []Raw{
		{"id": "a", "value": "One"},
		{"id": "b", "value": "Two"},
		{"id": "c", "value": "Three"},
	}

	attrs := Attributes(raws)

	require.Len(t, attrs, 3)
	assert.Equal(t, "One", attrs[0].Value)
	assert.Equal(t, "Two", attrs[1].Value)
	assert.Equal(t, "Three", attrs[2].Value)
}

func TestVariationType(t *testing.T) {
	t.Run("canonical record", func(t *testing.T) {
		vt := VariationType(Raw{"id": "type-1", "name": "Size", "display_order": float64(2)})

		require.NotNil(t, vt.ID)
		assert.Equal(t, "type-1", *vt.ID)
		assert.Equal(t, "Size", vt.Name)
		assert.Equal(t, 2, vt.DisplayOrder)
	})

	t.Run("name and order aliases", func(t *testing.T) {
		vt := VariationType(Raw{"id": "type-2", "variation_name": "Color", "position": "3"})

		assert.Equal(t, "Color", vt.Name)
		assert.Equal(t, 3, vt.DisplayOrder)
	})
}
