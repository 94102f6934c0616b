package models

import (
	"regexp"

	"github.com/shopspring/decimal"
)

// pricePattern: digits, optional single decimal point, at most two
// fractional digits. No sign, no exponent, no grouping.
var pricePattern = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)

// ValidatePrice checks an optional currency-amount string. The empty string
// is valid (price is optional on an attribute value).
func ValidatePrice(price string) error {
	if price == "" {
		return nil
	}
	if !pricePattern.MatchString(price) {
		return NewValidationError("price", "must be a currency amount with at most 2 decimal places")
	}
	if _, err := decimal.NewFromString(price); err != nil {
		return NewValidationError("price", "must be a currency amount")
	}
	return nil
}

// NormalizePrice returns the canonical form of a valid price string
// ("012.50" -> "12.5" stays "12.50" untouched: only leading zeros are
// trimmed, the entered precision is preserved).
func NormalizePrice(price string) string {
	if price == "" {
		return ""
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return price
	}
	// Keep two decimal places whenever a fraction was entered.
	if d.Exponent() < 0 {
		return d.StringFixed(2)
	}
	return d.String()
}

// ValidateAttribute applies the save-path gating rules: value non-empty and
// price, when present, a well-formed currency amount.
func ValidateAttribute(value, price string) error {
	if value == "" {
		return NewValidationError("value", "must not be empty")
	}
	return ValidatePrice(price)
}
