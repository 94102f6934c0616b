// Package normalizer converts heterogeneous record store payloads into the
// canonical in-memory shapes used by the rest of the engine. Upstream
// endpoints disagree on field names (value vs attribute_name, price vs
// amount, image_url vs image), so each logical field resolves through a
// fixed ordered alias table, evaluated once per raw record.
package normalizer

import (
	"strconv"
	"strings"

	"github.com/Ramsey-B/fern/pkg/models"
)

// Raw is an undecoded record as returned by the store.
type Raw = map[string]any

// Ordered alias tables per logical field. First present key wins.
var (
	idAliases        = []string{"id", "_id", "attribute_id"}
	valueAliases     = []string{"value", "attribute_name", "size", "weight", "name"}
	priceAliases     = []string{"price", "amount"}
	imageAliases     = []string{"image_url", "image", "image_preview"}
	typeIDAliases    = []string{"variation_type_id", "variant_id", "type_id"}
	typeNameAliases  = []string{"name", "variation_name", "title"}
	typeOrderAliases = []string{"display_order", "sort_order", "position"}
)

// Attribute normalizes a raw attribute record. Absent optional fields come
// back as the empty string, never as a missing key, so downstream code can
// assume presence. A record with no usable value field normalizes to an
// empty-value entry rather than being dropped; callers filter those before
// a save. Normalizing an already-canonical record is a no-op.
func Attribute(raw Raw) models.AttributeValue {
	out := models.AttributeValue{
		VariationTypeID: firstString(raw, typeIDAliases),
		Value:           firstString(raw, valueAliases),
		Price:           firstString(raw, priceAliases),
		ImageURL:        firstString(raw, imageAliases),
	}
	if id := firstString(raw, idAliases); id != "" {
		out.ID = &id
	}
	return out
}

// Attributes normalizes a list of raw attribute records, preserving order.
func Attributes(raws []Raw) []models.AttributeValue {
	out := make([]models.AttributeValue, 0, len(raws))
	for _, raw := range raws {
		out = append(out, Attribute(raw))
	}
	return out
}

// VariationType normalizes a raw variation type record.
func VariationType(raw Raw) models.VariationType {
	out := models.VariationType{
		Name:         firstString(raw, typeNameAliases),
		DisplayOrder: firstInt(raw, typeOrderAliases),
	}
	if id := firstString(raw, idAliases); id != "" {
		out.ID = &id
	}
	return out
}

// VariationTypes normalizes a list of raw variation type records.
func VariationTypes(raws []Raw) []models.VariationType {
	out := make([]models.VariationType, 0, len(raws))
	for _, raw := range raws {
		out = append(out, VariationType(raw))
	}
	return out
}

// firstString resolves the first present, non-empty alias to a string.
// Numeric JSON values are formatted without a trailing fraction when whole.
func firstString(raw Raw, aliases []string) string {
	for _, key := range aliases {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		s := stringify(v)
		if s != "" {
			return s
		}
	}
	return ""
}

func firstInt(raw Raw, aliases []string) int {
	for _, key := range aliases {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		case float64:
			return int(n)
		case string:
			if parsed, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
				return parsed
			}
		}
	}
	return 0
}

func stringify(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case bool:
		return strconv.FormatBool(s)
	}
	return ""
}
