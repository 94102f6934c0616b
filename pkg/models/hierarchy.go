package models

import (
	"strings"
	"time"
)

// LocalIDPrefix marks identifiers assigned locally before the record store
// has confirmed a create.
const LocalIDPrefix = "local-"

// VariationType is a named axis of product variation (e.g. Color, Weight).
// A nil ID means the type has not been persisted to the record store yet.
type VariationType struct {
	ID           *string   `json:"id,omitempty" db:"id"`
	Name         string    `json:"name" db:"name"`
	DisplayOrder int       `json:"display_order,omitempty" db:"display_order"`
	CreatedAt    time.Time `json:"created_at,omitempty" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// Persisted reports whether the type has a store-assigned identifier.
func (v *VariationType) Persisted() bool {
	return v.ID != nil && !strings.HasPrefix(*v.ID, LocalIDPrefix)
}

// ImageAttachment is a staged binary waiting to be committed with its row.
// The preview representation is local-only; Bytes is what goes on the wire.
type ImageAttachment interface {
	Filename() string
	ContentType() string
	Bytes() []byte
}

// AttributeValue is one concrete value along a VariationType's axis.
// VariationTypeID is a weak back reference used only for filtering and
// lookup; the value never owns or embeds its type.
//
// At most one of ImageURL (persisted) and Image (staged locally) is set.
// Editing is local UI state and is never sent to the record store.
type AttributeValue struct {
	ID              *string         `json:"id,omitempty" db:"id"`
	VariationTypeID string          `json:"variation_type_id" db:"variation_type_id"`
	Value           string          `json:"value" db:"value"`
	Price           string          `json:"price,omitempty" db:"price"`
	ImageURL        string          `json:"image_url,omitempty" db:"image_url"`
	Image           ImageAttachment `json:"-" db:"-"`
	Editing         bool            `json:"editing,omitempty" db:"-"`
	CreatedAt       time.Time       `json:"created_at,omitempty" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at,omitempty" db:"updated_at"`
}

// Persisted reports whether the value has a store-assigned identifier. A
// persisted row's local mutations are provisional until the remote call
// resolves.
func (a *AttributeValue) Persisted() bool {
	return a.ID != nil && !strings.HasPrefix(*a.ID, LocalIDPrefix)
}

// Key returns the row's identifier, or "" when none has been assigned.
func (a *AttributeValue) Key() string {
	if a.ID == nil {
		return ""
	}
	return *a.ID
}

// EditSnapshot is the per-row copy of editable fields captured when editing
// begins. It is owned by the edit state machine and discarded on save or
// cancel.
type EditSnapshot struct {
	Value    string
	Price    string
	ImageURL string
}

// SnapshotOf captures the editable fields of a row.
func SnapshotOf(a *AttributeValue) *EditSnapshot {
	return &EditSnapshot{
		Value:    a.Value,
		Price:    a.Price,
		ImageURL: a.ImageURL,
	}
}

// Restore writes the snapshot back onto the row and drops any staged image.
func (s *EditSnapshot) Restore(a *AttributeValue) {
	a.Value = s.Value
	a.Price = s.Price
	a.ImageURL = s.ImageURL
	a.Image = nil
}

// CreateVariationTypeRequest is the request body for creating a variation type
type CreateVariationTypeRequest struct {
	Name string `json:"name" validate:"required"`
}

// UpdateVariationTypeRequest is the request body for renaming a variation type
type UpdateVariationTypeRequest struct {
	Name string `json:"name" validate:"required"`
}

// CreateAttributeRequest is the request body for creating an attribute value
type CreateAttributeRequest struct {
	VariationTypeID string          `json:"variation_type_id" validate:"required"`
	Value           string          `json:"value" validate:"required"`
	Price           string          `json:"price,omitempty"`
	Image           ImageAttachment `json:"-"`
}

// UpdateAttributeRequest is the request body for updating an attribute value.
// Nil pointers leave the corresponding field untouched in the store.
type UpdateAttributeRequest struct {
	Value *string         `json:"value,omitempty"`
	Price *string         `json:"price,omitempty"`
	Image ImageAttachment `json:"-"`
}

// VariationTypeListResponse is the response for listing variation types
type VariationTypeListResponse struct {
	Items      []VariationType `json:"items"`
	TotalCount int             `json:"total_count"`
}

// AttributeListResponse is the response for listing attribute values
type AttributeListResponse struct {
	Items      []AttributeValue `json:"items"`
	TotalCount int              `json:"total_count"`
}
