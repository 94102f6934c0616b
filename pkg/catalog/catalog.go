// Package catalog talks to the upstream record store that persists the
// variant attribute hierarchy. The engine treats the store as the system of
// record; everything local is a working copy.
package catalog

import (
	"context"

	"github.com/Ramsey-B/fern/pkg/models"
)

// RecordStore is the persistence contract the engine depends on. An
// implementation maps failures onto the models error taxonomy: transport
// failures become network_unavailable, non-2xx responses and status:false
// payloads become remote_rejected.
type RecordStore interface {
	ListVariationTypes(ctx context.Context) ([]models.VariationType, error)
	CreateVariationType(ctx context.Context, name string) (*models.VariationType, error)
	UpdateVariationType(ctx context.Context, id, name string) (*models.VariationType, error)
	DeleteVariationType(ctx context.Context, id string) error

	// ListAttributeValues scopes to a variation type when variationTypeID is
	// non-empty; otherwise it returns the flat list.
	ListAttributeValues(ctx context.Context, variationTypeID string) ([]models.AttributeValue, error)
	CreateAttributeValue(ctx context.Context, req models.CreateAttributeRequest) (*models.AttributeValue, error)
	UpdateAttributeValue(ctx context.Context, id string, req models.UpdateAttributeRequest) (*models.AttributeValue, error)
	DeleteAttributeValue(ctx context.Context, id string) error
}
