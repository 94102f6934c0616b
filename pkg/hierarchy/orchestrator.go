package hierarchy

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/catalog"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Orchestrator loads the hierarchy from the record store into the working
// copy. Load runs once on start; Select scopes to one type; Refresh
// reconciles after mutations. All three are idempotent and safe to repeat.
type Orchestrator struct {
	store  *Store
	remote catalog.RecordStore
	logger ectologger.Logger
}

// NewOrchestrator creates a fetch orchestrator.
func NewOrchestrator(store *Store, remote catalog.RecordStore, logger ectologger.Logger) *Orchestrator {
	return &Orchestrator{
		store:  store,
		remote: remote,
		logger: logger,
	}
}

// Load fetches the full type list and the flat attribute list, seeding the
// working copy. The flat list doubles as the fallback cache for Select.
func (o *Orchestrator) Load(ctx context.Context) error {
	ctx, span := tracing.StartSpan(ctx, "hierarchy.Orchestrator.Load")
	defer span.End()

	types, err := o.remote.ListVariationTypes(ctx)
	if err != nil {
		o.logger.WithContext(ctx).WithError(err).Error("Failed to load variation types")
		return err
	}
	o.store.ReplaceTypes(types)

	values, err := o.remote.ListAttributeValues(ctx, "")
	if err != nil {
		o.logger.WithContext(ctx).WithError(err).Error("Failed to load attribute values")
		return err
	}
	o.store.ReconcileAttributes("", values)

	o.logger.WithContext(ctx).WithFields(map[string]any{
		"types":  len(types),
		"values": len(values),
	}).Info("Loaded hierarchy")
	return nil
}

// Select returns the attribute values for one type, freshly fetched. When the
// scoped fetch fails the cached flat list is filtered instead, so the panels
// never go empty over a transient store failure.
func (o *Orchestrator) Select(ctx context.Context, typeID string) ([]models.AttributeValue, error) {
	ctx, span := tracing.StartSpan(ctx, "hierarchy.Orchestrator.Select")
	defer span.End()

	if _, ok := o.store.TypeByID(typeID); !ok {
		return nil, models.ErrTypeNotFound
	}

	values, err := o.remote.ListAttributeValues(ctx, typeID)
	if err != nil {
		o.logger.WithContext(ctx).WithError(err).WithField("type_id", typeID).
			Warn("Scoped fetch failed, serving cached values")
		return o.store.ListByType(typeID), nil
	}

	o.store.ReconcileAttributes(typeID, values)
	return o.store.ListByType(typeID), nil
}

// Refresh re-fetches both levels and reconciles server-derived fields into
// the working copy without disturbing rows that are mid-edit or in flight.
func (o *Orchestrator) Refresh(ctx context.Context) error {
	ctx, span := tracing.StartSpan(ctx, "hierarchy.Orchestrator.Refresh")
	defer span.End()

	return o.Load(ctx)
}
