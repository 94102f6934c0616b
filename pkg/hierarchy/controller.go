package hierarchy

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/catalog"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/notify"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Controller performs create, update and delete against the record store and
// reconciles the working copy with each outcome. Creates and deletes are
// applied locally before the remote call resolves and are rolled back on
// failure; updates commit locally only after the store accepts them.
//
// Every settled operation produces exactly one sink notification. Errors are
// converted at this boundary and also returned so HTTP handlers can map them,
// but they never leave the engine as unhandled failures.
type Controller struct {
	store   *Store
	remote  catalog.RecordStore
	sink    notify.Sink
	emitter *events.Emitter
	logger  ectologger.Logger
}

// NewController creates a mutation controller. The emitter may be nil.
func NewController(store *Store, remote catalog.RecordStore, sink notify.Sink, emitter *events.Emitter, logger ectologger.Logger) *Controller {
	return &Controller{
		store:   store,
		remote:  remote,
		sink:    sink,
		emitter: emitter,
		logger:  logger,
	}
}

// SaveAttempt carries the field values a save commits. Nil pointers keep the
// row's current value.
type SaveAttempt struct {
	Value *string
	Price *string
}

// AddRow appends a fresh attribute value row for the given type. The row
// starts in the editing state with no snapshot; cancelling it removes it.
func (c *Controller) AddRow(ctx context.Context, typeID string) (models.AttributeValue, error) {
	_, span := tracing.StartSpan(ctx, "hierarchy.Controller.AddRow")
	defer span.End()

	if _, ok := c.store.TypeByID(typeID); !ok {
		return models.AttributeValue{}, models.ErrTypeNotFound
	}

	attr := models.AttributeValue{
		VariationTypeID: typeID,
		Editing:         true,
	}
	key := c.store.Append(attr)

	added, _ := c.store.Get(key)
	return added, nil
}

// SaveRow validates and commits an editing row. Unpersisted rows are created
// remotely; persisted rows are updated. Validation failures stop before any
// network call and leave the row editing with the attempted values intact.
func (c *Controller) SaveRow(ctx context.Context, key string, attempt SaveAttempt) (models.AttributeValue, error) {
	ctx, span := tracing.StartSpan(ctx, "hierarchy.Controller.SaveRow")
	defer span.End()

	current, ok := c.store.Get(key)
	if !ok {
		return models.AttributeValue{}, models.ErrRowNotFound
	}
	if !current.Editing {
		return models.AttributeValue{}, models.ErrNotEditing
	}

	if err := c.store.BeginPending(key); err != nil {
		return models.AttributeValue{}, err
	}

	if err := c.store.ApplyEdit(key, attempt.Value, attempt.Price); err != nil {
		c.store.EndPending(key)
		return models.AttributeValue{}, err
	}
	current, _ = c.store.Get(key)

	if err := models.ValidateAttribute(current.Value, current.Price); err != nil {
		c.store.EndPending(key)
		metrics.MutationsTotal.WithLabelValues("save", "validation_failed").Inc()
		return models.AttributeValue{}, err
	}

	if current.Persisted() {
		return c.saveUpdate(ctx, key, current)
	}
	return c.saveCreate(ctx, key, current)
}

// saveCreate commits a row that exists only locally. The optimistic append
// already happened in AddRow, so a remote failure rolls the row out of the
// list entirely.
func (c *Controller) saveCreate(ctx context.Context, key string, current models.AttributeValue) (models.AttributeValue, error) {
	created, err := c.remote.CreateAttributeValue(ctx, models.CreateAttributeRequest{
		VariationTypeID: current.VariationTypeID,
		Value:           current.Value,
		Price:           current.Price,
		Image:           current.Image,
	})
	if err != nil {
		c.store.EndPending(key)
		if _, _, _, removeErr := c.store.Remove(key); removeErr == nil {
			metrics.RollbacksTotal.WithLabelValues("create").Inc()
		}
		metrics.MutationsTotal.WithLabelValues("create", "failed").Inc()
		c.logger.WithContext(ctx).WithError(err).WithField("row", key).Error("Attribute create failed")
		c.notifyError(ctx, fmt.Sprintf("Could not save %q: %s", current.Value, err))
		return models.AttributeValue{}, err
	}

	c.store.EndPending(key)
	if !c.store.Rekey(key, *created) {
		// The row was removed while the create was in flight; the resolution
		// is discarded and the persisted record is left for the next refresh.
		c.logger.WithContext(ctx).WithField("row", key).Warn("Discarding create resolution for removed row")
		metrics.MutationsTotal.WithLabelValues("create", "discarded").Inc()
		return *created, nil
	}

	metrics.MutationsTotal.WithLabelValues("create", "success").Inc()
	c.notifySuccess(ctx, fmt.Sprintf("Added %q", created.Value))
	if err := c.emitter.EmitAttributeCreated(ctx, created); err != nil {
		c.logger.WithContext(ctx).WithError(err).Warn("Event emission failed for attribute create")
	}

	saved, _ := c.store.Get(created.Key())
	return saved, nil
}

// saveUpdate commits an edit to a persisted row. Nothing is applied locally
// until the store accepts; on failure the row stays editing with the user's
// attempted values.
func (c *Controller) saveUpdate(ctx context.Context, key string, current models.AttributeValue) (models.AttributeValue, error) {
	req := models.UpdateAttributeRequest{
		Value: &current.Value,
		Price: &current.Price,
		Image: current.Image,
	}

	updated, err := c.remote.UpdateAttributeValue(ctx, key, req)
	c.store.EndPending(key)
	if err != nil {
		metrics.MutationsTotal.WithLabelValues("update", "failed").Inc()
		c.logger.WithContext(ctx).WithError(err).WithField("row", key).Error("Attribute update failed")
		c.notifyError(ctx, fmt.Sprintf("Could not save %q: %s", current.Value, err))
		return models.AttributeValue{}, err
	}

	if err := c.store.markSaved(key, *updated); err != nil {
		c.logger.WithContext(ctx).WithField("row", key).Warn("Discarding update resolution for removed row")
		metrics.MutationsTotal.WithLabelValues("update", "discarded").Inc()
		return *updated, nil
	}

	metrics.MutationsTotal.WithLabelValues("update", "success").Inc()
	c.notifySuccess(ctx, fmt.Sprintf("Saved %q", updated.Value))
	if err := c.emitter.EmitAttributeUpdated(ctx, updated); err != nil {
		c.logger.WithContext(ctx).WithError(err).Warn("Event emission failed for attribute update")
	}

	saved, _ := c.store.Get(key)
	return saved, nil
}

// DeleteAttribute removes a row. The removal is optimistic: the row leaves
// the working copy before the remote call, and a failure reinserts it at its
// original position, element-wise identical. Requires explicit confirmation.
func (c *Controller) DeleteAttribute(ctx context.Context, key string, confirmed bool) error {
	ctx, span := tracing.StartSpan(ctx, "hierarchy.Controller.DeleteAttribute")
	defer span.End()

	if !confirmed {
		return models.ErrConfirmationRequired
	}

	removed, snapshot, index, err := c.store.Remove(key)
	if err != nil {
		return err
	}

	if !removed.Persisted() {
		// Never reached the store; nothing to delete remotely.
		metrics.MutationsTotal.WithLabelValues("delete", "success").Inc()
		c.notifySuccess(ctx, fmt.Sprintf("Removed %q", removed.Value))
		return nil
	}

	if err := c.remote.DeleteAttributeValue(ctx, key); err != nil {
		c.store.InsertAt(removed, snapshot, index)
		metrics.RollbacksTotal.WithLabelValues("delete").Inc()
		metrics.MutationsTotal.WithLabelValues("delete", "failed").Inc()
		c.logger.WithContext(ctx).WithError(err).WithField("row", key).Error("Attribute delete failed, restored row")
		c.notifyError(ctx, fmt.Sprintf("Could not delete %q: %s", removed.Value, err))
		return err
	}

	metrics.MutationsTotal.WithLabelValues("delete", "success").Inc()
	c.notifySuccess(ctx, fmt.Sprintf("Deleted %q", removed.Value))
	if err := c.emitter.EmitAttributeDeleted(ctx, key, removed.VariationTypeID); err != nil {
		c.logger.WithContext(ctx).WithError(err).Warn("Event emission failed for attribute delete")
	}
	return nil
}

// CreateVariationType appends a new type optimistically and persists it. A
// remote failure removes the type again.
func (c *Controller) CreateVariationType(ctx context.Context, name string) (models.VariationType, error) {
	ctx, span := tracing.StartSpan(ctx, "hierarchy.Controller.CreateVariationType")
	defer span.End()

	if name == "" {
		metrics.MutationsTotal.WithLabelValues("type_create", "validation_failed").Inc()
		return models.VariationType{}, models.NewValidationError("name", "must not be empty")
	}

	localID := c.store.AppendType(models.VariationType{Name: name})

	created, err := c.remote.CreateVariationType(ctx, name)
	if err != nil {
		if _, _, ok := c.store.RemoveType(localID); ok {
			metrics.RollbacksTotal.WithLabelValues("type_create").Inc()
		}
		metrics.MutationsTotal.WithLabelValues("type_create", "failed").Inc()
		c.logger.WithContext(ctx).WithError(err).WithField("name", name).Error("Variation type create failed")
		c.notifyError(ctx, fmt.Sprintf("Could not create type %q: %s", name, err))
		return models.VariationType{}, err
	}

	c.store.RekeyType(localID, *created)
	metrics.MutationsTotal.WithLabelValues("type_create", "success").Inc()
	c.notifySuccess(ctx, fmt.Sprintf("Created type %q", created.Name))
	if err := c.emitter.EmitVariationTypeCreated(ctx, created); err != nil {
		c.logger.WithContext(ctx).WithError(err).Warn("Event emission failed for type create")
	}
	return *created, nil
}

// RenameVariationType renames a type. Not optimistic: the local name changes
// only after the store accepts the rename.
func (c *Controller) RenameVariationType(ctx context.Context, id, name string) (models.VariationType, error) {
	ctx, span := tracing.StartSpan(ctx, "hierarchy.Controller.RenameVariationType")
	defer span.End()

	if name == "" {
		metrics.MutationsTotal.WithLabelValues("type_rename", "validation_failed").Inc()
		return models.VariationType{}, models.NewValidationError("name", "must not be empty")
	}
	if _, ok := c.store.TypeByID(id); !ok {
		return models.VariationType{}, models.ErrTypeNotFound
	}

	updated, err := c.remote.UpdateVariationType(ctx, id, name)
	if err != nil {
		metrics.MutationsTotal.WithLabelValues("type_rename", "failed").Inc()
		c.logger.WithContext(ctx).WithError(err).WithField("type_id", id).Error("Variation type rename failed")
		c.notifyError(ctx, fmt.Sprintf("Could not rename type: %s", err))
		return models.VariationType{}, err
	}

	c.store.SetTypeName(id, updated.Name)
	metrics.MutationsTotal.WithLabelValues("type_rename", "success").Inc()
	c.notifySuccess(ctx, fmt.Sprintf("Renamed type to %q", updated.Name))
	if err := c.emitter.EmitVariationTypeUpdated(ctx, updated); err != nil {
		c.logger.WithContext(ctx).WithError(err).Warn("Event emission failed for type rename")
	}
	return *updated, nil
}

// DeleteVariationType removes a type optimistically with positional rollback.
// The store does not cascade, so on success the orphaned attribute values are
// dropped from the working copy; their remote records are left untouched.
func (c *Controller) DeleteVariationType(ctx context.Context, id string, confirmed bool) error {
	ctx, span := tracing.StartSpan(ctx, "hierarchy.Controller.DeleteVariationType")
	defer span.End()

	if !confirmed {
		return models.ErrConfirmationRequired
	}

	removed, index, ok := c.store.RemoveType(id)
	if !ok {
		return models.ErrTypeNotFound
	}

	if !removed.Persisted() {
		metrics.MutationsTotal.WithLabelValues("type_delete", "success").Inc()
		c.notifySuccess(ctx, fmt.Sprintf("Removed type %q", removed.Name))
		return nil
	}

	if err := c.remote.DeleteVariationType(ctx, id); err != nil {
		c.store.InsertTypeAt(removed, index)
		metrics.RollbacksTotal.WithLabelValues("type_delete").Inc()
		metrics.MutationsTotal.WithLabelValues("type_delete", "failed").Inc()
		c.logger.WithContext(ctx).WithError(err).WithField("type_id", id).Error("Variation type delete failed, restored type")
		c.notifyError(ctx, fmt.Sprintf("Could not delete type %q: %s", removed.Name, err))
		return err
	}

	orphaned := c.store.DropAttributesOfType(id)
	metrics.MutationsTotal.WithLabelValues("type_delete", "success").Inc()
	c.notifySuccess(ctx, fmt.Sprintf("Deleted type %q", removed.Name))
	if err := c.emitter.EmitVariationTypeDeleted(ctx, id, orphaned); err != nil {
		c.logger.WithContext(ctx).WithError(err).Warn("Event emission failed for type delete")
	}
	return nil
}

func (c *Controller) notifySuccess(ctx context.Context, message string) {
	if c.sink != nil {
		c.sink.Notify(ctx, notify.KindSuccess, message)
	}
}

func (c *Controller) notifyError(ctx context.Context, message string) {
	if c.sink != nil {
		c.sink.Notify(ctx, notify.KindError, message)
	}
}
