// Package events handles event emission for catalog lifecycle changes
package events

import (
	"context"
	"encoding/json"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// Emitter publishes lifecycle events for attribute values and variation types.
// A nil Emitter is valid and drops every event, so callers never need to guard.
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
	storeKey string
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, storeKey string, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
		storeKey: storeKey,
	}
}

// EmitAttributeCreated emits an event after a new attribute value is persisted
func (e *Emitter) EmitAttributeCreated(ctx context.Context, attr *models.AttributeValue) error {
	if e == nil {
		return nil
	}
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitAttributeCreated")
	defer span.End()

	return e.publishAttribute(ctx, "attribute_value.created", attr)
}

// EmitAttributeUpdated emits an event after an attribute value's edits are saved
func (e *Emitter) EmitAttributeUpdated(ctx context.Context, attr *models.AttributeValue) error {
	if e == nil {
		return nil
	}
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitAttributeUpdated")
	defer span.End()

	return e.publishAttribute(ctx, "attribute_value.updated", attr)
}

// EmitAttributeDeleted emits an event after an attribute value is removed remotely
func (e *Emitter) EmitAttributeDeleted(ctx context.Context, attributeID, variationTypeID string) error {
	if e == nil {
		return nil
	}
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitAttributeDeleted")
	defer span.End()

	data, _ := json.Marshal(map[string]any{
		"schema_version":    SchemaVersion,
		"variation_type_id": variationTypeID,
	})

	event := &kafka.CatalogEvent{
		EventType:  "attribute_value.deleted",
		StoreKey:   e.storeKey,
		RecordID:   attributeID,
		RecordType: "attribute_value",
		Data:       data,
	}

	if err := e.producer.PublishCatalogEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit attribute_value.deleted event")
		return err
	}

	return nil
}

// EmitRollback emits an event after an optimistic mutation is reverted
func (e *Emitter) EmitRollback(ctx context.Context, operation, recordID, recordType string) error {
	if e == nil {
		return nil
	}
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitRollback")
	defer span.End()

	data, _ := json.Marshal(map[string]any{
		"schema_version": SchemaVersion,
		"operation":      operation,
	})

	event := &kafka.CatalogEvent{
		EventType:  recordType + ".rolled_back",
		StoreKey:   e.storeKey,
		RecordID:   recordID,
		RecordType: recordType,
		Data:       data,
	}

	if err := e.producer.PublishCatalogEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit rollback event")
		return err
	}

	return nil
}

// EmitVariationTypeCreated emits an event after a new variation type is persisted
func (e *Emitter) EmitVariationTypeCreated(ctx context.Context, vt *models.VariationType) error {
	if e == nil {
		return nil
	}
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitVariationTypeCreated")
	defer span.End()

	return e.publishVariationType(ctx, "variation_type.created", vt)
}

// EmitVariationTypeUpdated emits an event after a variation type is renamed
func (e *Emitter) EmitVariationTypeUpdated(ctx context.Context, vt *models.VariationType) error {
	if e == nil {
		return nil
	}
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitVariationTypeUpdated")
	defer span.End()

	return e.publishVariationType(ctx, "variation_type.updated", vt)
}

// EmitVariationTypeDeleted emits an event after a variation type is removed remotely
func (e *Emitter) EmitVariationTypeDeleted(ctx context.Context, typeID string, orphanedValues int) error {
	if e == nil {
		return nil
	}
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitVariationTypeDeleted")
	defer span.End()

	data, _ := json.Marshal(map[string]any{
		"schema_version":  SchemaVersion,
		"orphaned_values": orphanedValues,
	})

	event := &kafka.CatalogEvent{
		EventType:  "variation_type.deleted",
		StoreKey:   e.storeKey,
		RecordID:   typeID,
		RecordType: "variation_type",
		Data:       data,
	}

	if err := e.producer.PublishCatalogEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit variation_type.deleted event")
		return err
	}

	return nil
}

func (e *Emitter) publishAttribute(ctx context.Context, eventType string, attr *models.AttributeValue) error {
	data, err := json.Marshal(attr)
	if err != nil {
		return err
	}

	recordID := ""
	if attr.ID != nil {
		recordID = *attr.ID
	}

	event := &kafka.CatalogEvent{
		EventType:  eventType,
		StoreKey:   e.storeKey,
		RecordID:   recordID,
		RecordType: "attribute_value",
		Data:       data,
	}

	if err := e.producer.PublishCatalogEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Errorf("Failed to emit %s event", eventType)
		return err
	}

	return nil
}

func (e *Emitter) publishVariationType(ctx context.Context, eventType string, vt *models.VariationType) error {
	data, err := json.Marshal(vt)
	if err != nil {
		return err
	}

	recordID := ""
	if vt.ID != nil {
		recordID = *vt.ID
	}

	event := &kafka.CatalogEvent{
		EventType:  eventType,
		StoreKey:   e.storeKey,
		RecordID:   recordID,
		RecordType: "variation_type",
		Data:       data,
	}

	if err := e.producer.PublishCatalogEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Errorf("Failed to emit %s event", eventType)
		return err
	}

	return nil
}
