package attributevalue

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// AttributeValueRepository defines the interface for attribute value operations
type AttributeValueRepository interface {
	Create(ctx context.Context, typeID, value, price, imageURL string) (*models.AttributeValue, error)
	GetByID(ctx context.Context, id string) (*models.AttributeValue, error)
	List(ctx context.Context, typeID string) ([]models.AttributeValue, error)
	Update(ctx context.Context, id string, value, price, imageURL string) (*models.AttributeValue, error)
	Delete(ctx context.Context, id string) error
}

// Repository implements AttributeValueRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new attribute value repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const tableName = "attribute_values"

// Create creates a new attribute value under the given variation type
func (r *Repository) Create(ctx context.Context, typeID, value, price, imageURL string) (*models.AttributeValue, error) {
	ctx, span := tracing.StartSpan(ctx, "AttributeValueRepository.Create")
	defer span.End()

	now := time.Now()
	id := uuid.New().String()

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto(tableName)
	sb.Cols("id", "variation_type_id", "value", "price", "image_url", "created_at", "updated_at")
	sb.Values(id, typeID, value, price, imageURL, now, now)

	query, args := sb.Build()

	_, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to create attribute value")
		return nil, fmt.Errorf("failed to create attribute value: %w", err)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":                id,
		"variation_type_id": typeID,
		"value":             value,
	}).Info("created attribute value")

	return r.GetByID(ctx, id)
}

// GetByID gets an attribute value by ID
func (r *Repository) GetByID(ctx context.Context, id string) (*models.AttributeValue, error) {
	ctx, span := tracing.StartSpan(ctx, "AttributeValueRepository.GetByID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "variation_type_id", "value", "price", "image_url", "created_at", "updated_at")
	sb.From(tableName)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()

	var attr models.AttributeValue
	err := r.db.GetContext(ctx, &attr, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get attribute value by ID")
		return nil, fmt.Errorf("failed to get attribute value: %w", err)
	}

	return &attr, nil
}

// List returns attribute values, optionally scoped to a single variation type
func (r *Repository) List(ctx context.Context, typeID string) ([]models.AttributeValue, error) {
	ctx, span := tracing.StartSpan(ctx, "AttributeValueRepository.List")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "variation_type_id", "value", "price", "image_url", "created_at", "updated_at")
	sb.From(tableName)
	if typeID != "" {
		sb.Where(sb.Equal("variation_type_id", typeID))
	}
	sb.OrderBy("created_at")

	query, args := sb.Build()

	attrs := []models.AttributeValue{}
	if err := r.db.SelectContext(ctx, &attrs, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list attribute values")
		return nil, fmt.Errorf("failed to list attribute values: %w", err)
	}

	return attrs, nil
}

// Update applies new field values to an existing attribute value. An empty
// imageURL clears the stored image reference. The write and follow-up read
// run in one transaction so the returned record matches what was committed.
func (r *Repository) Update(ctx context.Context, id string, value, price, imageURL string) (*models.AttributeValue, error) {
	ctx, span := tracing.StartSpan(ctx, "AttributeValueRepository.Update")
	defer span.End()

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update(tableName)
	ub.Set(
		ub.Assign("value", value),
		ub.Assign("price", price),
		ub.Assign("image_url", imageURL),
		ub.Assign("updated_at", time.Now()),
	)
	ub.Where(ub.Equal("id", id))

	query, args := ub.Build()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to update attribute value")
		return nil, fmt.Errorf("failed to update attribute value: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return nil, nil
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "variation_type_id", "value", "price", "image_url", "created_at", "updated_at")
	sb.From(tableName)
	sb.Where(sb.Equal("id", id))

	query, args = sb.Build()

	var attr models.AttributeValue
	if err := tx.GetContext(ctx, &attr, query, args...); err != nil {
		return nil, fmt.Errorf("failed to read updated attribute value: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &attr, nil
}

// Delete removes an attribute value
func (r *Repository) Delete(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "AttributeValueRepository.Delete")
	defer span.End()

	db := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	db.DeleteFrom(tableName)
	db.Where(db.Equal("id", id))

	query, args := db.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to delete attribute value")
		return fmt.Errorf("failed to delete attribute value: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}
