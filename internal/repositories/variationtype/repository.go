package variationtype

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

// VariationTypeRepository defines the interface for variation type operations
type VariationTypeRepository interface {
	Create(ctx context.Context, name string) (*models.VariationType, error)
	GetByID(ctx context.Context, id string) (*models.VariationType, error)
	List(ctx context.Context) ([]models.VariationType, error)
	Update(ctx context.Context, id string, name string) (*models.VariationType, error)
	Delete(ctx context.Context, id string) error
}

// Repository implements VariationTypeRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new variation type repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const tableName = "variation_types"

// Create creates a new variation type
func (r *Repository) Create(ctx context.Context, name string) (*models.VariationType, error) {
	ctx, span := tracing.StartSpan(ctx, "VariationTypeRepository.Create")
	defer span.End()

	now := time.Now()
	id := uuid.New().String()

	var order int
	countQuery := "SELECT COUNT(*) FROM " + tableName
	if err := r.db.GetContext(ctx, &order, countQuery); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to count variation types")
		return nil, fmt.Errorf("failed to create variation type: %w", err)
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto(tableName)
	sb.Cols("id", "name", "display_order", "created_at", "updated_at")
	sb.Values(id, name, order, now, now)

	query, args := sb.Build()

	_, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to create variation type")
		return nil, fmt.Errorf("failed to create variation type: %w", err)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":   id,
		"name": name,
	}).Info("created variation type")

	return r.GetByID(ctx, id)
}

// GetByID gets a variation type by ID
func (r *Repository) GetByID(ctx context.Context, id string) (*models.VariationType, error) {
	ctx, span := tracing.StartSpan(ctx, "VariationTypeRepository.GetByID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "name", "display_order", "created_at", "updated_at")
	sb.From(tableName)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()

	var vt models.VariationType
	err := r.db.GetContext(ctx, &vt, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get variation type by ID")
		return nil, fmt.Errorf("failed to get variation type: %w", err)
	}

	return &vt, nil
}

// List returns all variation types in display order
func (r *Repository) List(ctx context.Context) ([]models.VariationType, error) {
	ctx, span := tracing.StartSpan(ctx, "VariationTypeRepository.List")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "name", "display_order", "created_at", "updated_at")
	sb.From(tableName)
	sb.OrderBy("display_order", "created_at")

	query, args := sb.Build()

	types := []models.VariationType{}
	if err := r.db.SelectContext(ctx, &types, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list variation types")
		return nil, fmt.Errorf("failed to list variation types: %w", err)
	}

	return types, nil
}

// Update renames a variation type
func (r *Repository) Update(ctx context.Context, id string, name string) (*models.VariationType, error) {
	ctx, span := tracing.StartSpan(ctx, "VariationTypeRepository.Update")
	defer span.End()

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update(tableName)
	ub.Set(
		ub.Assign("name", name),
		ub.Assign("updated_at", time.Now()),
	)
	ub.Where(ub.Equal("id", id))

	query, args := ub.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to update variation type")
		return nil, fmt.Errorf("failed to update variation type: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return nil, nil
	}

	return r.GetByID(ctx, id)
}

// Delete removes a variation type. The owned attribute values are left in
// place; the store does not cascade.
func (r *Repository) Delete(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "VariationTypeRepository.Delete")
	defer span.End()

	db := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	db.DeleteFrom(tableName)
	db.Where(db.Equal("id", id))

	query, args := db.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to delete variation type")
		return fmt.Errorf("failed to delete variation type: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}
