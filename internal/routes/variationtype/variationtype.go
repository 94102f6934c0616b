package variationtype

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/internal/repositories/variationtype"
	"github.com/Ramsey-B/fern/internal/routes"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

var validate = validator.New()

// Handler serves the variation type endpoints of the record store.
type Handler struct {
	repo   variationtype.VariationTypeRepository
	logger ectologger.Logger
}

// NewHandler creates a new variation type handler
func NewHandler(repo variationtype.VariationTypeRepository, logger ectologger.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

// RegisterRoutes registers the variation type routes
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

type upsertRequest struct {
	Name string `json:"name" validate:"required"`
}

// List returns all variation types
func (h *Handler) List(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "catalogd.VariationTypeHandler.List")
	defer span.End()

	types, err := h.repo.List(ctx)
	if err != nil {
		return err
	}

	return routes.OK(c, http.StatusOK, types)
}

// Create creates a variation type
func (h *Handler) Create(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "catalogd.VariationTypeHandler.Create")
	defer span.End()

	var req upsertRequest
	if err := c.Bind(&req); err != nil {
		return routes.Fail(c, http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return routes.Fail(c, http.StatusBadRequest, "name is required")
	}

	vt, err := h.repo.Create(ctx, req.Name)
	if err != nil {
		return err
	}

	return routes.OK(c, http.StatusCreated, vt)
}

// Update renames a variation type
func (h *Handler) Update(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "catalogd.VariationTypeHandler.Update")
	defer span.End()

	var req upsertRequest
	if err := c.Bind(&req); err != nil {
		return routes.Fail(c, http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return routes.Fail(c, http.StatusBadRequest, "name is required")
	}

	vt, err := h.repo.Update(ctx, c.Param("id"), req.Name)
	if err != nil {
		return err
	}
	if vt == nil {
		return routes.NotFound(c, "variation type")
	}

	return routes.OK(c, http.StatusOK, vt)
}

// Delete removes a variation type
func (h *Handler) Delete(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "catalogd.VariationTypeHandler.Delete")
	defer span.End()

	if err := h.repo.Delete(ctx, c.Param("id")); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return routes.NotFound(c, "variation type")
		}
		return err
	}

	return routes.OK(c, http.StatusOK, nil)
}
