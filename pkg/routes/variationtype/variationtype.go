package variationtype

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/hierarchy"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

var validate = validator.New()

// Handler serves the variation type endpoints.
type Handler struct {
	controller *hierarchy.Controller
	fetcher    *hierarchy.Orchestrator
	store      *hierarchy.Store
}

// NewHandler creates a variation type handler.
func NewHandler(controller *hierarchy.Controller, fetcher *hierarchy.Orchestrator, store *hierarchy.Store) *Handler {
	return &Handler{
		controller: controller,
		fetcher:    fetcher,
		store:      store,
	}
}

// RegisterRoutes registers the variation type routes
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.GET("/:id/attributes", h.ListAttributes)
}

// List returns the working copy's variation types
func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()
	_, span := tracing.StartSpan(ctx, "variationtype_handler.List")
	defer span.End()

	types := h.store.Types()
	return c.JSON(http.StatusOK, models.VariationTypeListResponse{
		Items:      types,
		TotalCount: len(types),
	})
}

// Create creates a new variation type
func (h *Handler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "variationtype_handler.Create")
	defer span.End()

	var req models.CreateVariationTypeRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	created, err := h.controller.CreateVariationType(ctx, req.Name)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, created)
}

// Update renames a variation type
func (h *Handler) Update(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "variationtype_handler.Update")
	defer span.End()

	id := c.Param("id")

	var req models.UpdateVariationTypeRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	updated, err := h.controller.RenameVariationType(ctx, id, req.Name)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, updated)
}

// Delete removes a variation type. Requires confirm=true.
func (h *Handler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "variationtype_handler.Delete")
	defer span.End()

	id := c.Param("id")
	confirmed := c.QueryParam("confirm") == "true"

	if err := h.controller.DeleteVariationType(ctx, id, confirmed); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// ListAttributes returns the attribute values scoped to a variation type
func (h *Handler) ListAttributes(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "variationtype_handler.ListAttributes")
	defer span.End()

	id := c.Param("id")

	values, err := h.fetcher.Select(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, models.AttributeListResponse{
		Items:      values,
		TotalCount: len(values),
	})
}
