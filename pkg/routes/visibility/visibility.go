package visibility

import (
	"net/http"

	"github.com/labstack/echo/v4"

	appctx "github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/hierarchy"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"github.com/Ramsey-B/fern/pkg/visibility"
)

// Handler serves panel visibility classification.
type Handler struct {
	store *hierarchy.Store
}

// NewHandler creates a visibility handler.
func NewHandler(store *hierarchy.Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes registers the visibility routes
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.Classify)
}

// ClassifyResponse lists the attribute type panels to render.
type ClassifyResponse struct {
	Tags []visibility.Tag `json:"tags"`
}

// Classify returns the panel tags for a variation type or category context.
// Either a type (by id or name) or a category may be given; with neither, the
// store key from the request context is used as the category.
func (h *Handler) Classify(c echo.Context) error {
	ctx := c.Request().Context()
	_, span := tracing.StartSpan(ctx, "visibility_handler.Classify")
	defer span.End()

	typeName := c.QueryParam("type")
	if typeID := c.QueryParam("type_id"); typeID != "" {
		if vt, ok := h.store.TypeByID(typeID); ok {
			typeName = vt.Name
		}
	}

	category := c.QueryParam("category")
	if category == "" {
		category = appctx.GetStoreKey(ctx)
	}

	set := visibility.Classify(typeName, category)
	return c.JSON(http.StatusOK, ClassifyResponse{Tags: set.Tags()})
}
