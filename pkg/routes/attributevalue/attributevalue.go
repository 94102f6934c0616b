package attributevalue

import (
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/assets"
	"github.com/Ramsey-B/fern/pkg/hierarchy"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

var validate = validator.New()

// Handler serves the attribute value endpoints, including the per-row edit
// lifecycle (begin, cancel, save) and confirmed deletes.
type Handler struct {
	controller *hierarchy.Controller
	store      *hierarchy.Store
	stager     *assets.Stager
}

// NewHandler creates an attribute value handler.
func NewHandler(controller *hierarchy.Controller, store *hierarchy.Store, stager *assets.Stager) *Handler {
	return &Handler{
		controller: controller,
		store:      store,
		stager:     stager,
	}
}

// RegisterRoutes registers the attribute value routes
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.POST("/:id/edit", h.BeginEdit)
	g.POST("/:id/cancel", h.CancelEdit)
	g.POST("/:id/save", h.Save)
	g.POST("/:id/image", h.StageImage)
	g.DELETE("/:id/image", h.ClearImage)
	g.DELETE("/:id", h.Delete)
}

// List returns the working copy's attribute values, optionally scoped by
// variation_type_id
func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()
	_, span := tracing.StartSpan(ctx, "attributevalue_handler.List")
	defer span.End()

	typeID := c.QueryParam("variation_type_id")

	var values []models.AttributeValue
	if typeID == "" {
		values = h.store.List()
	} else {
		values = h.store.ListByType(typeID)
	}

	return c.JSON(http.StatusOK, models.AttributeListResponse{
		Items:      values,
		TotalCount: len(values),
	})
}

// Create adds and immediately saves a new attribute value. Accepts JSON or
// multipart form data with an optional image file.
func (h *Handler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "attributevalue_handler.Create")
	defer span.End()

	var req models.CreateAttributeRequest
	if isMultipart(c) {
		req.VariationTypeID = c.FormValue("variation_type_id")
		req.Value = c.FormValue("value")
		req.Price = c.FormValue("price")

		staged, err := h.stageUpload(c)
		if err != nil {
			return err
		}
		if staged != nil {
			req.Image = staged
		}
	} else {
		if err := c.Bind(&req); err != nil {
			return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	added, err := h.controller.AddRow(ctx, req.VariationTypeID)
	if err != nil {
		return err
	}
	if req.Image != nil {
		if err := h.store.SetImage(added.Key(), req.Image); err != nil {
			return err
		}
	}

	saved, err := h.controller.SaveRow(ctx, added.Key(), hierarchy.SaveAttempt{
		Value: &req.Value,
		Price: &req.Price,
	})
	if err != nil {
		// The row was provisional; a failed first save must not leave it
		// behind in the working copy.
		if _, ok := h.store.Get(added.Key()); ok {
			_ = h.store.CancelEdit(added.Key())
		}
		return err
	}

	return c.JSON(http.StatusCreated, saved)
}

// BeginEdit moves a row into the editing state
func (h *Handler) BeginEdit(c echo.Context) error {
	ctx := c.Request().Context()
	_, span := tracing.StartSpan(ctx, "attributevalue_handler.BeginEdit")
	defer span.End()

	id := c.Param("id")
	if err := h.store.BeginEdit(id); err != nil {
		return err
	}

	attr, _ := h.store.Get(id)
	return c.JSON(http.StatusOK, attr)
}

// CancelEdit abandons an edit, restoring the row's pre-edit state or removing
// a never-persisted row
func (h *Handler) CancelEdit(c echo.Context) error {
	ctx := c.Request().Context()
	_, span := tracing.StartSpan(ctx, "attributevalue_handler.CancelEdit")
	defer span.End()

	id := c.Param("id")
	if err := h.store.CancelEdit(id); err != nil {
		return err
	}

	if attr, ok := h.store.Get(id); ok {
		return c.JSON(http.StatusOK, attr)
	}
	return c.NoContent(http.StatusNoContent)
}

// SaveRequest carries the attempted field values for a save.
type SaveRequest struct {
	Value *string `json:"value"`
	Price *string `json:"price"`
}

// Save validates and commits an editing row. Accepts JSON or multipart form
// data with an optional replacement image.
func (h *Handler) Save(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "attributevalue_handler.Save")
	defer span.End()

	id := c.Param("id")

	var attempt hierarchy.SaveAttempt
	if isMultipart(c) {
		if v := c.FormValue("value"); v != "" {
			attempt.Value = &v
		}
		if p := c.FormValue("price"); p != "" {
			attempt.Price = &p
		}

		staged, err := h.stageUpload(c)
		if err != nil {
			return err
		}
		if staged != nil {
			if err := h.store.SetImage(id, staged); err != nil {
				return err
			}
		}
	} else {
		var req SaveRequest
		if err := c.Bind(&req); err != nil {
			return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
		attempt.Value = req.Value
		attempt.Price = req.Price
	}

	saved, err := h.controller.SaveRow(ctx, id, attempt)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, saved)
}

// StageImage stages an image file on an editing row without saving
func (h *Handler) StageImage(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "attributevalue_handler.StageImage")
	defer span.End()

	id := c.Param("id")

	staged, err := h.stageUpload(c)
	if err != nil {
		return err
	}
	if staged == nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "image file is required")
	}

	if err := h.store.SetImage(id, staged); err != nil {
		return err
	}

	preview, _ := staged.Preview()
	return c.JSON(http.StatusOK, map[string]any{
		"filename": staged.Filename(),
		"preview":  preview,
	})
}

// ClearImage drops a staged image, reverting to the persisted reference
func (h *Handler) ClearImage(c echo.Context) error {
	ctx := c.Request().Context()
	_, span := tracing.StartSpan(ctx, "attributevalue_handler.ClearImage")
	defer span.End()

	id := c.Param("id")
	if err := h.store.ClearImage(id); err != nil {
		return err
	}

	attr, _ := h.store.Get(id)
	return c.JSON(http.StatusOK, attr)
}

// Delete removes an attribute value. Requires confirm=true.
func (h *Handler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "attributevalue_handler.Delete")
	defer span.End()

	id := c.Param("id")
	confirmed := c.QueryParam("confirm") == "true"

	if err := h.controller.DeleteAttribute(ctx, id, confirmed); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func isMultipart(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

// stageUpload reads the optional "image" file part and stages it. Returns
// nil when no file was sent.
func (h *Handler) stageUpload(c echo.Context) (*assets.Staged, error) {
	ctx := c.Request().Context()

	fileHeader, err := c.FormFile("image")
	if err != nil {
		if err == http.ErrMissingFile || err == multipart.ErrMessageTooLarge {
			return nil, nil
		}
		return nil, nil
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "could not read image file")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, assets.MaxImageBytes+1))
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "could not read image file")
	}

	return h.stager.Stage(ctx, fileHeader.Filename, fileHeader.Header.Get("Content-Type"), data)
}
