package attributevalue

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/internal/images"
	"github.com/Ramsey-B/fern/internal/repositories/attributevalue"
	"github.com/Ramsey-B/fern/internal/repositories/variationtype"
	"github.com/Ramsey-B/fern/internal/routes"
	"github.com/Ramsey-B/fern/pkg/assets"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Handler serves the attribute value endpoints of the record store.
type Handler struct {
	repo   attributevalue.AttributeValueRepository
	types  variationtype.VariationTypeRepository
	images *images.Store
	logger ectologger.Logger
}

// NewHandler creates a new attribute value handler
func NewHandler(
	repo attributevalue.AttributeValueRepository,
	types variationtype.VariationTypeRepository,
	images *images.Store,
	logger ectologger.Logger,
) *Handler {
	return &Handler{
		repo:   repo,
		types:  types,
		images: images,
		logger: logger,
	}
}

// RegisterRoutes registers the attribute value routes
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

type mutationRequest struct {
	VariationTypeID string  `json:"variation_type_id" form:"variation_type_id"`
	Value           *string `json:"value" form:"value"`
	Price           *string `json:"price" form:"price"`
}

// List returns attribute values, optionally scoped to one variation type
func (h *Handler) List(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "catalogd.AttributeValueHandler.List")
	defer span.End()

	attrs, err := h.repo.List(ctx, c.QueryParam("variation_type_id"))
	if err != nil {
		return err
	}

	return routes.OK(c, http.StatusOK, attrs)
}

// Create creates an attribute value. Accepts either a JSON body or a
// multipart form carrying an image file.
func (h *Handler) Create(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "catalogd.AttributeValueHandler.Create")
	defer span.End()

	req, upload, err := h.bindMutation(c)
	if err != nil {
		return routes.Fail(c, http.StatusBadRequest, err.Error())
	}
	if req.VariationTypeID == "" {
		return routes.Fail(c, http.StatusBadRequest, "variation_type_id is required")
	}
	if req.Value == nil || *req.Value == "" {
		return routes.Fail(c, http.StatusBadRequest, "value is required")
	}

	vt, err := h.types.GetByID(ctx, req.VariationTypeID)
	if err != nil {
		return err
	}
	if vt == nil {
		return routes.NotFound(c, "variation type")
	}

	price := ""
	if req.Price != nil {
		price = *req.Price
	}

	attr, err := h.repo.Create(ctx, req.VariationTypeID, *req.Value, price, "")
	if err != nil {
		return err
	}

	if upload != nil {
		url, err := h.images.Save(ctx, *attr.ID, upload.filename, upload.data)
		if err != nil {
			return err
		}
		attr, err = h.repo.Update(ctx, *attr.ID, attr.Value, attr.Price, url)
		if err != nil {
			return err
		}
	}

	return routes.OK(c, http.StatusCreated, attr)
}

// Update applies new field values to an attribute value. Fields absent from
// the request keep their stored values.
func (h *Handler) Update(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "catalogd.AttributeValueHandler.Update")
	defer span.End()

	req, upload, err := h.bindMutation(c)
	if err != nil {
		return routes.Fail(c, http.StatusBadRequest, err.Error())
	}

	current, err := h.repo.GetByID(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	if current == nil {
		return routes.NotFound(c, "attribute value")
	}

	value := current.Value
	if req.Value != nil {
		value = *req.Value
	}
	if value == "" {
		return routes.Fail(c, http.StatusBadRequest, "value cannot be empty")
	}

	price := current.Price
	if req.Price != nil {
		price = *req.Price
	}

	imageURL := current.ImageURL
	if upload != nil {
		imageURL, err = h.images.Save(ctx, *current.ID, upload.filename, upload.data)
		if err != nil {
			return err
		}
	}

	attr, err := h.repo.Update(ctx, *current.ID, value, price, imageURL)
	if err != nil {
		return err
	}
	if attr == nil {
		return routes.NotFound(c, "attribute value")
	}

	return routes.OK(c, http.StatusOK, attr)
}

// Delete removes an attribute value along with its stored images
func (h *Handler) Delete(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "catalogd.AttributeValueHandler.Delete")
	defer span.End()

	id := c.Param("id")
	if err := h.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return routes.NotFound(c, "attribute value")
		}
		return err
	}

	if err := h.images.Remove(ctx, id); err != nil {
		h.logger.WithContext(ctx).WithError(err).Warn("failed to remove stored images")
	}

	return routes.OK(c, http.StatusOK, nil)
}

type uploadedImage struct {
	filename string
	data     []byte
}

// bindMutation decodes a JSON or multipart mutation body. The returned upload
// is nil when the request carries no image file.
func (h *Handler) bindMutation(c echo.Context) (*mutationRequest, *uploadedImage, error) {
	var req mutationRequest

	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(contentType, echo.MIMEMultipartForm) {
		if err := c.Bind(&req); err != nil {
			return nil, nil, fmt.Errorf("invalid request body")
		}
		return &req, nil, nil
	}

	req.VariationTypeID = c.FormValue("variation_type_id")
	if values, err := c.FormParams(); err == nil {
		if v, ok := values["value"]; ok && len(v) > 0 {
			req.Value = &v[0]
		}
		if p, ok := values["price"]; ok && len(p) > 0 {
			req.Price = &p[0]
		}
	}

	file, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return &req, nil, nil
		}
		return nil, nil, fmt.Errorf("invalid image upload")
	}

	if file.Size > assets.MaxImageBytes {
		return nil, nil, fmt.Errorf("image exceeds the %d byte limit", assets.MaxImageBytes)
	}

	src, err := file.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid image upload")
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, assets.MaxImageBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid image upload")
	}

	return &req, &uploadedImage{filename: file.Filename, data: data}, nil
}
