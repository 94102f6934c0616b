package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/assets"
	"github.com/Ramsey-B/fern/pkg/catalog"
	"github.com/Ramsey-B/fern/pkg/hierarchy"
	"github.com/Ramsey-B/fern/pkg/middleware"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/notify"
	avroutes "github.com/Ramsey-B/fern/pkg/routes/attributevalue"
	vtroutes "github.com/Ramsey-B/fern/pkg/routes/variationtype"
	visroutes "github.com/Ramsey-B/fern/pkg/routes/visibility"
)

// TestAPIHelpers drives the API through an in-process echo instance backed by
// a scripted record store.
type TestAPIHelpers struct {
	t      *testing.T
	e      *echo.Echo
	remote *catalog.Fake
	store  *hierarchy.Store
}

func NewTestAPIHelpers(t *testing.T) *TestAPIHelpers {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

	remote := catalog.NewFake()
	store := hierarchy.NewStore()
	sink := &notify.Recorder{}
	controller := hierarchy.NewController(store, remote, sink, nil, logger)
	orchestrator := hierarchy.NewOrchestrator(store, remote, logger)
	stager := assets.NewStager(logger)

	e := echo.New()
	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(middleware.Context())

	api := e.Group("/api/v1")
	vtroutes.NewHandler(controller, orchestrator, store).RegisterRoutes(api.Group("/variation-types"))
	avroutes.NewHandler(controller, store, stager).RegisterRoutes(api.Group("/attributes"))
	visroutes.NewHandler(store).RegisterRoutes(api.Group("/visibility"))

	return &TestAPIHelpers{
		t:      t,
		e:      e,
		remote: remote,
		store:  store,
	}
}

func (h *TestAPIHelpers) MakeRequest(method, path string, body any) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(h.t, err)
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	h.e.ServeHTTP(rec, req)
	return rec
}

func (h *TestAPIHelpers) Decode(rec *httptest.ResponseRecorder, out any) {
	require.NoError(h.t, json.Unmarshal(rec.Body.Bytes(), out))
}

func TestVariationTypeAPI(t *testing.T) {
	t.Run("create and list", func(t *testing.T) {
		h := NewTestAPIHelpers(t)

		rec := h.MakeRequest(http.MethodPost, "/api/v1/variation-types", map[string]any{"name": "Size"})
		require.Equal(t, http.StatusCreated, rec.Code)

		var created models.VariationType
		h.Decode(rec, &created)
		require.NotNil(t, created.ID)
		assert.Equal(t, "Size", created.Name)

		rec = h.MakeRequest(http.MethodGet, "/api/v1/variation-types", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var list models.VariationTypeListResponse
		h.Decode(rec, &list)
		require.Len(t, list.Items, 1)
		assert.Equal(t, "Size", list.Items[0].Name)
	})

	t.Run("create with empty name is rejected locally", func(t *testing.T) {
		h := NewTestAPIHelpers(t)

		rec := h.MakeRequest(http.MethodPost, "/api/v1/variation-types", map[string]any{"name": ""})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, 0, h.remote.CallCount("CreateVariationType"))
	})

	t.Run("rejected create leaves no local residue", func(t *testing.T) {
		h := NewTestAPIHelpers(t)
		h.remote.FailNext("CreateVariationType", models.NewRemoteRejected("duplicate name", nil))

		rec := h.MakeRequest(http.MethodPost, "/api/v1/variation-types", map[string]any{"name": "Size"})
		assert.Equal(t, http.StatusBadGateway, rec.Code)

		rec = h.MakeRequest(http.MethodGet, "/api/v1/variation-types", nil)
		var list models.VariationTypeListResponse
		h.Decode(rec, &list)
		assert.Empty(t, list.Items)
	})

	t.Run("delete requires confirmation", func(t *testing.T) {
		h := NewTestAPIHelpers(t)

		rec := h.MakeRequest(http.MethodPost, "/api/v1/variation-types", map[string]any{"name": "Size"})
		var created models.VariationType
		h.Decode(rec, &created)

		rec = h.MakeRequest(http.MethodDelete, "/api/v1/variation-types/"+*created.ID, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = h.MakeRequest(http.MethodDelete, "/api/v1/variation-types/"+*created.ID+"?confirm=true", nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestAttributeValueAPI(t *testing.T) {
	seedType := func(h *TestAPIHelpers) string {
		rec := h.MakeRequest(http.MethodPost, "/api/v1/variation-types", map[string]any{"name": "Size"})
		require.Equal(h.t, http.StatusCreated, rec.Code)

		var created models.VariationType
		h.Decode(rec, &created)
		return *created.ID
	}

	t.Run("full create flow", func(t *testing.T) {
		h := NewTestAPIHelpers(t)
		typeID := seedType(h)

		rec := h.MakeRequest(http.MethodPost, "/api/v1/attributes", map[string]any{
			"variation_type_id": typeID,
			"value":             "Small",
			"price":             "9.99",
		})
		require.Equal(t, http.StatusCreated, rec.Code)

		var created models.AttributeValue
		h.Decode(rec, &created)
		require.NotNil(t, created.ID)
		assert.Equal(t, "Small", created.Value)
		assert.Equal(t, "9.99", created.Price)
		assert.False(t, created.Editing)
	})

	t.Run("validation failure makes no remote call", func(t *testing.T) {
		h := NewTestAPIHelpers(t)
		typeID := seedType(h)

		rec := h.MakeRequest(http.MethodPost, "/api/v1/attributes", map[string]any{
			"variation_type_id": typeID,
			"value":             "Small",
			"price":             "12.999",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, 0, h.remote.CallCount("CreateAttributeValue"))
	})

	t.Run("edit and save an existing row", func(t *testing.T) {
		h := NewTestAPIHelpers(t)
		typeID := seedType(h)

		rec := h.MakeRequest(http.MethodPost, "/api/v1/attributes", map[string]any{
			"variation_type_id": typeID,
			"value":             "Small",
		})
		var created models.AttributeValue
		h.Decode(rec, &created)

		rec = h.MakeRequest(http.MethodPost, "/api/v1/attributes/"+*created.ID+"/edit", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = h.MakeRequest(http.MethodPost, "/api/v1/attributes/"+*created.ID+"/save", map[string]any{
			"value": "Medium",
			"price": "11.00",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var saved models.AttributeValue
		h.Decode(rec, &saved)
		assert.Equal(t, "Medium", saved.Value)
		assert.Equal(t, "11.00", saved.Price)
		assert.False(t, saved.Editing)
	})

	t.Run("cancel reverts the row", func(t *testing.T) {
		h := NewTestAPIHelpers(t)
		typeID := seedType(h)

		rec := h.MakeRequest(http.MethodPost, "/api/v1/attributes", map[string]any{
			"variation_type_id": typeID,
			"value":             "Small",
		})
		var created models.AttributeValue
		h.Decode(rec, &created)

		rec = h.MakeRequest(http.MethodPost, "/api/v1/attributes/"+*created.ID+"/edit", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = h.MakeRequest(http.MethodPost, "/api/v1/attributes/"+*created.ID+"/cancel", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var reverted models.AttributeValue
		h.Decode(rec, &reverted)
		assert.Equal(t, "Small", reverted.Value)
		assert.False(t, reverted.Editing)
	})

	t.Run("failed delete keeps the row", func(t *testing.T) {
		h := NewTestAPIHelpers(t)
		typeID := seedType(h)

		rec := h.MakeRequest(http.MethodPost, "/api/v1/attributes", map[string]any{
			"variation_type_id": typeID,
			"value":             "Small",
		})
		var created models.AttributeValue
		h.Decode(rec, &created)

		h.remote.FailNext("DeleteAttributeValue", models.NewNetworkUnavailable(fmt.Errorf("connection refused")))

		rec = h.MakeRequest(http.MethodDelete, "/api/v1/attributes/"+*created.ID+"?confirm=true", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		_, ok := h.store.Get(created.Key())
		assert.True(t, ok, "row should survive a failed delete")
	})

	t.Run("unknown row is a 404", func(t *testing.T) {
		h := NewTestAPIHelpers(t)

		rec := h.MakeRequest(http.MethodPost, "/api/v1/attributes/missing/edit", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestVisibilityAPI(t *testing.T) {
	t.Run("classifies by type name", func(t *testing.T) {
		h := NewTestAPIHelpers(t)

		rec := h.MakeRequest(http.MethodGet, "/api/v1/visibility?type=Weight,+Size", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Tags []string `json:"tags"`
		}
		h.Decode(rec, &resp)
		assert.ElementsMatch(t, []string{"weight", "size"}, resp.Tags)
	})

	t.Run("unknown context fails open", func(t *testing.T) {
		h := NewTestAPIHelpers(t)

		rec := h.MakeRequest(http.MethodGet, "/api/v1/visibility", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Tags []string `json:"tags"`
		}
		h.Decode(rec, &resp)
		assert.Len(t, resp.Tags, 4)
	})
}
