package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
)

func newTestClient(baseURL string) *Client {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return NewClient(DefaultClientConfig(baseURL), logger)
}

func TestClient_ListVariationTypes(t *testing.T) {
	t.Run("decodes an enveloped list", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/variation-types", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":true,"data":[{"id":"type-1","name":"Size"},{"id":"type-2","name":"Color"}]}`))
		}))
		defer server.Close()

		types, err := newTestClient(server.URL).ListVariationTypes(context.Background())
		require.NoError(t, err)
		require.Len(t, types, 2)
		assert.Equal(t, "Size", types[0].Name)
		assert.Equal(t, "Color", types[1].Name)
	})

	t.Run("decodes a bare list", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"id":"type-1","name":"Size"}]`))
		}))
		defer server.Close()

		types, err := newTestClient(server.URL).ListVariationTypes(context.Background())
		require.NoError(t, err)
		require.Len(t, types, 1)
		assert.Equal(t, "Size", types[0].Name)
	})
}

func TestClient_ListAttributeValues(t *testing.T) {
	t.Run("scopes the query to a variation type", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/attributes", r.URL.Path)
			assert.Equal(t, "type-1", r.URL.Query().Get("variation_type_id"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":true,"data":[{"id":"attr-1","variation_type_id":"type-1","value":"Small"}]}`))
		}))
		defer server.Close()

		attrs, err := newTestClient(server.URL).ListAttributeValues(context.Background(), "type-1")
		require.NoError(t, err)
		require.Len(t, attrs, 1)
		assert.Equal(t, "Small", attrs[0].Value)
	})

	t.Run("normalizes alias field names", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"_id":"attr-1","attribute_name":"Large","amount":"12.00"}]`))
		}))
		defer server.Close()

		attrs, err := newTestClient(server.URL).ListAttributeValues(context.Background(), "")
		require.NoError(t, err)
		require.Len(t, attrs, 1)
		assert.Equal(t, "Large", attrs[0].Value)
		assert.Equal(t, "12.00", attrs[0].Price)
	})
}

func TestClient_CreateAttributeValue(t *testing.T) {
	t.Run("sends JSON when no image is attached", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"status":true,"data":{"id":"attr-1","variation_type_id":"type-1","value":"Small","price":"9.99"}}`))
		}))
		defer server.Close()

		attr, err := newTestClient(server.URL).CreateAttributeValue(context.Background(), models.CreateAttributeRequest{
			VariationTypeID: "type-1",
			Value:           "Small",
			Price:           "9.99",
		})
		require.NoError(t, err)
		require.NotNil(t, attr.ID)
		assert.Equal(t, "attr-1", *attr.ID)
		assert.Equal(t, "9.99", attr.Price)
	})

	t.Run("sends multipart when an image is attached", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseMultipartForm(4<<20))
			assert.Equal(t, "Small", r.FormValue("value"))

			file, header, err := r.FormFile("image")
			require.NoError(t, err)
			defer file.Close()
			assert.Equal(t, "swatch.png", header.Filename)

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"status":true,"data":{"id":"attr-1","value":"Small","image_url":"https://cdn.example.com/attr-1/swatch.png"}}`))
		}))
		defer server.Close()

		attr, err := newTestClient(server.URL).CreateAttributeValue(context.Background(), models.CreateAttributeRequest{
			VariationTypeID: "type-1",
			Value:           "Small",
			Image:           stubAttachment{name: "swatch.png", data: []byte{0x89, 'P', 'N', 'G'}},
		})
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/attr-1/swatch.png", attr.ImageURL)
	})
}

func TestClient_ErrorMapping(t *testing.T) {
	t.Run("non-2xx maps to a remote rejection", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"status":false,"message":"value is required"}`))
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).CreateVariationType(context.Background(), "")
		require.Error(t, err)
		assert.Equal(t, models.ErrorKindRemoteRejected, models.KindOf(err))
		assert.Contains(t, err.Error(), "value is required")
	})

	t.Run("status false fails the call even on 2xx", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":false,"message":"duplicate name"}`))
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).CreateVariationType(context.Background(), "Size")
		require.Error(t, err)
		assert.Equal(t, models.ErrorKindRemoteRejected, models.KindOf(err))
	})

	t.Run("unreachable store maps to network unavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		_, err := newTestClient(server.URL).ListVariationTypes(context.Background())
		require.Error(t, err)
		assert.Equal(t, models.ErrorKindNetworkUnavailable, models.KindOf(err))
	})

	t.Run("delete surfaces rejections", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"status":false,"message":"attribute value not found"}`))
		}))
		defer server.Close()

		err := newTestClient(server.URL).DeleteAttributeValue(context.Background(), "missing")
		require.Error(t, err)
		assert.Equal(t, models.ErrorKindRemoteRejected, models.KindOf(err))
	})
}

type stubAttachment struct {
	name string
	data []byte
}

func (s stubAttachment) Filename() string    { return s.name }
func (s stubAttachment) ContentType() string { return "image/png" }
func (s stubAttachment) Bytes() []byte       { return s.data }
