package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizer"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const (
	// DefaultTimeout is the default request timeout
	DefaultTimeout = 30 * time.Second

	// MaxResponseSize is the maximum response body size (10MB)
	MaxResponseSize = 10 * 1024 * 1024
)

// ClientConfig holds HTTP record store client configuration
type ClientConfig struct {
	BaseURL         string
	Timeout         time.Duration
	MaxIdleConns    int
	IdleConnTimeout time.Duration
	Headers         map[string]string
}

// DefaultClientConfig returns default client configuration
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL:         baseURL,
		Timeout:         DefaultTimeout,
		MaxIdleConns:    100,
		IdleConnTimeout: 90 * time.Second,
	}
}

// Client is the HTTP implementation of RecordStore.
type Client struct {
	baseURL string
	headers map[string]string
	client  *http.Client
	logger  ectologger.Logger
}

// NewClient creates a new record store client
func NewClient(cfg ClientConfig, logger ectologger.Logger) *Client {
	transport := &http.Transport{
		MaxIdleConns:    cfg.MaxIdleConns,
		IdleConnTimeout: cfg.IdleConnTimeout,
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		headers: cfg.Headers,
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		logger: logger,
	}
}

// envelope is the store's response wrapper. A missing status field means the
// endpoint responds with the bare payload; an explicit status:false is a
// rejection regardless of HTTP code.
type envelope struct {
	Status  *bool           `json:"status,omitempty"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (c *Client) ListVariationTypes(ctx context.Context) ([]models.VariationType, error) {
	ctx, span := tracing.StartSpan(ctx, "catalog.Client.ListVariationTypes")
	defer span.End()

	data, err := c.do(ctx, http.MethodGet, "/variation-types", nil, "")
	if err != nil {
		return nil, err
	}

	raws, err := decodeList(data)
	if err != nil {
		return nil, err
	}
	return normalizer.VariationTypes(raws), nil
}

func (c *Client) CreateVariationType(ctx context.Context, name string) (*models.VariationType, error) {
	ctx, span := tracing.StartSpan(ctx, "catalog.Client.CreateVariationType")
	defer span.End()

	body, err := jsonBody(map[string]string{"name": name})
	if err != nil {
		return nil, err
	}

	data, err := c.do(ctx, http.MethodPost, "/variation-types", body, "application/json")
	if err != nil {
		return nil, err
	}

	raw, err := decodeRecord(data)
	if err != nil {
		return nil, err
	}
	vt := normalizer.VariationType(raw)
	return &vt, nil
}

func (c *Client) UpdateVariationType(ctx context.Context, id, name string) (*models.VariationType, error) {
	ctx, span := tracing.StartSpan(ctx, "catalog.Client.UpdateVariationType")
	defer span.End()

	body, err := jsonBody(map[string]string{"name": name})
	if err != nil {
		return nil, err
	}

	data, err := c.do(ctx, http.MethodPut, "/variation-types/"+url.PathEscape(id), body, "application/json")
	if err != nil {
		return nil, err
	}

	raw, err := decodeRecord(data)
	if err != nil {
		return nil, err
	}
	vt := normalizer.VariationType(raw)
	return &vt, nil
}

func (c *Client) DeleteVariationType(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "catalog.Client.DeleteVariationType")
	defer span.End()

	_, err := c.do(ctx, http.MethodDelete, "/variation-types/"+url.PathEscape(id), nil, "")
	return err
}

func (c *Client) ListAttributeValues(ctx context.Context, variationTypeID string) ([]models.AttributeValue, error) {
	ctx, span := tracing.StartSpan(ctx, "catalog.Client.ListAttributeValues")
	defer span.End()

	path := "/attributes"
	if variationTypeID != "" {
		path += "?variation_type_id=" + url.QueryEscape(variationTypeID)
	}

	data, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}

	raws, err := decodeList(data)
	if err != nil {
		return nil, err
	}
	return normalizer.Attributes(raws), nil
}

func (c *Client) CreateAttributeValue(ctx context.Context, req models.CreateAttributeRequest) (*models.AttributeValue, error) {
	ctx, span := tracing.StartSpan(ctx, "catalog.Client.CreateAttributeValue")
	defer span.End()

	fields := map[string]string{
		"variation_type_id": req.VariationTypeID,
		"value":             req.Value,
	}
	if req.Price != "" {
		fields["price"] = req.Price
	}

	body, contentType, err := encodeFields(fields, req.Image)
	if err != nil {
		return nil, err
	}

	data, err := c.do(ctx, http.MethodPost, "/attributes", body, contentType)
	if err != nil {
		return nil, err
	}

	raw, err := decodeRecord(data)
	if err != nil {
		return nil, err
	}
	av := normalizer.Attribute(raw)
	return &av, nil
}

func (c *Client) UpdateAttributeValue(ctx context.Context, id string, req models.UpdateAttributeRequest) (*models.AttributeValue, error) {
	ctx, span := tracing.StartSpan(ctx, "catalog.Client.UpdateAttributeValue")
	defer span.End()

	fields := map[string]string{}
	if req.Value != nil {
		fields["value"] = *req.Value
	}
	if req.Price != nil {
		fields["price"] = *req.Price
	}

	body, contentType, err := encodeFields(fields, req.Image)
	if err != nil {
		return nil, err
	}

	data, err := c.do(ctx, http.MethodPut, "/attributes/"+url.PathEscape(id), body, contentType)
	if err != nil {
		return nil, err
	}

	raw, err := decodeRecord(data)
	if err != nil {
		return nil, err
	}
	av := normalizer.Attribute(raw)
	return &av, nil
}

func (c *Client) DeleteAttributeValue(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "catalog.Client.DeleteAttributeValue")
	defer span.End()

	_, err := c.do(ctx, http.MethodDelete, "/attributes/"+url.PathEscape(id), nil, "")
	return err
}

// do executes a request and maps the outcome onto the error taxonomy. The
// returned bytes are the response body (possibly an envelope).
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) ([]byte, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).Errorf("record store request failed: %s %s", method, path)
		metrics.RemoteRequestsTotal.WithLabelValues(method, "unreachable").Inc()
		return nil, models.NewNetworkUnavailable(err)
	}
	defer resp.Body.Close()

	duration := time.Since(start)
	metrics.RemoteRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
	metrics.RemoteRequestsTotal.WithLabelValues(method, fmt.Sprintf("%d", resp.StatusCode)).Inc()

	limitedReader := io.LimitReader(resp.Body, MaxResponseSize+1)
	respBody, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, models.NewNetworkUnavailable(err)
	}
	if len(respBody) > MaxResponseSize {
		return nil, fmt.Errorf("response body too large: %d bytes (max %d)", len(respBody), MaxResponseSize)
	}

	c.logger.WithContext(ctx).Debugf("record store %s %s -> %d (%s)", method, path, resp.StatusCode, duration)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, models.NewRemoteRejected(rejectionMessage(respBody, resp.StatusCode), nil)
	}

	// An application-level status:false payload fails the call even on 2xx.
	var env envelope
	if err := json.Unmarshal(respBody, &env); err == nil && env.Status != nil && !*env.Status {
		return nil, models.NewRemoteRejected(rejectionMessage(respBody, resp.StatusCode), nil)
	}

	return respBody, nil
}

func rejectionMessage(body []byte, statusCode int) string {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Message != "" {
		return env.Message
	}
	return fmt.Sprintf("record store rejected the request (status %d)", statusCode)
}

// decodeList unwraps the envelope (when present) and decodes a list of raw
// records.
func decodeList(body []byte) ([]normalizer.Raw, error) {
	payload := unwrap(body)

	var raws []normalizer.Raw
	if err := json.Unmarshal(payload, &raws); err != nil {
		return nil, fmt.Errorf("failed to decode record list: %w", err)
	}
	return raws, nil
}

// decodeRecord unwraps the envelope (when present) and decodes a single raw
// record.
func decodeRecord(body []byte) (normalizer.Raw, error) {
	payload := unwrap(body)

	var raw normalizer.Raw
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	return raw, nil
}

func unwrap(body []byte) json.RawMessage {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && len(env.Data) > 0 {
		return env.Data
	}
	return body
}

func jsonBody(v any) (io.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}
	return bytes.NewReader(data), nil
}

// encodeFields builds a JSON body, or a multipart body when an image
// accompanies the mutation.
func encodeFields(fields map[string]string, image models.ImageAttachment) (io.Reader, string, error) {
	if image == nil {
		body, err := jsonBody(fields)
		if err != nil {
			return nil, "", err
		}
		return body, "application/json", nil
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, "", fmt.Errorf("failed to write multipart field: %w", err)
		}
	}

	part, err := writer.CreateFormFile("image", image.Filename())
	if err != nil {
		return nil, "", fmt.Errorf("failed to create multipart file: %w", err)
	}
	if _, err := part.Write(image.Bytes()); err != nil {
		return nil, "", fmt.Errorf("failed to write multipart file: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	return &buf, writer.FormDataContentType(), nil
}
