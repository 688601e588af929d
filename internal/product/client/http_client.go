package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	producterrors "github.com/abgdnv/gocommerce-inventory/internal/product/errors"
)

// maxErrorBody limits how much of an error response is read.
const maxErrorBody = 64 << 10

// HTTPClient implements ProductClient on top of an *http.Client.
type HTTPClient struct {
	http     *http.Client
	endpoint string
	logger   *slog.Logger
}

// NewHTTPClient creates a client for the products resource at baseURL + productsPath.
// The given http.Client carries the transport stack (tracing, circuit breaker, metrics).
func NewHTTPClient(httpClient *http.Client, baseURL, productsPath string, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{
		http:     httpClient,
		endpoint: strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(productsPath, "/"),
		logger:   logger.With("component", "client"),
	}
}

// List retrieves all products.
func (c *HTTPClient) List(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := c.do(ctx, http.MethodGet, c.endpoint, nil, &products); err != nil {
		return nil, err
	}
	if products == nil {
		products = []Product{}
	}
	return products, nil
}

// Create posts a new product.
func (c *HTTPClient) Create(ctx context.Context, fields ProductFields) (*Product, error) {
	var created Product
	if err := c.do(ctx, http.MethodPost, c.endpoint, fields, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Update puts new fields for an existing product.
func (c *HTTPClient) Update(ctx context.Context, id string, fields ProductFields) (*Product, error) {
	var updated Product
	if err := c.do(ctx, http.MethodPut, c.productURL(id), fields, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes a product by its identifier.
func (c *HTTPClient) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, c.productURL(id), nil, nil)
}

func (c *HTTPClient) productURL(id string) string {
	return c.endpoint + "/" + url.PathEscape(id)
}

// errorBody is the error envelope of the backend. Both field names are in use.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (c *HTTPClient) do(ctx context.Context, method, target string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return &producterrors.TransportError{Err: fmt.Errorf("failed to encode request: %w", err)}
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return &producterrors.TransportError{Err: fmt.Errorf("failed to build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.DebugContext(ctx, "backend request failed",
			"method", method, "path", req.URL.Path, "duration", time.Since(start), "error", err)
		return &producterrors.TransportError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.DebugContext(ctx, "backend request",
		"method", method, "path", req.URL.Path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &producterrors.TransportError{Status: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &producterrors.TransportError{Status: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

func readErrorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}
	var eb errorBody
	if err := json.Unmarshal(data, &eb); err != nil {
		return ""
	}
	if eb.Message != "" {
		return eb.Message
	}
	return eb.Error
}
