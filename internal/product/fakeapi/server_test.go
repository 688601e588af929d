package fakeapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAPI(t *testing.T) (*API, string) {
	t.Helper()
	api := New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	srv := api.Start()
	t.Cleanup(srv.Close)
	return api, srv.URL
}

func send(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	var decoded map[string]any
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(data) > 0 && data[0] == '{' {
		require.NoError(t, json.Unmarshal(data, &decoded))
	}
	return resp, decoded
}

func TestAPI_Create(t *testing.T) {
	tests := []struct {
		name        string
		body        map[string]any
		wantStatus  int
		wantMessage string
	}{
		{
			name:       "valid product",
			body:       map[string]any{"name": "Widget", "sku": "W-1", "quantity": 3, "price": 9.99},
			wantStatus: http.StatusCreated,
		},
		{
			name:        "missing sku",
			body:        map[string]any{"name": "Widget", "quantity": 3, "price": 9.99},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "SKU failed on rule: required",
		},
		{
			name:        "zero price",
			body:        map[string]any{"name": "Widget", "sku": "W-2", "quantity": 3, "price": 0},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Price failed on rule: gt",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// given
			_, url := newTestAPI(t)
			// when
			resp, body := send(t, http.MethodPost, url+"/products", tt.body)
			// then
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, body["message"])
			} else {
				assert.NotEmpty(t, body["_id"])
			}
		})
	}
}

func TestAPI_DuplicateSKU(t *testing.T) {
	// given
	api, url := newTestAPI(t)
	api.Seed(Product{Name: "Widget", SKU: "W-1", Quantity: 1, Price: 1})
	// when
	resp, body := send(t, http.MethodPost, url+"/products",
		map[string]any{"name": "Other", "sku": "W-1", "quantity": 1, "price": 2})
	// then
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "SKU already exists", body["message"])
}

func TestAPI_UpdateAndDelete(t *testing.T) {
	// given
	api, url := newTestAPI(t)
	seeded := api.Seed(
		Product{Name: "Widget", SKU: "W-1", Quantity: 1, Price: 1},
		Product{Name: "Gadget", SKU: "G-1", Quantity: 2, Price: 2},
	)
	// when
	resp, body := send(t, http.MethodPut, url+"/products/"+seeded[0].ID,
		map[string]any{"name": "Widget XL", "sku": "W-1", "quantity": 5, "price": 3.5})
	// then
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, seeded[0].ID, body["_id"])
	assert.Equal(t, "Widget XL", body["name"])

	// when
	resp, _ = send(t, http.MethodDelete, url+"/products/"+seeded[1].ID, nil)
	// then
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	products := api.Products()
	require.Len(t, products, 1)
	assert.Equal(t, "Widget XL", products[0].Name)
}

func TestAPI_NotFound(t *testing.T) {
	// given
	_, url := newTestAPI(t)
	// when
	resp, body := send(t, http.MethodDelete, url+"/products/missing", nil)
	// then
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Product not found", body["message"])
}

func TestAPI_FailNext(t *testing.T) {
	// given
	api, url := newTestAPI(t)
	api.FailNext(http.MethodGet, http.StatusServiceUnavailable, "maintenance")
	// when
	first, body := send(t, http.MethodGet, url+"/products", nil)
	second, _ := send(t, http.MethodGet, url+"/products", nil)
	// then
	assert.Equal(t, http.StatusServiceUnavailable, first.StatusCode)
	assert.Equal(t, "maintenance", body["message"])
	assert.Equal(t, http.StatusOK, second.StatusCode)
	assert.Equal(t, 2, api.Calls(http.MethodGet))
}
