package form

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/abgdnv/gocommerce-inventory/internal/product/client"
	producterrors "github.com/abgdnv/gocommerce-inventory/internal/product/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewDraft(t *testing.T) {
	tests := []struct {
		name    string
		product *client.Product
		want    Draft
	}{
		{name: "create", product: nil, want: Draft{}},
		{
			name:    "edit",
			product: &client.Product{ID: "1", Name: "Widget", SKU: "W-1", Quantity: 3, Price: 9.99},
			want:    Draft{Name: "Widget", SKU: "W-1", Quantity: "3", Price: "9.99"},
		},
		{
			name:    "whole price",
			product: &client.Product{ID: "2", Name: "Gadget", SKU: "G-1", Quantity: 0, Price: 15},
			want:    Draft{Name: "Gadget", SKU: "G-1", Quantity: "0", Price: "15"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewDraft(tt.product))
		})
	}
}

func TestDraft_Validate(t *testing.T) {
	valid := Draft{Name: "Widget", SKU: "W-1", Quantity: "3", Price: "9.99"}
	with := func(change func(d *Draft)) Draft {
		d := valid
		change(&d)
		return d
	}
	tests := []struct {
		name      string
		draft     Draft
		wantMsg   string
		wantField string
		want      client.ProductFields
	}{
		{name: "valid", draft: valid, want: client.ProductFields{Name: "Widget", SKU: "W-1", Quantity: 3, Price: 9.99}},
		{name: "zero quantity", draft: with(func(d *Draft) { d.Quantity = "0" }), want: client.ProductFields{Name: "Widget", SKU: "W-1", Quantity: 0, Price: 9.99}},
		{name: "surrounding spaces in numbers", draft: Draft{Name: "Widget", SKU: "W-1", Quantity: " 4 ", Price: " 2.5"}, want: client.ProductFields{Name: "Widget", SKU: "W-1", Quantity: 4, Price: 2.5}},
		{name: "empty name", draft: with(func(d *Draft) { d.Name = "" }), wantMsg: "Name is required", wantField: "name"},
		{name: "blank name", draft: with(func(d *Draft) { d.Name = "   " }), wantMsg: "Name is required", wantField: "name"},
		{name: "blank sku", draft: with(func(d *Draft) { d.SKU = " \t" }), wantMsg: "SKU is required", wantField: "sku"},
		{name: "name checked before sku", draft: Draft{Quantity: "1", Price: "1"}, wantMsg: "Name is required", wantField: "name"},
		{name: "negative quantity", draft: with(func(d *Draft) { d.Quantity = "-1" }), wantMsg: "Quantity must be a positive number", wantField: "quantity"},
		{name: "non numeric quantity", draft: with(func(d *Draft) { d.Quantity = "abc" }), wantMsg: "Quantity must be a positive number", wantField: "quantity"},
		{name: "empty quantity", draft: with(func(d *Draft) { d.Quantity = "" }), wantMsg: "Quantity must be a positive number", wantField: "quantity"},
		{name: "fractional quantity", draft: with(func(d *Draft) { d.Quantity = "1.5" }), wantMsg: "Quantity must be a positive number", wantField: "quantity"},
		{name: "quantity checked before price", draft: Draft{Name: "Widget", SKU: "W-1", Quantity: "x", Price: "0"}, wantMsg: "Quantity must be a positive number", wantField: "quantity"},
		{name: "zero price", draft: with(func(d *Draft) { d.Price = "0" }), wantMsg: "Price must be greater than 0", wantField: "price"},
		{name: "negative price", draft: with(func(d *Draft) { d.Price = "-3" }), wantMsg: "Price must be greater than 0", wantField: "price"},
		{name: "non numeric price", draft: with(func(d *Draft) { d.Price = "ten" }), wantMsg: "Price must be greater than 0", wantField: "price"},
		{name: "empty price", draft: with(func(d *Draft) { d.Price = "" }), wantMsg: "Price must be greater than 0", wantField: "price"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// when
			fields, err := tt.draft.Validate()
			// then
			if tt.wantMsg == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.want, fields)
				return
			}
			var ve *producterrors.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.wantMsg, ve.Message)
			assert.Equal(t, tt.wantField, ve.Field)
		})
	}
}

// MockWriter is a mock implementation of the Writer interface.
type MockWriter struct {
	mock.Mock
}

func (m *MockWriter) Create(ctx context.Context, fields client.ProductFields) (*client.Product, error) {
	args := m.Called(ctx, fields)
	var p *client.Product
	if args.Get(0) != nil {
		p = args.Get(0).(*client.Product)
	}
	return p, args.Error(1)
}

func (m *MockWriter) Update(ctx context.Context, id string, fields client.ProductFields) (*client.Product, error) {
	args := m.Called(ctx, id, fields)
	var p *client.Product
	if args.Get(0) != nil {
		p = args.Get(0).(*client.Product)
	}
	return p, args.Error(1)
}

type mockRefresher struct {
	err   error
	calls int
}

func (m *mockRefresher) Refresh(context.Context) error {
	m.calls++
	return m.err
}

func newTestForm(w Writer, r *mockRefresher) *Form {
	return New(w, r, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestForm_Submit_Create(t *testing.T) {
	// given
	fields := client.ProductFields{Name: "Widget", SKU: "W-1", Quantity: 3, Price: 9.99}
	w := new(MockWriter)
	w.On("Create", mock.Anything, fields).
		Return(&client.Product{ID: "new", Name: "Widget", SKU: "W-1", Quantity: 3, Price: 9.99}, nil).Once()
	r := &mockRefresher{}
	f := newTestForm(w, r)
	// when
	saved, err := f.Submit(context.Background(), nil, Draft{Name: "Widget", SKU: "W-1", Quantity: "3", Price: "9.99"})
	// then
	require.NoError(t, err)
	assert.Equal(t, "new", saved.ID)
	w.AssertExpectations(t)
	w.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, 1, r.calls, "the list must be refreshed after a save")
}

func TestForm_Submit_Update(t *testing.T) {
	// given
	existing := &client.Product{ID: "42", Name: "Widget", SKU: "W-1", Quantity: 3, Price: 9.99}
	fields := client.ProductFields{Name: "Widget", SKU: "W-1", Quantity: 10, Price: 9.99}
	w := new(MockWriter)
	w.On("Update", mock.Anything, "42", fields).
		Return(&client.Product{ID: "42", Name: "Widget", SKU: "W-1", Quantity: 10, Price: 9.99}, nil).Once()
	r := &mockRefresher{}
	f := newTestForm(w, r)
	d := NewDraft(existing)
	d.Quantity = "10"
	// when
	saved, err := f.Submit(context.Background(), existing, d)
	// then
	require.NoError(t, err)
	assert.Equal(t, 10, saved.Quantity)
	w.AssertExpectations(t)
	w.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	assert.Equal(t, 1, r.calls)
}

func TestForm_Submit_ValidationStopsBeforeNetwork(t *testing.T) {
	// given
	w := new(MockWriter)
	r := &mockRefresher{}
	f := newTestForm(w, r)
	// when
	_, err := f.Submit(context.Background(), nil, Draft{Name: "Widget", SKU: "W-1", Quantity: "3", Price: "0"})
	// then
	require.Error(t, err)
	assert.Equal(t, "Price must be greater than 0", Message(err))
	w.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	assert.Equal(t, 0, r.calls)
}

func TestForm_Submit_TransportFailure(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{name: "backend message", err: &producterrors.TransportError{Status: 409, Message: "SKU already exists"}, wantMsg: "SKU already exists"},
		{name: "no message", err: &producterrors.TransportError{Status: 500}, wantMsg: "An error occurred"},
		{name: "network failure", err: &producterrors.TransportError{Err: errors.New("connection refused")}, wantMsg: "An error occurred"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// given
			w := new(MockWriter)
			w.On("Create", mock.Anything, mock.Anything).Return(nil, tt.err)
			r := &mockRefresher{}
			f := newTestForm(w, r)
			// when
			saved, err := f.Submit(context.Background(), nil, Draft{Name: "Widget", SKU: "W-1", Quantity: "3", Price: "1"})
			// then
			require.Error(t, err)
			assert.Nil(t, saved)
			assert.Equal(t, tt.wantMsg, Message(err))
			assert.Equal(t, 0, r.calls, "nothing to refresh after a failed save")
		})
	}
}

func TestForm_Submit_RefreshFailureIsNotASubmitError(t *testing.T) {
	// given
	w := new(MockWriter)
	w.On("Create", mock.Anything, mock.Anything).Return(&client.Product{ID: "1"}, nil)
	r := &mockRefresher{err: errors.New("refresh failed")}
	f := newTestForm(w, r)
	// when
	_, err := f.Submit(context.Background(), nil, Draft{Name: "Widget", SKU: "W-1", Quantity: "3", Price: "1"})
	// then
	require.NoError(t, err)
	assert.Equal(t, 1, r.calls)
}
