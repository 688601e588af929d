// Package form implements the add/edit product dialog logic: the text draft, its validation
// and the submission to the backend.
package form

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/abgdnv/gocommerce-inventory/internal/product/client"
	producterrors "github.com/abgdnv/gocommerce-inventory/internal/product/errors"
	"github.com/shopspring/decimal"
)

// Validation messages, checked in this order.
const (
	MsgNameRequired    = "Name is required"
	MsgSKURequired     = "SKU is required"
	MsgInvalidQuantity = "Quantity must be a positive number"
	MsgInvalidPrice    = "Price must be greater than 0"
)

// MsgGenericFailure is shown when the backend rejected a submission without a message.
const MsgGenericFailure = "An error occurred"

var maxQuantity = decimal.NewFromInt32(1<<31 - 1)

// Draft holds the dialog fields exactly as typed.
type Draft struct {
	Name     string
	SKU      string
	Quantity string
	Price    string
}

// NewDraft seeds a draft from an existing product, or returns an empty one when p is nil.
func NewDraft(p *client.Product) Draft {
	if p == nil {
		return Draft{}
	}
	return Draft{
		Name:     p.Name,
		SKU:      p.SKU,
		Quantity: strconv.Itoa(p.Quantity),
		Price:    decimal.NewFromFloat(p.Price).String(),
	}
}

// Validate checks the draft and converts it to the fields sent to the backend.
// The first failing rule is returned as a *errors.ValidationError.
func (d Draft) Validate() (client.ProductFields, error) {
	if strings.TrimSpace(d.Name) == "" {
		return client.ProductFields{}, &producterrors.ValidationError{Field: "name", Message: MsgNameRequired}
	}
	if strings.TrimSpace(d.SKU) == "" {
		return client.ProductFields{}, &producterrors.ValidationError{Field: "sku", Message: MsgSKURequired}
	}

	quantity, err := decimal.NewFromString(strings.TrimSpace(d.Quantity))
	if err != nil || quantity.IsNegative() || !quantity.IsInteger() || !quantity.LessThanOrEqual(maxQuantity) {
		return client.ProductFields{}, &producterrors.ValidationError{Field: "quantity", Message: MsgInvalidQuantity}
	}

	price, err := decimal.NewFromString(strings.TrimSpace(d.Price))
	if err != nil || !price.IsPositive() {
		return client.ProductFields{}, &producterrors.ValidationError{Field: "price", Message: MsgInvalidPrice}
	}

	return client.ProductFields{
		Name:     d.Name,
		SKU:      d.SKU,
		Quantity: int(quantity.IntPart()),
		Price:    price.InexactFloat64(),
	}, nil
}

// Writer is the part of the products API used to save a draft.
type Writer interface {
	Create(ctx context.Context, fields client.ProductFields) (*client.Product, error)
	Update(ctx context.Context, id string, fields client.ProductFields) (*client.Product, error)
}

// Refresher reloads the product list after a successful save.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Form submits drafts and keeps the product list in sync.
type Form struct {
	writer    Writer
	refresher Refresher
	logger    *slog.Logger
}

// New creates a Form.
func New(writer Writer, refresher Refresher, logger *slog.Logger) *Form {
	return &Form{
		writer:    writer,
		refresher: refresher,
		logger:    logger.With("component", "form"),
	}
}

// Submit validates the draft, then creates a product when existing is nil or updates existing otherwise.
// After a successful save the product list is refreshed; a failed refresh is left to the store's error state.
func (f *Form) Submit(ctx context.Context, existing *client.Product, d Draft) (*client.Product, error) {
	fields, err := d.Validate()
	if err != nil {
		return nil, err
	}

	var saved *client.Product
	if existing == nil {
		saved, err = f.writer.Create(ctx, fields)
		if err != nil {
			f.logger.WarnContext(ctx, "Error creating product", "sku", fields.SKU, "error", err)
			return nil, fmt.Errorf("create product: %w", err)
		}
		f.logger.InfoContext(ctx, "Product created", "ID", saved.ID, "sku", saved.SKU)
	} else {
		saved, err = f.writer.Update(ctx, existing.ID, fields)
		if err != nil {
			f.logger.WarnContext(ctx, "Error updating product", "ID", existing.ID, "error", err)
			return nil, fmt.Errorf("update product %s: %w", existing.ID, err)
		}
		f.logger.InfoContext(ctx, "Product updated", "ID", saved.ID, "sku", saved.SKU)
	}

	if err := f.refresher.Refresh(ctx); err != nil {
		f.logger.WarnContext(ctx, "Product list refresh after save failed", "error", err)
	}
	return saved, nil
}

// Message returns the text shown in the dialog for a Submit error.
func Message(err error) string {
	var ve *producterrors.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	var te *producterrors.TransportError
	if errors.As(err, &te) && te.Message != "" {
		return te.Message
	}
	return MsgGenericFailure
}
