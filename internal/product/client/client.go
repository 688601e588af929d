// Package client provides access to the products REST backend.
package client

import (
	"context"
)

// Product is an inventory item as stored by the backend.
type Product struct {
	ID       string  `json:"_id"`
	Name     string  `json:"name"`
	SKU      string  `json:"sku"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// ProductFields is the mutable part of a product sent on create and update.
type ProductFields struct {
	Name     string  `json:"name"`
	SKU      string  `json:"sku"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// ProductClient defines the operations offered by the products backend.
// Every failure is reported as a *errors.TransportError.
type ProductClient interface {
	// List returns all products. An empty backend yields an empty, non-nil slice.
	List(ctx context.Context) ([]Product, error)

	// Create adds a new product and returns it with the identifier assigned by the backend.
	Create(ctx context.Context, fields ProductFields) (*Product, error)

	// Update replaces the fields of the product with the given identifier.
	// Returns an error matching ErrProductNotFound if the backend does not know the identifier.
	Update(ctx context.Context, id string, fields ProductFields) (*Product, error)

	// Delete removes the product with the given identifier.
	Delete(ctx context.Context, id string) error
}
