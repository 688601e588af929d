// Package fakeapi is an in-memory implementation of the products REST backend.
// It is used as a test double by the client, the web layer and the e2e suite.
package fakeapi

import (
	"errors"
	"slices"
	"sync"

	"github.com/google/uuid"
)

var (
	errNotFound     = errors.New("product not found")
	errDuplicateSKU = errors.New("SKU already exists")
)

// Product is the stored representation, serialized the way the backend does.
type Product struct {
	ID       string  `json:"_id"`
	Name     string  `json:"name"`
	SKU      string  `json:"sku"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// inMemory keeps products in insertion order.
type inMemory struct {
	mu       sync.RWMutex
	products map[string]Product
	order    []string
}

func newInMemory() *inMemory {
	return &inMemory{products: make(map[string]Product)}
}

func (s *inMemory) findAll() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]Product, 0, len(s.order))
	for _, id := range s.order {
		list = append(list, s.products[id])
	}
	return list
}

func (s *inMemory) create(p Product) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.skuTaken(p.SKU, "") {
		return Product{}, errDuplicateSKU
	}
	p.ID = uuid.NewString()
	s.products[p.ID] = p
	s.order = append(s.order, p.ID)
	return p, nil
}

func (s *inMemory) update(p Product) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[p.ID]; !ok {
		return Product{}, errNotFound
	}
	if s.skuTaken(p.SKU, p.ID) {
		return Product{}, errDuplicateSKU
	}
	s.products[p.ID] = p
	return p, nil
}

func (s *inMemory) delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return errNotFound
	}
	delete(s.products, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	return nil
}

// skuTaken must be called with the lock held.
func (s *inMemory) skuTaken(sku, exceptID string) bool {
	for id, p := range s.products {
		if id != exceptID && p.SKU == sku {
			return true
		}
	}
	return false
}
